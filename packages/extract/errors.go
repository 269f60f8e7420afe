package extract

import "errors"

var (
	// ErrNotOpened is returned by Extract before any successful Open
	ErrNotOpened = errors.New("no response has been opened")

	errUnknownSource = errors.New("unknown source")
)

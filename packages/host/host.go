package host

import (
	"context"
	"fmt"
)

// Source names the part of a fetched response an extraction reads from.
type Source string

const (
	// SourceContent is the response body
	SourceContent Source = "resp-content"
	// SourceHeader is the newline-delimited response header dump
	SourceHeader Source = "resp-header"
	// SourceHeaders is accepted by the agent as an alias of SourceHeader
	SourceHeaders Source = "resp-headers"
)

// ParseSource maps an agent source name to a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceContent, SourceHeader, SourceHeaders:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown extraction source %q (use resp-content, resp-header or resp-headers)", s)
}

// IsHeader reports whether the source reads the header dump.
func (s Source) IsHeader() bool {
	return s == SourceHeader || s == SourceHeaders
}

// Host performs the fetch of a check and answers extraction queries against
// the most recent response.
type Host interface {
	// Open fetches url and makes its response the target of Extract.
	Open(ctx context.Context, url string) error

	// Extract returns the text of source matching pattern, or "" when
	// nothing matches. An error means the query itself could not run.
	Extract(source Source, pattern string) (string, error)
}

// Sink receives published values. Calls are one-way.
type Sink interface {
	SetTracepoint(name, value string)
	SetIndicator(name string, value float64)
}

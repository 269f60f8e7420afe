package publish

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is wrapped by ParseError when the text is valid JSON but not
// an object.
var ErrNotObject = errors.New("JSON value is not an object")

// ParseError reports a body that could not be read as a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// syntaxError produces a readable message for invalid JSON.
func syntaxError(text string) error {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) {
			return fmt.Errorf("invalid JSON at offset %d: %w", se.Offset, err)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return errors.New("invalid JSON")
}

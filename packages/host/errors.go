package host

import "fmt"

// ExtractionError reports an extraction query that could not run, such as
// one with an invalid pattern.
type ExtractionError struct {
	Source  Source
	Pattern string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s %q: %v", e.Source, e.Pattern, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

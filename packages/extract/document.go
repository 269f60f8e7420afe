package extract

import (
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/pattern"
)

// document is the extractable view of one response. Header queries answer
// with whole header lines; body queries answer with the match itself.
type document struct {
	headers string
	body    string
}

func (d *document) extract(source host.Source, p string) (string, error) {
	c, err := pattern.Compile(p)
	if err != nil {
		return "", &host.ExtractionError{Source: source, Pattern: p, Err: err}
	}

	switch {
	case source == host.SourceContent:
		return c.Find(d.body), nil
	case source.IsHeader():
		return c.FindLines(d.headers), nil
	}
	return "", &host.ExtractionError{Source: source, Pattern: p, Err: errUnknownSource}
}

package headers

import (
	"strings"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/pattern"
)

// Null is published when no header line matches.
const Null = "NULL"

// AllHeaders asks the host for the complete header dump.
const AllHeaders = "(?s).*"

// Extractor runs header extractions against a host.
type Extractor struct {
	host host.Host
}

func NewExtractor(h host.Host) *Extractor {
	return &Extractor{host: h}
}

// ExtractFields returns the header lines matching p as "[l1,l2,...]", or
// Null. Every header line matching p case-insensitively is returned, in dump
// order, whether or not p carries the g flag. The pattern query runs first
// so its errors surface; the lines themselves come from the full dump, or
// from the pattern's own result when the host returns no dump.
func (e *Extractor) ExtractFields(p string) (string, error) {
	re, err := pattern.CompileFold(p)
	if err != nil {
		return "", &host.ExtractionError{Source: host.SourceHeader, Pattern: p, Err: err}
	}

	direct, err := e.host.Extract(host.SourceHeader, p)
	if err != nil {
		return "", err
	}
	all, err := e.host.Extract(host.SourceHeader, AllHeaders)
	if err != nil {
		return "", err
	}

	lines := Filter(Split(all), re)
	if len(lines) == 0 {
		lines = Filter(Split(direct), re)
	}
	return Format(lines), nil
}

// Publish extracts p and sets it as tracepoint name. An extraction error is
// published under the same name in place of the value.
func (e *Extractor) Publish(sink host.Sink, name, p string) (string, error) {
	result, err := e.ExtractFields(p)
	if err != nil {
		sink.SetTracepoint(name, err.Error())
		return "", err
	}
	sink.SetTracepoint(name, result)
	return result, nil
}

// Matcher is satisfied by *pattern.Pattern and *regexp.Regexp.
type Matcher interface {
	MatchString(s string) bool
}

// Filter keeps the lines whose raw text m matches.
func Filter(blob Blob, m Matcher) Blob {
	var out Blob
	for _, l := range blob {
		if m.MatchString(l.Raw) {
			out = append(out, l)
		}
	}
	return out
}

// Format renders lines as "[l1,l2,...]", or Null when there are none.
func Format(lines Blob) string {
	if len(lines) == 0 {
		return Null
	}
	raw := make([]string, len(lines))
	for i, l := range lines {
		raw[i] = l.Raw
	}
	return "[" + strings.Join(raw, ",") + "]"
}

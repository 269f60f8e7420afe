package headers

import (
	"strings"
)

// Line is one line of a header dump.
type Line struct {
	Raw   string
	Name  string
	Value string
}

// Blob is a header dump split into lines, in dump order.
type Blob []Line

// ParseLine splits raw on its first ':'. A line without one is all name.
func ParseLine(raw string) Line {
	name, value, found := strings.Cut(raw, ":")
	if !found {
		return Line{Raw: raw, Name: raw}
	}
	return Line{Raw: raw, Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
}

// Split breaks a header dump on "\n". Trailing "\r" is dropped and blank
// lines are skipped.
func Split(dump string) Blob {
	if dump == "" {
		return nil
	}
	parts := strings.Split(dump, "\n")
	blob := make(Blob, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if strings.TrimSpace(p) == "" {
			continue
		}
		blob = append(blob, ParseLine(p))
	}
	return blob
}

// Get returns the value of the first line named name, compared
// case-insensitively.
func (b Blob) Get(name string) (string, bool) {
	for _, l := range b {
		if strings.EqualFold(l.Name, name) {
			return l.Value, true
		}
	}
	return "", false
}

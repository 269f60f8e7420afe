package host

import (
	"sync"
)

// Kind distinguishes tracepoints from indicators in a recording.
type Kind string

const (
	Tracepoint Kind = "tracepoint"
	Indicator  Kind = "indicator"
)

// Entry is one recorded publish call.
type Entry struct {
	Kind   Kind    `json:"kind"`
	Name   string  `json:"name"`
	Text   string  `json:"text,omitempty"`
	Number float64 `json:"number,omitempty"`
}

// Value renders the entry's value as text.
func (e Entry) Value() string {
	if e.Kind == Indicator {
		return formatNumber(e.Number)
	}
	return e.Text
}

// Recorder is a Sink that keeps every call in order. It can forward to
// another Sink while recording.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	next    Sink
}

// NewRecorder creates a Recorder forwarding to next, which may be nil.
func NewRecorder(next Sink) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) SetTracepoint(name, value string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Kind: Tracepoint, Name: name, Text: value})
	r.mu.Unlock()
	if r.next != nil {
		r.next.SetTracepoint(name, value)
	}
}

func (r *Recorder) SetIndicator(name string, value float64) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Kind: Indicator, Name: name, Number: value})
	r.mu.Unlock()
	if r.next != nil {
		r.next.SetIndicator(name, value)
	}
}

// Entries returns a copy of the recorded calls.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Tracepoint returns the last value published under name.
func (r *Recorder) Tracepoint(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.Kind == Tracepoint && e.Name == name {
			return e.Text, true
		}
	}
	return "", false
}

// Indicator returns the last value published under name.
func (r *Recorder) Indicator(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.Kind == Indicator && e.Name == name {
			return e.Number, true
		}
	}
	return 0, false
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

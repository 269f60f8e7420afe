package check

import (
	"time"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

// Result describes one finished run.
type Result struct {
	RunID    string        `json:"run_id"`
	URL      string        `json:"url"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	// Entries holds every publish in the order it was made.
	Entries []host.Entry `json:"entries"`
	// Errors names the diagnostic tracepoints the run set.
	Errors []string `json:"errors,omitempty"`
	Fields int      `json:"fields"`
}

// Failed reports whether any diagnostic tracepoint was set.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Tracepoint returns the last value published for name.
func (r *Result) Tracepoint(name string) (string, bool) {
	for i := len(r.Entries) - 1; i >= 0; i-- {
		if e := r.Entries[i]; e.Kind == host.Tracepoint && e.Name == name {
			return e.Text, true
		}
	}
	return "", false
}

// Indicators returns the numeric publishes of the run by name.
func (r *Result) Indicators() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range r.Entries {
		if e.Kind == host.Indicator {
			out[e.Name] = e.Number
		}
	}
	return out
}

// ErrorMessages returns "name: message" for each diagnostic tracepoint.
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, name := range r.Errors {
		v, _ := r.Tracepoint(name)
		msgs = append(msgs, name+": "+v)
	}
	return msgs
}

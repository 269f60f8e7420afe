package sink

import (
	"errors"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// Sink is a publishing back-end.
type Sink interface {
	host.Sink

	// EndRun is called after each check run with its result
	EndRun(res *check.Result) error

	// Flush is called once all runs are done
	Flush(summary *stats.Summary) error

	// Close releases the sink's resources
	Close() error
}

// Multi fans every call out to several sinks.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends s.
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) SetTracepoint(name, value string) {
	for _, s := range m.sinks {
		s.SetTracepoint(name, value)
	}
}

func (m *Multi) SetIndicator(name string, value float64) {
	for _, s := range m.sinks {
		s.SetIndicator(name, value)
	}
}

// EndRun reaches every sink and joins their errors.
func (m *Multi) EndRun(res *check.Result) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.EndRun(res))
	}
	return errors.Join(errs...)
}

func (m *Multi) Flush(summary *stats.Summary) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Flush(summary))
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

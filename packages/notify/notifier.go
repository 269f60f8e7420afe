// Package notify sends check run summaries to chat webhooks.
package notify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when a run set a diagnostic
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when every run was clean
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and on the first clean run after one
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a policy name. An empty name means NotifyFailure.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch n := NotifyOn(s); n {
	case "":
		return NotifyFailure, nil
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return n, nil
	}
	return "", fmt.Errorf("unknown notify policy %q", s)
}

// RunSummary is what a notification reports.
type RunSummary struct {
	URL        string        `json:"url"`
	RunID      string        `json:"run_id,omitempty"`
	Runs       int64         `json:"runs"`
	Passed     int64         `json:"passed"`
	Failed     int64         `json:"failed"`
	Duration   time.Duration `json:"duration"`
	Errors     []string      `json:"errors,omitempty"`
	Indicators []stats.Stat  `json:"indicators,omitempty"`
	IsRecovery bool          `json:"is_recovery,omitempty"`
}

// FromStats builds a RunSummary. Errors are taken from the latest run.
func FromStats(s *stats.Summary) *RunSummary {
	rs := &RunSummary{
		URL:        s.URL,
		Runs:       s.Runs,
		Passed:     s.Passed(),
		Failed:     s.Failed,
		Duration:   s.Ended.Sub(s.Started),
		Indicators: s.Indicators,
	}
	if s.Last != nil {
		rs.RunID = s.Last.RunID
		rs.Errors = s.Last.ErrorMessages()
		if s.Runs == 1 {
			rs.Duration = s.Last.Duration
		}
	}
	return rs
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about check results
	Notify(summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	mu        sync.Mutex
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// Len returns the number of notifiers
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifiers)
}

// ShouldNotify applies the policy to summary and records its outcome for
// recovery detection.
func (m *Manager) ShouldNotify(summary *RunSummary) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	shouldNotify := false
	currentSuccess := summary.Failed == 0

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = summary.Failed > 0
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if summary.Failed > 0 {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess
	return shouldNotify
}

// Notify sends notifications based on the configured policy
func (m *Manager) Notify(summary *RunSummary) error {
	if !m.ShouldNotify(summary) {
		return nil
	}

	m.mu.Lock()
	notifiers := append([]Notifier(nil), m.notifiers...)
	m.mu.Unlock()

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

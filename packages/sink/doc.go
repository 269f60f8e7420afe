// Package sink provides publishing back-ends for check runs.
//
// A Sink receives every tracepoint and indicator as it is published, is told
// when each run ends, and is flushed once with the aggregate summary.
package sink

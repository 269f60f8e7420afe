// Package headers selects response header lines by name pattern and
// publishes them as a single tracepoint.
//
// An extraction asks the host for the lines matching a pattern directly and
// falls back to filtering the full header dump line by line when the direct
// query finds nothing. The surviving lines are rendered as "[l1,l2,...]", or
// as the sentinel "NULL" when none match.
package headers

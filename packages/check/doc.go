// Package check runs one heartbeat check: fetch the diagnostic endpoint,
// publish its JSON body field by field, then publish the configured header
// groups and the decoded Akamai-Request-BC header.
//
// Failures inside a run never abort it. They are published as diagnostic
// tracepoints (FETCH_ERROR, parse_error, PARSE_ERROR, SCHEMA_ERROR, or the
// header group's own name) and collected in Result.Errors.
package check

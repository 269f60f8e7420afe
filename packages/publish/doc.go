// Package publish republishes the fields of a JSON object as tracepoints and
// indicators.
//
// Keys are visited in document order. Numbers, and strings that hold a
// finite decimal number, become indicators; every other value becomes a
// tracepoint. An empty string is published as the sentinel "NULL". Text
// that is not a JSON object produces a single PARSE_ERROR tracepoint and
// nothing else.
package publish

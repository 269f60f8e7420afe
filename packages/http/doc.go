// Package http fetches the diagnostic endpoint a check run reads.
//
// A Client issues one GET per fetch and reads the whole body, capped at a
// configurable size. Any HTTP status comes back as a Response so the
// caller can still extract from an error page; only transport failures
// are returned as errors. Response.HeaderDump renders every header value
// as the "Name: Value" text that header patterns run over.
package http

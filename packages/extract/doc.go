// Package extract answers the monitoring agent's extraction queries against
// a fetched HTTP response.
//
// Session fetches through packages/http and keeps the response for the rest
// of the check run. Offline serves the same queries from a saved header dump
// and body, which is how checks are replayed without network access.
package extract

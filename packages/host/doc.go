// Package host defines the capabilities a check run consumes from its
// monitoring agent.
//
// A check never talks to the network or to a dashboard directly. It is
// handed a Host, which fetches a URL and answers extraction queries against
// the fetched response, and a Sink, which receives tracepoints and
// indicators. The CLI wires real implementations; tests wire fakes and the
// in-memory Recorder.
package host

package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// JSON collects publishes and writes one document on Flush.
type JSON struct {
	mu       sync.Mutex
	writer   io.Writer
	filePath string
	pretty   bool
	version  string

	pendingTP []JSONTracepoint
	pendingIN []JSONIndicator
	output    JSONOutput
}

type JSONOption func(*JSON)

// WithJSONWriter sets the output writer
func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSON) {
		j.writer = w
	}
}

// WithJSONFile sets the output file
func WithJSONFile(path string) JSONOption {
	return func(j *JSON) {
		j.filePath = path
	}
}

// WithJSONPretty enables pretty-printed output
func WithJSONPretty(pretty bool) JSONOption {
	return func(j *JSON) {
		j.pretty = pretty
	}
}

func WithJSONVersion(v string) JSONOption {
	return func(j *JSON) {
		j.version = v
	}
}

func NewJSON(opts ...JSONOption) *JSON {
	j := &JSON{pretty: true, version: "dev"}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JSONOutput is the document written by the JSON sink.
type JSONOutput struct {
	Metadata    JSONMetadata     `json:"metadata"`
	Tracepoints []JSONTracepoint `json:"tracepoints"`
	Indicators  []JSONIndicator  `json:"indicators"`
	Summary     *stats.Summary   `json:"summary,omitempty"`
}

type JSONMetadata struct {
	RunID       string   `json:"run_id"`
	RunIDs      []string `json:"run_ids"`
	URL         string   `json:"url"`
	GeneratedAt string   `json:"generated_at"`
	StartTime   string   `json:"start_time,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Version     string   `json:"version"`
}

type JSONTracepoint struct {
	RunID string `json:"run_id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type JSONIndicator struct {
	RunID string  `json:"run_id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (j *JSON) SetTracepoint(name, value string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pendingTP = append(j.pendingTP, JSONTracepoint{Name: name, Value: value})
}

func (j *JSON) SetIndicator(name string, value float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pendingIN = append(j.pendingIN, JSONIndicator{Name: name, Value: value})
}

// EndRun stamps the publishes made since the previous run with res.RunID.
func (j *JSON) EndRun(res *check.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := range j.pendingTP {
		j.pendingTP[i].RunID = res.RunID
	}
	for i := range j.pendingIN {
		j.pendingIN[i].RunID = res.RunID
	}
	j.output.Tracepoints = append(j.output.Tracepoints, j.pendingTP...)
	j.output.Indicators = append(j.output.Indicators, j.pendingIN...)
	j.pendingTP, j.pendingIN = nil, nil

	m := &j.output.Metadata
	if len(m.RunIDs) == 0 {
		m.StartTime = res.Started.Format(time.RFC3339)
	}
	m.RunID = res.RunID
	m.RunIDs = append(m.RunIDs, res.RunID)
	m.URL = res.URL
	m.Duration = res.Duration.String()
	m.Errors = res.Errors
	return nil
}

// Flush writes the document to the configured file and writer.
func (j *JSON) Flush(summary *stats.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := j.output
	out.Metadata.GeneratedAt = time.Now().Format(time.RFC3339)
	out.Metadata.Version = j.version
	if out.Tracepoints == nil {
		out.Tracepoints = []JSONTracepoint{}
	}
	if out.Indicators == nil {
		out.Indicators = []JSONIndicator{}
	}
	if summary != nil && summary.Runs > 1 {
		out.Summary = summary
		out.Metadata.Duration = summary.Ended.Sub(summary.Started).String()
	}

	var data []byte
	var err error
	if j.pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if j.filePath != "" {
		if err := os.WriteFile(j.filePath, data, 0644); err != nil {
			return fmt.Errorf("failed to write results file: %w", err)
		}
	}

	if j.writer != nil {
		if _, err := j.writer.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	return nil
}

func (j *JSON) Close() error {
	return nil
}

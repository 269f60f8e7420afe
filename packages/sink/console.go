package sink

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/heartbeat/packages/akamai"
	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// diagnostics are the tracepoint names printed as errors.
var diagnostics = map[string]bool{
	check.FetchErrorName:    true,
	check.BodyErrorName:     true,
	publish.ParseErrorName:  true,
	publish.SchemaErrorName: true,
	akamai.ErrorName:        true,
}

func init() {
	for _, ih := range akamai.InfoHeaders {
		diagnostics[ih.ErrorName] = true
	}
}

// formatValue truncates long values for display
func formatValue(v string, maxLen int) string {
	if maxLen > 0 && len(v) > maxLen {
		return v[:maxLen] + "..."
	}
	return v
}

// Console prints publishes as they happen.
type Console struct {
	mu      sync.Mutex
	writer  io.Writer
	verbose bool
	noColor bool
	maxLen  int
}

type ConsoleOption func(*Console)

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stdout,
		maxLen: 120,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noColor {
		color.NoColor = true
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

// WithVerbose prints values untruncated.
func WithVerbose(v bool) ConsoleOption {
	return func(c *Console) {
		c.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = nc
	}
}

func (c *Console) value(v string) string {
	if c.verbose {
		return v
	}
	return formatValue(v, c.maxLen)
}

func (c *Console) SetTracepoint(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if diagnostics[name] {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(c.writer, "  %s %s = %s\n", red("x"), red(name), red(c.value(value)))
		return
	}
	dim := color.New(color.FgHiBlack).SprintFunc()
	if value == publish.Null {
		value = dim(value)
	} else {
		value = c.value(value)
	}
	fmt.Fprintf(c.writer, "  %s %s = %s\n", dim("tp"), name, value)
}

func (c *Console) SetIndicator(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(c.writer, "  %s %s = %s\n", cyan("in"), name, cyan(host.FormatNumber(value)))
}

func (c *Console) EndRun(res *check.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	symbol := green("✓")
	if res.Failed() {
		symbol = red("✗")
	}
	fmt.Fprintf(c.writer, "%s %s %s (%dms, %d published",
		symbol, bold(res.URL), res.RunID, res.Duration.Milliseconds(), len(res.Entries))
	if res.Failed() {
		fmt.Fprintf(c.writer, ", %s", red(fmt.Sprintf("%d error(s)", len(res.Errors))))
	}
	fmt.Fprintf(c.writer, ")\n\n")
	return nil
}

// Flush prints the summary of a repeated run. A single run prints nothing
// more.
func (c *Console) Flush(summary *stats.Summary) error {
	if summary == nil || summary.Runs < 2 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(c.writer, "%s\n", bold("Summary"))
	fmt.Fprintf(c.writer, "Runs:      %s, ", green(fmt.Sprintf("%d passed", summary.Passed())))
	if summary.Failed > 0 {
		fmt.Fprintf(c.writer, "%s, ", red(fmt.Sprintf("%d failed", summary.Failed)))
	}
	fmt.Fprintf(c.writer, "%d total\n", summary.Runs)
	d := summary.DurationMs
	fmt.Fprintf(c.writer, "Duration:  min %.1fms  p50 %.1fms  p95 %.1fms  max %.1fms\n", d.Min, d.P50, d.P95, d.Max)

	for _, st := range summary.Indicators {
		fmt.Fprintf(c.writer, "  %-24s n=%d min=%s mean=%s p95=%s max=%s\n",
			st.Name, st.Count,
			host.FormatNumber(st.Min), host.FormatNumber(st.Mean),
			host.FormatNumber(st.P95), host.FormatNumber(st.Max))
	}
	for _, name := range sortedNames(summary.Errors) {
		fmt.Fprintf(c.writer, "  %s %s x%d\n", red("x"), name, summary.Errors[name])
	}
	fmt.Fprintln(c.writer)
	return nil
}

func (c *Console) Close() error {
	return nil
}

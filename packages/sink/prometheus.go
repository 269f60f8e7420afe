package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/logging"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// Prometheus exposes the publishes of the last completed run in the
// Prometheus text format, written on Flush and optionally served on /metrics.
// Publishes are staged until EndRun, so names a later run no longer sets are
// dropped from the exposition.
type Prometheus struct {
	mu          sync.RWMutex
	tracepoints map[string]string
	indicators  map[string]float64
	pendingTP   map[string]string
	pendingIN   map[string]float64
	runs        int64
	failed      int64
	lastErrors  []string
	durationSec float64
	summary     *stats.Summary

	writer   io.Writer
	filePath string
	listen   string
	server   *http.Server
	addr     net.Addr
	logger   *slog.Logger
}

// PrometheusOption is a functional option for Prometheus
type PrometheusOption func(*Prometheus)

// WithPrometheusWriter writes the exposition to w on Flush
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *Prometheus) {
		p.writer = w
	}
}

// WithPrometheusFile writes the exposition to path on Flush, for the node
// exporter textfile collector.
func WithPrometheusFile(path string) PrometheusOption {
	return func(p *Prometheus) {
		p.filePath = path
	}
}

// WithPrometheusListen serves /metrics and /healthz on addr
func WithPrometheusListen(addr string) PrometheusOption {
	return func(p *Prometheus) {
		p.listen = addr
	}
}

func WithPrometheusLogger(l *slog.Logger) PrometheusOption {
	return func(p *Prometheus) {
		p.logger = l
	}
}

// NewPrometheus creates the sink and starts its HTTP endpoint if one is
// configured.
func NewPrometheus(opts ...PrometheusOption) (*Prometheus, error) {
	p := &Prometheus{
		tracepoints: make(map[string]string),
		indicators:  make(map[string]float64),
		pendingTP:   make(map[string]string),
		pendingIN:   make(map[string]float64),
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.listen != "" {
		if err := p.startHTTPServer(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) startHTTPServer() error {
	ln, err := net.Listen("tcp", p.listen)
	if err != nil {
		return fmt.Errorf("prometheus listen %s: %w", p.listen, err)
	}
	p.addr = ln.Addr()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/metrics", p.handleMetrics)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	p.server = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("prometheus HTTP server error", "error", err)
		}
	}()
	p.logger.Info("serving metrics", "addr", p.addr.String())
	return nil
}

// Addr is the address /metrics is served on, or nil.
func (p *Prometheus) Addr() net.Addr {
	return p.addr
}

func (p *Prometheus) handleMetrics(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	p.writeMetrics(w)
}

func (p *Prometheus) SetTracepoint(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingTP[name] = value
}

func (p *Prometheus) SetIndicator(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingIN[name] = value
}

func (p *Prometheus) EndRun(res *check.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracepoints, p.pendingTP = p.pendingTP, make(map[string]string)
	p.indicators, p.pendingIN = p.pendingIN, make(map[string]float64)

	p.runs++
	if res.Failed() {
		p.failed++
	}
	p.lastErrors = res.Errors
	p.durationSec = res.Duration.Seconds()
	return nil
}

// Flush writes the exposition to the configured file and writer.
func (p *Prometheus) Flush(summary *stats.Summary) error {
	p.mu.Lock()
	p.summary = summary
	p.mu.Unlock()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.filePath != "" {
		var b strings.Builder
		p.writeMetrics(&b)
		if err := os.WriteFile(p.filePath, []byte(b.String()), 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if p.writer != nil {
		p.writeMetrics(p.writer)
	}
	return nil
}

func (p *Prometheus) writeMetrics(w io.Writer) {
	fmt.Fprintf(w, "# HELP heartbeat_runs_total Total number of check runs\n")
	fmt.Fprintf(w, "# TYPE heartbeat_runs_total counter\n")
	fmt.Fprintf(w, "heartbeat_runs_total %d\n", p.runs)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP heartbeat_runs_failed_total Check runs that set a diagnostic tracepoint\n")
	fmt.Fprintf(w, "# TYPE heartbeat_runs_failed_total counter\n")
	fmt.Fprintf(w, "heartbeat_runs_failed_total %d\n", p.failed)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP heartbeat_check_duration_seconds Duration of the last check run\n")
	fmt.Fprintf(w, "# TYPE heartbeat_check_duration_seconds gauge\n")
	fmt.Fprintf(w, "heartbeat_check_duration_seconds %g\n", p.durationSec)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP heartbeat_check_error Diagnostic tracepoints set by the last check run\n")
	fmt.Fprintf(w, "# TYPE heartbeat_check_error gauge\n")
	for _, name := range p.lastErrors {
		fmt.Fprintf(w, "heartbeat_check_error{name=\"%s\"} 1\n", sanitizeLabel(name))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP heartbeat_indicator Last published value of each indicator\n")
	fmt.Fprintf(w, "# TYPE heartbeat_indicator gauge\n")
	for _, name := range sortedNames(p.indicators) {
		fmt.Fprintf(w, "heartbeat_indicator{name=\"%s\"} %g\n", sanitizeLabel(name), p.indicators[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP heartbeat_tracepoint_info Last published value of each tracepoint\n")
	fmt.Fprintf(w, "# TYPE heartbeat_tracepoint_info gauge\n")
	for _, name := range sortedNames(p.tracepoints) {
		fmt.Fprintf(w, "heartbeat_tracepoint_info{name=\"%s\",value=\"%s\"} 1\n",
			sanitizeLabel(name), sanitizeLabel(p.tracepoints[name]))
	}

	if p.summary == nil || p.summary.Runs < 2 || len(p.summary.Indicators) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "# HELP heartbeat_indicator_quantile Indicator distribution across repeated runs\n")
	fmt.Fprintf(w, "# TYPE heartbeat_indicator_quantile gauge\n")
	for _, st := range p.summary.Indicators {
		name := sanitizeLabel(st.Name)
		for _, q := range []struct {
			label string
			value float64
		}{{"min", st.Min}, {"0.50", st.P50}, {"0.95", st.P95}, {"0.99", st.P99}, {"max", st.Max}} {
			fmt.Fprintf(w, "heartbeat_indicator_quantile{name=\"%s\",quantile=\"%s\"} %g\n", name, q.label, q.value)
		}
	}
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the HTTP endpoint
func (p *Prometheus) Close() error {
	if p.server != nil {
		return p.server.Close()
	}
	return nil
}

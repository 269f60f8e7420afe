package check

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/heartbeat/packages/akamai"
	"github.com/abdul-hamid-achik/heartbeat/packages/headers"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/logging"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
)

// linePattern finds the line of header name in the header dump.
func linePattern(name string) string {
	return `(?im)^` + regexp.QuoteMeta(name) + `:`
}

// Runner executes a Check.
type Runner struct {
	check     Check
	publisher *publish.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type RunnerOption func(*Runner)

func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

func NewRunner(c Check, opts ...RunnerOption) *Runner {
	r := &Runner{
		check:  c,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	var popts []publish.Option
	if c.Schema != nil {
		popts = append(popts, publish.WithSchema(c.Schema))
	}
	r.publisher = publish.NewPublisher(popts...)
	return r
}

// Check returns the definition the runner executes.
func (r *Runner) Check() Check {
	return r.check
}

// Run fetches the check URL through h and publishes everything to sink.
// Only a failed fetch is returned as an error; every other failure becomes
// a diagnostic tracepoint and the run continues.
func (r *Runner) Run(ctx context.Context, h host.Host, sink host.Sink) (*Result, error) {
	rec := host.NewRecorder(sink)
	res := &Result{
		RunID:   uuid.NewString(),
		URL:     r.check.URL,
		Started: r.now(),
	}
	log := r.logger.With("run_id", res.RunID, "url", r.check.URL)
	finish := func() {
		res.Duration = r.now().Sub(res.Started)
		res.Entries = rec.Entries()
	}

	log.Debug("opening")
	if err := h.Open(ctx, r.check.URL); err != nil {
		log.Error("fetch failed", "error", err)
		rec.SetTracepoint(FetchErrorName, err.Error())
		res.Errors = append(res.Errors, FetchErrorName)
		finish()
		return res, err
	}

	r.publishBody(log, h, rec, res)

	ex := headers.NewExtractor(h)
	for _, g := range r.check.HeaderGroups {
		value, err := ex.Publish(rec, g.Name, g.Pattern)
		if err != nil {
			log.Warn("header extraction failed", "group", g.Name, "error", err)
			res.Errors = append(res.Errors, g.Name)
			continue
		}
		log.Debug("header group published", "group", g.Name, "value", value)
	}

	if r.check.RequestBC {
		r.publishRequestBC(log, h, rec, res)
	}
	if r.check.InfoHeaders {
		for _, ih := range akamai.InfoHeaders {
			r.publishInfoHeader(log, h, rec, res, ih)
		}
	}

	finish()
	log.Info("check finished",
		"duration", res.Duration,
		"publishes", len(res.Entries),
		"errors", len(res.Errors))
	return res, nil
}

func (r *Runner) publishBody(log *slog.Logger, h host.Host, sink host.Sink, res *Result) {
	body, err := h.Extract(host.SourceContent, r.check.bodyPattern())
	if err != nil {
		log.Warn("body extraction failed", "error", err)
		sink.SetTracepoint(BodyErrorName, err.Error())
		res.Errors = append(res.Errors, BodyErrorName)
		return
	}
	sink.SetTracepoint(r.check.bodyTracepoint(), body)

	published, err := r.publisher.Publish(sink, body)
	if err != nil {
		log.Warn("body is not a JSON object", "error", err)
		res.Errors = append(res.Errors, publish.ParseErrorName)
		return
	}
	if published.SchemaViolation != "" {
		log.Warn("body violates schema", "violation", published.SchemaViolation)
		res.Errors = append(res.Errors, publish.SchemaErrorName)
	}
	res.Fields = len(published.Fields)
	log.Debug("body published", "fields", res.Fields)
}

func (r *Runner) publishRequestBC(log *slog.Logger, h host.Host, sink host.Sink, res *Result) {
	line, err := h.Extract(host.SourceHeader, linePattern(akamai.HeaderName))
	if err != nil {
		log.Warn("request-bc extraction failed", "error", err)
		sink.SetTracepoint(akamai.ErrorName, err.Error())
		res.Errors = append(res.Errors, akamai.ErrorName)
		return
	}
	if line == "" {
		log.Debug("no request-bc header")
		return
	}

	bc, err := akamai.Publish(sink, headers.ParseLine(line).Value)
	if err != nil {
		log.Warn("request-bc decode failed", "error", err)
		res.Errors = append(res.Errors, akamai.ErrorName)
		return
	}
	log.Debug("request-bc decoded", "location", bc.Location(), "asn", bc.ASN())
}

func (r *Runner) publishInfoHeader(log *slog.Logger, h host.Host, sink host.Sink, res *Result, ih akamai.InfoHeader) {
	log = log.With("header", ih.Header)
	line, err := h.Extract(host.SourceHeader, linePattern(ih.Header))
	if err != nil {
		log.Warn("info header extraction failed", "error", err)
		sink.SetTracepoint(ih.ErrorName, err.Error())
		res.Errors = append(res.Errors, ih.ErrorName)
		return
	}
	if line == "" {
		return
	}

	d, err := ih.Publish(sink, headers.ParseLine(line).Value)
	switch {
	case err != nil:
		log.Warn("info header decode failed", "error", err)
		res.Errors = append(res.Errors, ih.ErrorName)
	case d.Withheld:
		log.Debug("info header withheld")
	default:
		if len(d.Unmapped) > 0 {
			log.Debug("info header keys skipped", "keys", d.Unmapped)
		}
		log.Debug("info header decoded", "fields", len(d.Published))
	}
}

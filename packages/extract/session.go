package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/http"
)

// Session is a host.Host backed by a live HTTP client.
type Session struct {
	client  *http.Client
	headers map[string]string
	logger  *slog.Logger

	resp *http.Response
	doc  *document
}

type SessionOption func(*Session)

// WithRequestHeaders sets headers sent with every Open
func WithRequestHeaders(headers map[string]string) SessionOption {
	return func(s *Session) {
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

func NewSession(client *http.Client, opts ...SessionOption) *Session {
	s := &Session{
		client:  client,
		headers: make(map[string]string),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open fetches url. A failed fetch clears any previous response.
func (s *Session) Open(ctx context.Context, url string) error {
	s.resp, s.doc = nil, nil

	resp, err := s.client.Fetch(ctx, url, s.headers)
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}

	s.logger.Debug("fetched",
		"url", url,
		"final_url", resp.FinalURL,
		"status", resp.StatusCode,
		"duration_ms", resp.DurationMs(),
		"bytes", len(resp.Body),
	)
	if resp.Truncated {
		s.logger.Warn("body truncated", "url", url, "bytes", len(resp.Body))
	}

	s.resp = resp
	s.doc = &document{headers: resp.HeaderDump(), body: resp.BodyString()}
	return nil
}

func (s *Session) Extract(source host.Source, p string) (string, error) {
	if s.doc == nil {
		return "", &host.ExtractionError{Source: source, Pattern: p, Err: ErrNotOpened}
	}
	return s.doc.extract(source, p)
}

// Response returns the last fetched response, or nil.
func (s *Session) Response() *http.Response {
	return s.resp
}

package http

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

// Response is a fully read fetch result.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	// FinalURL is the URL that produced this response, after redirects.
	FinalURL  string
	Headers   http.Header
	Body      []byte
	Truncated bool
	Duration  time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the first value of key, matched case-insensitively.
// Edge debug headers such as AK_REGION are not canonical, so Get alone
// can miss them.
func (r *Response) Header(key string) string {
	if v := r.Headers.Get(key); v != "" {
		return v
	}
	for k, vals := range r.Headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// HeaderDump renders the headers as "Name: Value" lines joined by "\n".
// Names are sorted; a header with several values yields one line per value.
func (r *Response) HeaderDump() string {
	names := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, v := range r.Headers[name] {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
		}
	}
	return b.String()
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

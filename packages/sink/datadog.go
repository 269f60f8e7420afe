package sink

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

// maxTagLen is DataDog's limit on a single tag.
const maxTagLen = 200

// DataDog submits each run's publishes to the DataDog series API
type DataDog struct {
	apiKey   string
	site     string // e.g., "datadoghq.com", "datadoghq.eu"
	endpoint string
	tags     []string
	prefix   string
	client   *resty.Client

	mu      sync.Mutex
	pending []datadogMetric
}

// DataDogOption is a functional option for DataDog
type DataDogOption func(*DataDog)

// WithDataDogAPIKey sets the DataDog API key
func WithDataDogAPIKey(apiKey string) DataDogOption {
	return func(d *DataDog) {
		d.apiKey = apiKey
	}
}

// WithDataDogSite sets the DataDog site (e.g., "datadoghq.com", "datadoghq.eu")
func WithDataDogSite(site string) DataDogOption {
	return func(d *DataDog) {
		if site != "" {
			d.site = site
		}
	}
}

// WithDataDogEndpoint overrides the series URL derived from the site
func WithDataDogEndpoint(url string) DataDogOption {
	return func(d *DataDog) {
		d.endpoint = url
	}
}

// WithDataDogTags sets additional tags for all metrics
func WithDataDogTags(tags []string) DataDogOption {
	return func(d *DataDog) {
		d.tags = tags
	}
}

// WithDataDogPrefix sets a prefix for metric names
func WithDataDogPrefix(prefix string) DataDogOption {
	return func(d *DataDog) {
		d.prefix = prefix
	}
}

// NewDataDog creates a DataDog sink
func NewDataDog(opts ...DataDogOption) *DataDog {
	d := &DataDog{
		site:   "datadoghq.com",
		prefix: "heartbeat",
		client: resty.New().SetTimeout(10 * time.Second).SetHeader("Content-Type", "application/json"),
		tags:   make([]string, 0),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.apiKey == "" {
		d.apiKey = os.Getenv("DD_API_KEY")
	}

	return d
}

// datadogMetric represents a metric in DataDog format
type datadogMetric struct {
	Metric string   `json:"metric"`
	Type   string   `json:"type"`
	Points [][]any  `json:"points"`
	Tags   []string `json:"tags,omitempty"`
}

// datadogPayload is the payload sent to DataDog
type datadogPayload struct {
	Series []datadogMetric `json:"series"`
}

func (d *DataDog) SetTracepoint(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, datadogMetric{
		Metric: d.metricName("tracepoint"),
		Type:   "count",
		Points: [][]any{{float64(time.Now().Unix()), 1.0}},
		Tags:   d.withTags(tag("name", name), tag("value", value)),
	})
}

func (d *DataDog) SetIndicator(name string, value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, datadogMetric{
		Metric: d.metricName("indicator." + name),
		Type:   "gauge",
		Points: [][]any{{float64(time.Now().Unix()), value}},
		Tags:   d.withTags(),
	})
}

// EndRun sends the run's publishes together with its duration and errors.
func (d *DataDog) EndRun(res *check.Result) error {
	d.mu.Lock()
	series := d.pending
	d.pending = nil
	d.mu.Unlock()

	if d.apiKey == "" {
		return fmt.Errorf("DataDog API key not configured")
	}

	now := float64(res.Started.Add(res.Duration).Unix())
	result := "result:passed"
	if res.Failed() {
		result = "result:failed"
	}

	series = append(series, datadogMetric{
		Metric: d.metricName("check.duration"),
		Type:   "gauge",
		Points: [][]any{{now, float64(res.Duration.Milliseconds())}},
		Tags:   d.withTags(result),
	}, datadogMetric{
		Metric: d.metricName("check.runs"),
		Type:   "count",
		Points: [][]any{{now, 1.0}},
		Tags:   d.withTags(result),
	})
	for _, name := range res.Errors {
		series = append(series, datadogMetric{
			Metric: d.metricName("check.errors"),
			Type:   "count",
			Points: [][]any{{now, 1.0}},
			Tags:   d.withTags(tag("name", name)),
		})
	}

	return d.sendMetrics(series)
}

// Flush sends indicator percentiles for repeated runs.
func (d *DataDog) Flush(summary *stats.Summary) error {
	if summary == nil || summary.Runs < 2 {
		return nil
	}
	if d.apiKey == "" {
		return fmt.Errorf("DataDog API key not configured")
	}

	now := float64(summary.Ended.Unix())
	series := []datadogMetric{{
		Metric: d.metricName("summary.success_rate"),
		Type:   "gauge",
		Points: [][]any{{now, summary.SuccessRate()}},
		Tags:   d.withTags(),
	}}
	for _, st := range summary.Indicators {
		for _, q := range []struct {
			name  string
			value float64
		}{{"p50", st.P50}, {"p95", st.P95}, {"p99", st.P99}} {
			series = append(series, datadogMetric{
				Metric: d.metricName("summary." + st.Name + "." + q.name),
				Type:   "gauge",
				Points: [][]any{{now, q.value}},
				Tags:   d.withTags(),
			})
		}
	}
	return d.sendMetrics(series)
}

func (d *DataDog) metricName(name string) string {
	return d.prefix + "." + name
}

func (d *DataDog) withTags(extra ...string) []string {
	return append(extra, d.tags...)
}

// tag renders key:value within DataDog's tag limits.
func tag(key, value string) string {
	value = strings.NewReplacer(",", "_", " ", "_", "\n", "_", "\r", "").Replace(value)
	t := key + ":" + value
	if len(t) > maxTagLen {
		t = t[:maxTagLen]
	}
	return t
}

func (d *DataDog) seriesURL() string {
	if d.endpoint != "" {
		return d.endpoint
	}
	return fmt.Sprintf("https://api.%s/api/v1/series", d.site)
}

func (d *DataDog) sendMetrics(series []datadogMetric) error {
	resp, err := d.client.R().
		SetHeader("DD-API-KEY", d.apiKey).
		SetBody(datadogPayload{Series: series}).
		Post(d.seriesURL())
	if err != nil {
		return fmt.Errorf("failed to send metrics: %w", err)
	}

	if resp.StatusCode() != http.StatusAccepted && resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("DataDog API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// Close closes the DataDog sink
func (d *DataDog) Close() error {
	return nil
}

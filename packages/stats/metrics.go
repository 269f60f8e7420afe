package stats

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

const (
	// indicators are recorded as value*scale. A series starts at
	// initialScale and drops a decade at a time, down to minScale, when a
	// value would exceed maxIndicator.
	initialScale = 1000
	minScale     = 1e-9
	maxIndicator = 1_000_000_000_000
	// durations are recorded in microseconds, 1us to 10min
	maxDurationUs = 600_000_000
	sigFigs       = 3
)

// Stat summarizes one series of values.
type Stat struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Summary describes every run recorded by a Collector.
type Summary struct {
	URL        string           `json:"url"`
	Runs       int64            `json:"runs"`
	Failed     int64            `json:"failed"`
	RunIDs     []string         `json:"run_ids"`
	Started    time.Time        `json:"started"`
	Ended      time.Time        `json:"ended"`
	DurationMs Stat             `json:"duration_ms"`
	Indicators []Stat           `json:"indicators,omitempty"`
	Errors     map[string]int64 `json:"errors,omitempty"`
	// Last is the most recent run.
	Last *check.Result `json:"-"`
}

// Passed is the number of runs without diagnostics.
func (s *Summary) Passed() int64 {
	return s.Runs - s.Failed
}

// SuccessRate is Passed/Runs, or 0 before any run.
func (s *Summary) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Passed()) / float64(s.Runs)
}

// Indicator returns the stat named name.
func (s *Summary) Indicator(name string) (Stat, bool) {
	for _, st := range s.Indicators {
		if st.Name == name {
			return st, true
		}
	}
	return Stat{}, false
}

// Collector aggregates check results. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	url     string
	runs    int64
	failed  int64
	runIDs  []string
	started time.Time
	ended   time.Time
	last    *check.Result

	durations  *hdrhistogram.Histogram
	durSum     time.Duration
	indicators map[string]*series
	order      []string
	errors     map[string]int64
}

func NewCollector() *Collector {
	return &Collector{
		durations:  hdrhistogram.New(1, maxDurationUs, sigFigs),
		indicators: make(map[string]*series),
		errors:     make(map[string]int64),
	}
}

// Add records one finished run.
func (c *Collector) Add(res *check.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runs == 0 {
		c.started = res.Started
		c.url = res.URL
	}
	c.runs++
	c.runIDs = append(c.runIDs, res.RunID)
	c.ended = res.Started.Add(res.Duration)
	c.last = res

	if res.Failed() {
		c.failed++
	}
	for _, name := range res.Errors {
		c.errors[name]++
	}

	us := clamp(res.Duration.Microseconds(), 1, maxDurationUs)
	_ = c.durations.RecordValue(us)
	c.durSum += res.Duration

	for _, e := range res.Entries {
		if e.Kind != host.Indicator {
			continue
		}
		s, ok := c.indicators[e.Name]
		if !ok {
			s = newSeries()
			c.indicators[e.Name] = s
			c.order = append(c.order, e.Name)
		}
		s.record(e.Number)
	}
}

// Summary returns a snapshot of everything recorded so far.
func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		URL:     c.url,
		Runs:    c.runs,
		Failed:  c.failed,
		RunIDs:  append([]string(nil), c.runIDs...),
		Started: c.started,
		Ended:   c.ended,
		Errors:  make(map[string]int64, len(c.errors)),
		Last:    c.last,
	}
	for k, v := range c.errors {
		s.Errors[k] = v
	}

	s.DurationMs = Stat{Name: "duration_ms", Count: c.durations.TotalCount()}
	if c.runs > 0 {
		s.DurationMs.Min = usToMs(c.durations.Min())
		s.DurationMs.Max = usToMs(c.durations.Max())
		s.DurationMs.Mean = float64(c.durSum.Microseconds()) / float64(c.runs) / 1000
		s.DurationMs.P50 = usToMs(c.durations.ValueAtQuantile(50))
		s.DurationMs.P95 = usToMs(c.durations.ValueAtQuantile(95))
		s.DurationMs.P99 = usToMs(c.durations.ValueAtQuantile(99))
	}

	for _, name := range c.order {
		s.Indicators = append(s.Indicators, c.indicators[name].stat(name))
	}
	return s
}

// Reset discards everything recorded.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations.Reset()
	c.durSum = 0
	c.runs, c.failed = 0, 0
	c.runIDs = nil
	c.last = nil
	c.indicators = make(map[string]*series)
	c.order = nil
	c.errors = make(map[string]int64)
}

// series holds one indicator. Negative values go to a second histogram of
// magnitudes since HDR histograms only take non-negative values.
type series struct {
	pos, neg *hdrhistogram.Histogram
	scale    float64
	count    int64
	sum      float64
	min, max float64
}

func newSeries() *series {
	return &series{pos: hdrhistogram.New(1, maxIndicator, sigFigs), scale: initialScale}
}

func (s *series) record(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v

	mag := math.Abs(v)
	s.fit(mag)
	h := s.pos
	if v < 0 {
		if s.neg == nil {
			s.neg = hdrhistogram.New(1, maxIndicator, sigFigs)
		}
		h = s.neg
	}
	_ = h.RecordValue(s.scaled(mag))
}

// fit lowers the scale until mag fits, re-recording what is already held.
func (s *series) fit(mag float64) {
	next := s.scale
	for mag*next > maxIndicator && next > minScale {
		next /= 10
	}
	if next == s.scale {
		return
	}
	factor := s.scale / next
	s.pos = rescale(s.pos, factor)
	if s.neg != nil {
		s.neg = rescale(s.neg, factor)
	}
	s.scale = next
}

func rescale(h *hdrhistogram.Histogram, factor float64) *hdrhistogram.Histogram {
	out := hdrhistogram.New(1, maxIndicator, sigFigs)
	for _, bar := range h.Distribution() {
		if bar.Count == 0 {
			continue
		}
		mid := float64(bar.From+bar.To) / 2 / factor
		_ = out.RecordValues(int64(math.Round(mid)), bar.Count)
	}
	return out
}

// scaled converts a magnitude to a histogram value without overflowing int64.
func (s *series) scaled(mag float64) int64 {
	x := mag*s.scale + 0.5
	if x >= maxIndicator {
		return maxIndicator
	}
	return int64(x)
}

func (s *series) quantile(q float64) float64 {
	var n int64
	if s.neg != nil {
		n = s.neg.TotalCount()
	}
	rank := q / 100 * float64(s.count)
	if n > 0 && rank <= float64(n) {
		// the smallest values are the largest negative magnitudes
		mq := 100 * (1 - rank/float64(n))
		return -float64(s.neg.ValueAtQuantile(mq)) / s.scale
	}
	p := s.pos.TotalCount()
	if p == 0 {
		return 0
	}
	pq := 100 * (rank - float64(n)) / float64(p)
	return float64(s.pos.ValueAtQuantile(pq)) / s.scale
}

func (s *series) stat(name string) Stat {
	st := Stat{Name: name, Count: s.count, Min: s.min, Max: s.max}
	if s.count == 0 {
		return st
	}
	st.Mean = s.sum / float64(s.count)
	st.P50 = bound(s.quantile(50), s.min, s.max)
	st.P95 = bound(s.quantile(95), s.min, s.max)
	st.P99 = bound(s.quantile(99), s.min, s.max)
	return st
}

func usToMs(us int64) float64 {
	return float64(us) / 1000
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bound keeps a bucketed percentile within the exact observed range.
func bound(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

func result(id string, d time.Duration, errs []string, indicators map[string]float64) *check.Result {
	res := &check.Result{
		RunID:    id,
		URL:      "https://example.com/serverip",
		Started:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration: d,
		Errors:   errs,
	}
	res.Entries = append(res.Entries, host.Entry{Kind: host.Tracepoint, Name: "CLIENT_CITY", Text: "HILLSBORO"})
	for name, v := range indicators {
		res.Entries = append(res.Entries, host.Entry{Kind: host.Indicator, Name: name, Number: v})
	}
	return res
}

func TestCollector_Summary(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		var errs []string
		if i%10 == 0 {
			errs = []string{"FETCH_ERROR"}
		}
		c.Add(result("run", time.Duration(i)*time.Millisecond, errs, map[string]float64{"AK_REGION": float64(i)}))
	}

	s := c.Summary()
	assert.Equal(t, int64(100), s.Runs)
	assert.Equal(t, int64(10), s.Failed)
	assert.Equal(t, int64(90), s.Passed())
	assert.InDelta(t, 0.9, s.SuccessRate(), 1e-9)
	assert.Equal(t, map[string]int64{"FETCH_ERROR": 10}, s.Errors)
	assert.Len(t, s.RunIDs, 100)
	assert.Equal(t, "https://example.com/serverip", s.URL)

	region, ok := s.Indicator("AK_REGION")
	require.True(t, ok)
	assert.Equal(t, int64(100), region.Count)
	assert.Equal(t, 1.0, region.Min)
	assert.Equal(t, 100.0, region.Max)
	assert.InDelta(t, 50.5, region.Mean, 1e-9)
	assert.InDelta(t, 50, region.P50, 0.1)
	assert.InDelta(t, 95, region.P95, 0.1)
	assert.InDelta(t, 99, region.P99, 0.1)

	assert.InDelta(t, 1, s.DurationMs.Min, 0.01)
	assert.InDelta(t, 100, s.DurationMs.Max, 0.1)
	assert.InDelta(t, 50.5, s.DurationMs.Mean, 0.01)
	assert.InDelta(t, 95, s.DurationMs.P95, 0.1)
}

func TestCollector_NegativeAndFractional(t *testing.T) {
	c := NewCollector()
	for _, v := range []float64{-122.9838, -122.5, 45.4461} {
		c.Add(result("r", time.Millisecond, nil, map[string]float64{"CLIENT_LONG": v}))
	}

	st, ok := c.Summary().Indicator("CLIENT_LONG")
	require.True(t, ok)
	assert.Equal(t, -122.9838, st.Min)
	assert.Equal(t, 45.4461, st.Max)
	assert.InDelta(t, -122.5, st.P50, 0.2)
	assert.InDelta(t, 45.4461, st.P99, 0.05)
}

func TestCollector_EpochIndicators(t *testing.T) {
	c := NewCollector()
	for _, v := range []float64{1720392476, 1800000000, 1900000000} {
		c.Add(result("r", time.Millisecond, nil, map[string]float64{"AK_CURRENT_TIME": v}))
	}
	c.Add(result("r", time.Millisecond, nil, map[string]float64{"AK_CLIENT_REQUEST_START_TIME": 1720392476.749}))

	st, ok := c.Summary().Indicator("AK_CURRENT_TIME")
	require.True(t, ok)
	assert.Equal(t, 1720392476.0, st.Min)
	assert.Equal(t, 1900000000.0, st.Max)
	assert.InEpsilon(t, 1800000000, st.P50, 1e-3)
	assert.InEpsilon(t, 1900000000, st.P99, 1e-3)
	assert.NotEqual(t, st.Min, st.P50)

	start, ok := c.Summary().Indicator("AK_CLIENT_REQUEST_START_TIME")
	require.True(t, ok)
	assert.Equal(t, 1720392476.749, start.P50)
}

func TestCollector_RescalesRecordedValues(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 98; i++ {
		c.Add(result("r", time.Millisecond, nil, map[string]float64{"X": float64(i)}))
	}
	c.Add(result("r", time.Millisecond, nil, map[string]float64{"X": -50}))
	c.Add(result("r", time.Millisecond, nil, map[string]float64{"X": 5e10}))

	st, ok := c.Summary().Indicator("X")
	require.True(t, ok)
	assert.Equal(t, -50.0, st.Min)
	assert.Equal(t, 5e10, st.Max)
	assert.InDelta(t, 49, st.P50, 1)
	assert.InDelta(t, 94, st.P95, 1)
}

func TestCollector_HugeIndicatorStaysInRange(t *testing.T) {
	c := NewCollector()
	for _, v := range []float64{1e300, -1e300, 1} {
		c.Add(result("r", time.Millisecond, nil, map[string]float64{"X": v}))
	}

	st, ok := c.Summary().Indicator("X")
	require.True(t, ok)
	assert.Equal(t, -1e300, st.Min)
	assert.Equal(t, 1e300, st.Max)
	for _, q := range []float64{st.P50, st.P95, st.P99} {
		assert.GreaterOrEqual(t, q, st.Min)
		assert.LessOrEqual(t, q, st.Max)
	}
}

func TestCollector_KeepsIndicatorOrder(t *testing.T) {
	c := NewCollector()
	res := result("r", time.Millisecond, nil, nil)
	res.Entries = append(res.Entries,
		host.Entry{Kind: host.Indicator, Name: "region_asn", Number: 7922},
		host.Entry{Kind: host.Indicator, Name: "AK_REGION", Number: 44239},
	)
	c.Add(res)

	s := c.Summary()
	require.Len(t, s.Indicators, 2)
	assert.Equal(t, "region_asn", s.Indicators[0].Name)
	assert.Equal(t, "AK_REGION", s.Indicators[1].Name)
	assert.Same(t, res, s.Last)
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()
	s := c.Summary()
	assert.Zero(t, s.Runs)
	assert.Zero(t, s.SuccessRate())
	assert.Empty(t, s.Indicators)

	c.Add(result("r", time.Millisecond, []string{"PARSE_ERROR"}, nil))
	c.Reset()
	assert.Zero(t, c.Summary().Runs)
	assert.Empty(t, c.Summary().Errors)
}

func TestRepeat_Count(t *testing.T) {
	var calls []int
	err := Repeat(context.Background(), 3, time.Millisecond, func(ctx context.Context, i int) error {
		calls = append(calls, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, calls)
}

func TestRepeat_Paces(t *testing.T) {
	start := time.Now()
	err := Repeat(context.Background(), 3, 20*time.Millisecond, func(ctx context.Context, i int) error {
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestRepeat_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Repeat(context.Background(), 5, 0, func(ctx context.Context, i int) error {
		calls++
		if i == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRepeat_ForeverUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Repeat(ctx, 0, time.Millisecond, func(ctx context.Context, i int) error {
		calls++
		if calls == 4 {
			cancel()
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, calls)
}

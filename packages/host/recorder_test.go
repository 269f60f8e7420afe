package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_KeepsOrder(t *testing.T) {
	r := NewRecorder(nil)
	r.SetTracepoint("a", "x")
	r.SetIndicator("b", 1.5)
	r.SetTracepoint("a", "y")

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Kind: Tracepoint, Name: "a", Text: "x"}, entries[0])
	assert.Equal(t, Entry{Kind: Indicator, Name: "b", Number: 1.5}, entries[1])

	v, ok := r.Tracepoint("a")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	n, ok := r.Indicator("b")
	assert.True(t, ok)
	assert.Equal(t, 1.5, n)

	_, ok = r.Indicator("a")
	assert.False(t, ok)
}

func TestRecorder_Forwards(t *testing.T) {
	inner := NewRecorder(nil)
	outer := NewRecorder(inner)

	outer.SetIndicator("AK_REGION", 44239)
	outer.SetTracepoint("CLIENT_CITY", "HILLSBORO")

	assert.Equal(t, 2, inner.Len())
	assert.Equal(t, "44239", inner.Entries()[0].Value())

	outer.Reset()
	assert.Equal(t, 0, outer.Len())
	assert.Equal(t, 2, inner.Len())
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("resp-headers")
	require.NoError(t, err)
	assert.True(t, s.IsHeader())

	s, err = ParseSource("resp-content")
	require.NoError(t, err)
	assert.False(t, s.IsHeader())

	_, err = ParseSource("resp-body")
	assert.Error(t, err)
}

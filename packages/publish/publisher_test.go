package publish

import (
	"errors"
	"testing"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
    "AK_CLIENT_REQUEST_START_TIME": "1720392476.749",
    "AK_CONNECTED_CLIENT_IP": "67.189.12.144",
    "AK_EIP_FORWARDER_IP": "",
    "AK_REGION": "44239",
    "AK_QUIC_SUPPORTED_VERSIONS": "1,4278190109,50,46,43",
    "AK_TLS_VERSION": "tls1.3",
    "CLIENT_LONG": "-122.9838",
    "AK_SERIAL": 119,
    "AK_EARLY": false,
    "AK_NESTED": {"a": [1, 2]},
    "AK_NOTHING": null
}`

func TestPublish_Example(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, `{"AK_REGION":"44239","CLIENT_COUNTRY":""}`)
	require.NoError(t, err)

	assert.Equal(t, []host.Entry{
		{Kind: host.Indicator, Name: "AK_REGION", Number: 44239},
		{Kind: host.Tracepoint, Name: "CLIENT_COUNTRY", Text: "NULL"},
	}, rec.Entries())
}

func TestPublish_Classification(t *testing.T) {
	rec := host.NewRecorder(nil)
	res, err := Publish(rec, sample)
	require.NoError(t, err)
	require.Len(t, res.Fields, 11)
	assert.Empty(t, res.SchemaViolation)

	want := []host.Entry{
		{Kind: host.Indicator, Name: "AK_CLIENT_REQUEST_START_TIME", Number: 1720392476.749},
		{Kind: host.Tracepoint, Name: "AK_CONNECTED_CLIENT_IP", Text: "67.189.12.144"},
		{Kind: host.Tracepoint, Name: "AK_EIP_FORWARDER_IP", Text: "NULL"},
		{Kind: host.Indicator, Name: "AK_REGION", Number: 44239},
		{Kind: host.Tracepoint, Name: "AK_QUIC_SUPPORTED_VERSIONS", Text: "1,4278190109,50,46,43"},
		{Kind: host.Tracepoint, Name: "AK_TLS_VERSION", Text: "tls1.3"},
		{Kind: host.Indicator, Name: "CLIENT_LONG", Number: -122.9838},
		{Kind: host.Indicator, Name: "AK_SERIAL", Number: 119},
		{Kind: host.Tracepoint, Name: "AK_EARLY", Text: "false"},
		{Kind: host.Tracepoint, Name: "AK_NESTED", Text: `{"a": [1, 2]}`},
		{Kind: host.Tracepoint, Name: "AK_NOTHING", Text: "null"},
	}
	assert.Equal(t, want, rec.Entries())
}

func TestPublish_OneEntryPerKey(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"a":1}`,
		`{"a":"x","b":"2","c":"","d":[],"e":1e400}`,
	}
	for _, in := range inputs {
		rec := host.NewRecorder(nil)
		res, err := Publish(rec, in)
		require.NoError(t, err, in)
		fields := res.Fields
		assert.Equal(t, len(fields), rec.Len(), in)

		for i, e := range rec.Entries() {
			assert.Equal(t, fields[i].Key, e.Name)
			assert.Equal(t, fields[i].Numeric, e.Kind == host.Indicator)
		}
	}
}

func TestPublish_OverflowIsText(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, `{"big":1e400}`)
	require.NoError(t, err)

	v, ok := rec.Tracepoint("big")
	assert.True(t, ok)
	assert.Equal(t, "1e400", v)
}

func TestPublish_ParseError(t *testing.T) {
	inputs := []string{
		``,
		`{"AK_REGION": "44239",`,
		`{"a": 1}}`,
		`not json`,
	}
	for _, in := range inputs {
		rec := host.NewRecorder(nil)
		res, err := Publish(rec, in)
		require.Error(t, err, in)
		assert.Nil(t, res.Fields)

		var pe *ParseError
		assert.True(t, errors.As(err, &pe))

		require.Equal(t, 1, rec.Len(), in)
		v, ok := rec.Tracepoint(ParseErrorName)
		assert.True(t, ok)
		assert.Equal(t, err.Error(), v)
	}
}

func TestPublish_NotObject(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, `[1,2]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotObject)
	assert.Equal(t, 1, rec.Len())
}

func TestPublish_Schema(t *testing.T) {
	schema, err := LoadSchema(`{
		"type": "object",
		"required": ["AK_REGION"],
		"properties": {"AK_REGION": {"type": "string"}}
	}`)
	require.NoError(t, err)
	p := NewPublisher(WithSchema(schema))

	rec := host.NewRecorder(nil)
	res, err := p.Publish(rec, `{"AK_REGION":"44239"}`)
	require.NoError(t, err)
	assert.Empty(t, res.SchemaViolation)
	_, found := rec.Tracepoint(SchemaErrorName)
	assert.False(t, found)

	rec.Reset()
	res, err = p.Publish(rec, `{"CLIENT_CITY":"HILLSBORO"}`)
	require.NoError(t, err)
	v, found := rec.Tracepoint(SchemaErrorName)
	assert.True(t, found)
	assert.Contains(t, v, "AK_REGION")
	assert.Equal(t, v, res.SchemaViolation)

	v, _ = rec.Tracepoint("CLIENT_CITY")
	assert.Equal(t, "HILLSBORO", v)
}

func TestPublish_SchemaErrorKeyIsAField(t *testing.T) {
	rec := host.NewRecorder(nil)
	res, err := Publish(rec, `{"SCHEMA_ERROR":"from the body"}`)
	require.NoError(t, err)

	assert.Empty(t, res.SchemaViolation)
	require.Len(t, res.Fields, 1)
	v, _ := rec.Tracepoint(SchemaErrorName)
	assert.Equal(t, "from the body", v)
}

func TestLoadSchema_Invalid(t *testing.T) {
	_, err := LoadSchema(`{"type": 12}`)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"44239", 44239, true},
		{"-122.9838", -122.9838, true},
		{"1e3", 1000, true},
		{"0", 0, true},
		{"", 0, false},
		{" 1", 0, false},
		{"67.189.12.144", 0, false},
		{"0x1A", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
		{"1_000", 0, false},
		{"tls1.3", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

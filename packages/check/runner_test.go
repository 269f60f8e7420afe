package check

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/heartbeat/packages/extract"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/logging"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
)

const dump = "AK_REGION: 44239\r\n" +
	"AK_MAP: dscw34\r\n" +
	"Akamai-Request-BC: [a=23.11.32.3,n=US_OR_HILLSBORO,o=7922]\r\n" +
	"CLIENT_CITY: HILLSBORO\r\n" +
	"CLIENT_COUNTRY:\r\n" +
	"Content-Type: text/html\r\n"

const body = "<pre>\n" + `{"AK_REGION":"44239","CLIENT_IP":"67.189.12.144","CLIENT_COUNTRY":""}` + "\n</pre>"

type failingHost struct{ err error }

func (f failingHost) Open(ctx context.Context, url string) error { return f.err }
func (f failingHost) Extract(host.Source, string) (string, error) {
	panic("extract after failed open")
}

func names(entries []host.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestRunner_Run(t *testing.T) {
	h := extract.NewOffline(dump, body)
	rec := host.NewRecorder(nil)

	res, err := NewRunner(Default()).Run(context.Background(), h, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resp_json",
		"AK_REGION", "CLIENT_IP", "CLIENT_COUNTRY",
		"es_hdrs", "ak_hdrs", "akamai_request_bc",
		"region_location", "region_asn",
	}, names(res.Entries))
	assert.Equal(t, rec.Entries(), res.Entries, "the sink sees every publish")

	v, ok := rec.Indicator("AK_REGION")
	require.True(t, ok)
	assert.Equal(t, 44239.0, v)

	tp, _ := rec.Tracepoint("CLIENT_COUNTRY")
	assert.Equal(t, "NULL", tp)
	tp, _ = rec.Tracepoint("CLIENT_IP")
	assert.Equal(t, "67.189.12.144", tp)
	tp, _ = rec.Tracepoint("resp_json")
	assert.Equal(t, `{"AK_REGION":"44239","CLIENT_IP":"67.189.12.144","CLIENT_COUNTRY":""}`, tp)

	tp, _ = rec.Tracepoint("es_hdrs")
	assert.Equal(t, "[CLIENT_CITY: HILLSBORO,CLIENT_COUNTRY:]", tp)
	tp, _ = rec.Tracepoint("ak_hdrs")
	assert.Equal(t, "[AK_REGION: 44239,AK_MAP: dscw34]", tp)
	tp, _ = rec.Tracepoint("akamai_request_bc")
	assert.Equal(t, "[Akamai-Request-BC: [a=23.11.32.3,n=US_OR_HILLSBORO,o=7922]]", tp)

	tp, _ = rec.Tracepoint("region_location")
	assert.Equal(t, "US_OR_HILLSBORO", tp)
	v, _ = rec.Indicator("region_asn")
	assert.Equal(t, 7922.0, v)

	assert.Equal(t, map[string]float64{"AK_REGION": 44239, "region_asn": 7922}, res.Indicators())
	assert.False(t, res.Failed())
	assert.Equal(t, 3, res.Fields)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{Default().URL}, h.Opened())
}

func TestRunner_FetchError(t *testing.T) {
	rec := host.NewRecorder(nil)
	want := errors.New("connection refused")

	res, err := NewRunner(Default()).Run(context.Background(), failingHost{err: want}, rec)
	require.ErrorIs(t, err, want)

	require.Equal(t, 1, rec.Len())
	tp, _ := rec.Tracepoint(FetchErrorName)
	assert.Equal(t, "connection refused", tp)
	assert.Equal(t, []string{FetchErrorName}, res.Errors)
	assert.True(t, res.Failed())
}

func TestRunner_MalformedBody(t *testing.T) {
	rec := host.NewRecorder(nil)
	c := Default()
	c.HeaderGroups = nil
	c.RequestBC = false

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline(dump, `{"a": }`), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"resp_json", publish.ParseErrorName}, names(rec.Entries()))
	assert.Equal(t, []string{publish.ParseErrorName}, res.Errors)
	assert.Equal(t, 0, res.Fields)
}

func TestRunner_BadPatterns(t *testing.T) {
	rec := host.NewRecorder(nil)
	c := Default()
	c.BodyPattern = "/{.*}/q"
	c.HeaderGroups = []HeaderGroup{{Name: "ak_hdrs", Pattern: "AK_("}}
	c.RequestBC = false

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline(dump, body), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{BodyErrorName, "ak_hdrs"}, res.Errors)
	tp, _ := rec.Tracepoint("ak_hdrs")
	assert.Contains(t, tp, "AK_(")
	_, published := rec.Tracepoint("resp_json")
	assert.False(t, published)
	assert.Len(t, res.ErrorMessages(), 2)
}

func TestRunner_MissingHeaders(t *testing.T) {
	rec := host.NewRecorder(nil)

	res, err := NewRunner(Default()).Run(context.Background(), extract.NewOffline("Content-Type: text/html", body), rec)
	require.NoError(t, err)

	for _, name := range []string{"es_hdrs", "ak_hdrs", "akamai_request_bc"} {
		tp, ok := rec.Tracepoint(name)
		require.True(t, ok, name)
		assert.Equal(t, "NULL", tp, name)
	}
	_, ok := rec.Tracepoint("region_location")
	assert.False(t, ok, "no request-bc header means nothing to decode")
	assert.False(t, res.Failed())
}

func TestRunner_BadRequestBC(t *testing.T) {
	rec := host.NewRecorder(nil)
	c := Default()
	c.HeaderGroups = nil

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline("Akamai-Request-BC: [garbage]", body), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"akamai_request_bc_error"}, res.Errors)
}

func TestRunner_InfoHeaders(t *testing.T) {
	dump := "Akamai-Request-BC: [a=23.11.32.3,n=US_OR_HILLSBORO,o=7922]\r\n" +
		"X-Aka-Info: [i=67.189.12.144,r=44239,t=18]\r\n" +
		"X-Es-Info: [l=HILLSBORO,x=45.4461,y=-122.9838]\r\n"
	c := Default()
	c.HeaderGroups = nil
	c.InfoHeaders = true
	rec := host.NewRecorder(nil)

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline(dump, body), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resp_json",
		"AK_REGION", "CLIENT_IP", "CLIENT_COUNTRY",
		"region_location", "region_asn",
		"component_ip", "component_location", "component_asn",
		"ak_connected_client_ip", "ak_region", "ak_client_rtt",
		"client_city", "client_lat", "client_long",
	}, names(res.Entries))
	v, _ := rec.Indicator("client_long")
	assert.Equal(t, -122.9838, v)
	tp, _ := rec.Tracepoint("ak_connected_client_ip")
	assert.Equal(t, "67.189.12.144", tp)
	assert.False(t, res.Failed())
}

func TestRunner_InfoHeadersOffByDefault(t *testing.T) {
	assert.False(t, Default().InfoHeaders)

	rec := host.NewRecorder(nil)
	_, err := NewRunner(Default()).Run(context.Background(), extract.NewOffline("X-Es-Info: [l=HILLSBORO]", body), rec)
	require.NoError(t, err)
	_, ok := rec.Tracepoint("client_city")
	assert.False(t, ok)
}

func TestRunner_BadInfoHeader(t *testing.T) {
	c := Default()
	c.HeaderGroups = nil
	c.RequestBC = false
	c.InfoHeaders = true
	rec := host.NewRecorder(nil)

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline("X-Aka-Info: [broken]\r\nX-Es-Info: unknown", body), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"x_aka_info_error"}, res.Errors)
	_, ok := rec.Tracepoint("client_city")
	assert.False(t, ok, "withheld values publish nothing")
}

func TestRunner_Schema(t *testing.T) {
	schema, err := publish.LoadSchema(`{"type":"object","required":["CLIENT_CITY"]}`)
	require.NoError(t, err)

	c := Default()
	c.Schema = schema
	rec := host.NewRecorder(nil)

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline(dump, body), rec)
	require.NoError(t, err)

	assert.Contains(t, res.Errors, publish.SchemaErrorName)
	_, ok := rec.Indicator("AK_REGION")
	assert.True(t, ok, "fields are still published")
}

func TestRunner_SchemaErrorKeyInBody(t *testing.T) {
	rec := host.NewRecorder(nil)
	c := Default()
	c.HeaderGroups = nil
	c.RequestBC = false

	res, err := NewRunner(c).Run(context.Background(), extract.NewOffline(dump, `{"SCHEMA_ERROR":"none"}`), rec)
	require.NoError(t, err)

	tp, _ := rec.Tracepoint(publish.SchemaErrorName)
	assert.Equal(t, "none", tp)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Failed())
	assert.Equal(t, 1, res.Fields)
}

func TestRunner_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Options{Level: logging.LevelDebug, Writer: &buf})

	res, err := NewRunner(Default(), WithLogger(logger)).Run(context.Background(), extract.NewOffline(dump, body), host.NewRecorder(nil))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "check finished")
	assert.Contains(t, buf.String(), res.RunID)
}

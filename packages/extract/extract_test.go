package extract

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "akamai-x-get-extracted-values", r.Header.Get("Pragma"))
		w.Header().Set("AK_REGION", "44239")
		w.Header().Set("CLIENT_CITY", "HILLSBORO")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("<pre>\n{\"AK_REGION\":\"44239\",\"CLIENT_COUNTRY\":\"\"}\n</pre>"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSession_ExtractBeforeOpen(t *testing.T) {
	s := NewSession(http.NewClient())

	_, err := s.Extract(host.SourceHeader, ".*")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotOpened))

	var extErr *host.ExtractionError
	assert.True(t, errors.As(err, &extErr))
	assert.Equal(t, host.SourceHeader, extErr.Source)
}

func TestSession_OpenAndExtract(t *testing.T) {
	server := newServer(t)

	s := NewSession(http.NewClient(), WithRequestHeaders(map[string]string{
		"Pragma": "akamai-x-get-extracted-values",
	}))
	require.NoError(t, s.Open(context.Background(), server.URL+"/serverip"))
	require.NotNil(t, s.Response())

	body, err := s.Extract(host.SourceContent, "//{.*}//")
	require.NoError(t, err)
	assert.Equal(t, `{"AK_REGION":"44239","CLIENT_COUNTRY":""}`, body)

	region, err := s.Extract(host.SourceHeaders, `(?i)ak_region: \d+`)
	require.NoError(t, err)
	assert.Equal(t, "Ak_region: 44239", region)

	none, err := s.Extract(host.SourceHeader, "NOPE_.*")
	require.NoError(t, err)
	assert.Equal(t, "", none)

	_, err = s.Extract(host.SourceHeader, "AK_(")
	assert.Error(t, err)
}

func TestSession_FailedOpenClearsResponse(t *testing.T) {
	server := newServer(t)
	s := NewSession(http.NewClient())
	require.NoError(t, s.Open(context.Background(), server.URL))

	err := s.Open(context.Background(), "ftp://example.com")
	require.Error(t, err)
	assert.Nil(t, s.Response())

	_, err = s.Extract(host.SourceContent, ".*")
	assert.ErrorIs(t, err, ErrNotOpened)
}

func TestOffline(t *testing.T) {
	o := NewOffline("AK_REGION: 44239\nCLIENT_CITY: HILLSBORO", `{"a":1}`)
	require.NoError(t, o.Open(context.Background(), "https://example.com"))
	assert.Equal(t, []string{"https://example.com"}, o.Opened())

	v, err := o.Extract(host.SourceHeader, "CLIENT_.*")
	require.NoError(t, err)
	assert.Equal(t, "CLIENT_CITY: HILLSBORO", v)

	v, err = o.Extract(host.SourceContent, `"a":(\d)`)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	_, err = o.Extract(host.Source("resp-body"), ".*")
	assert.Error(t, err)
}

func TestLoadOffline(t *testing.T) {
	dir := t.TempDir()
	hdrs := filepath.Join(dir, "headers.txt")
	require.NoError(t, os.WriteFile(hdrs, []byte("AK_MAP: dscw34\n"), 0644))

	o, err := LoadOffline(hdrs, "")
	require.NoError(t, err)

	v, err := o.Extract(host.SourceHeader, "AK_MAP")
	require.NoError(t, err)
	assert.Equal(t, "AK_MAP: dscw34", v)

	_, err = LoadOffline(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

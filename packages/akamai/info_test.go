package akamai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

func TestInfoHeader_Publish(t *testing.T) {
	tests := []struct {
		name   string
		header InfoHeader
		value  string
		want   []host.Entry
	}{
		{
			name:   "request bc",
			header: RequestBCInfo,
			value:  "[a=23.11.32.3,b=119,c=g,n=US_OR_HILLSBORO,o=7922]",
			want: []host.Entry{
				{Kind: host.Tracepoint, Name: "component_ip", Text: "23.11.32.3"},
				{Kind: host.Indicator, Name: "req_id", Number: 119},
				{Kind: host.Tracepoint, Name: "component_letter", Text: "g"},
				{Kind: host.Tracepoint, Name: "component_location", Text: "US_OR_HILLSBORO"},
				{Kind: host.Indicator, Name: "component_asn", Number: 7922},
			},
		},
		{
			name:   "x-aka-info",
			header: AkaInfo,
			value:  "[i=67.189.12.144,b=,g=23.11.32.3,p=2,r=44239,t=18]",
			want: []host.Entry{
				{Kind: host.Tracepoint, Name: "ak_connected_client_ip", Text: "67.189.12.144"},
				{Kind: host.Tracepoint, Name: "ak_eip_forwarder_ip", Text: "NULL"},
				{Kind: host.Tracepoint, Name: "ak_ghost_service_ip", Text: "23.11.32.3"},
				{Kind: host.Indicator, Name: "ak_client_request_number", Number: 2},
				{Kind: host.Indicator, Name: "ak_region", Number: 44239},
				{Kind: host.Indicator, Name: "ak_client_rtt", Number: 18},
			},
		},
		{
			name:   "x-es-info",
			header: EsInfo,
			value:  "[a=7922,l=HILLSBORO,c=US,x=45.4461,y=-122.9838]",
			want: []host.Entry{
				{Kind: host.Indicator, Name: "client_asnum", Number: 7922},
				{Kind: host.Tracepoint, Name: "client_city", Text: "HILLSBORO"},
				{Kind: host.Tracepoint, Name: "client_country_code", Text: "US"},
				{Kind: host.Indicator, Name: "client_lat", Number: 45.4461},
				{Kind: host.Indicator, Name: "client_long", Number: -122.9838},
			},
		},
		{
			name:   "number that does not parse stays text",
			header: AkaInfo,
			value:  "[t=fast]",
			want:   []host.Entry{{Kind: host.Tracepoint, Name: "ak_client_rtt", Text: "fast"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := host.NewRecorder(nil)
			d, err := tt.header.Publish(rec, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Entries())
			assert.Len(t, d.Published, len(tt.want))
			assert.Empty(t, d.Unmapped)
		})
	}
}

func TestInfoHeader_Unmapped(t *testing.T) {
	rec := host.NewRecorder(nil)
	d, err := EsInfo.Publish(rec, "[l=HILLSBORO,z=1]")
	require.NoError(t, err)

	assert.Equal(t, []string{"client_city"}, d.Published)
	assert.Equal(t, []string{"z"}, d.Unmapped)
	assert.Equal(t, 1, rec.Len())
}

func TestInfoHeader_Withheld(t *testing.T) {
	rec := host.NewRecorder(nil)
	d, err := AkaInfo.Publish(rec, "Unknown")
	require.NoError(t, err)

	assert.True(t, d.Withheld)
	assert.Zero(t, rec.Len())
}

func TestInfoHeader_Error(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := EsInfo.Publish(rec, "[a=1,broken]")
	require.Error(t, err)

	v, ok := rec.Tracepoint(EsInfo.ErrorName)
	require.True(t, ok)
	assert.Contains(t, v, "malformed X-Es-Info pair")
	assert.Equal(t, 1, rec.Len())
}

func TestInfoHeaders_DistinctNames(t *testing.T) {
	seen := map[string]string{}
	for _, ih := range InfoHeaders {
		for _, f := range ih.Fields {
			prev, dup := seen[f.Name]
			assert.False(t, dup, "%s is mapped by %s and %s", f.Name, prev, ih.Header)
			seen[f.Name] = ih.Header
		}
		assert.NotEqual(t, ErrorName, ih.ErrorName)
	}
}

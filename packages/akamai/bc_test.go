package akamai

import (
	"testing"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestBC(t *testing.T) {
	bc, err := ParseRequestBC("[a=23.11.32.3,b=119,c=,n=US_OR_HILLSBORO,o=7922]")
	require.NoError(t, err)
	require.Len(t, bc, 5)

	assert.Equal(t, Pair{Key: "c", Value: ""}, bc[2])
	assert.Equal(t, "US_OR_HILLSBORO", bc.Location())
	assert.Equal(t, "7922", bc.ASN())

	_, ok := bc.Get("z")
	assert.False(t, ok)
}

func TestParseRequestBC_Errors(t *testing.T) {
	for _, in := range []string{"", "[]", "[a=1,broken]", "[=1]"} {
		_, err := ParseRequestBC(in)
		assert.Error(t, err, in)
	}
}

func TestPublish(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, "[n=US_OR_HILLSBORO,o=7922]")
	require.NoError(t, err)

	assert.Equal(t, []host.Entry{
		{Kind: host.Tracepoint, Name: LocationName, Text: "US_OR_HILLSBORO"},
		{Kind: host.Indicator, Name: ASNName, Number: 7922},
	}, rec.Entries())
}

func TestPublish_MissingFields(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, "[a=1]")
	require.NoError(t, err)

	v, _ := rec.Tracepoint(LocationName)
	assert.Equal(t, "NULL", v)
	v, _ = rec.Tracepoint(ASNName)
	assert.Equal(t, "NULL", v)
}

func TestPublish_Error(t *testing.T) {
	rec := host.NewRecorder(nil)
	_, err := Publish(rec, "garbage")
	require.Error(t, err)

	v, ok := rec.Tracepoint(ErrorName)
	assert.True(t, ok)
	assert.Contains(t, v, "malformed")
	assert.Equal(t, 1, rec.Len())
}

// Package akamai decodes the Akamai diagnostic headers.
//
// Akamai-Request-BC, X-Aka-Info and X-Es-Info carry bracketed key=value
// pairs, for example
//
//	[a=23.11.32.3,b=119,c=g,n=US_OR_HILLSBORO,o=7922,...]
//
// In Akamai-Request-BC, n is the edge region's location and o its ASN.
package akamai

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
)

// HeaderName is the response header holding the pairs.
const HeaderName = "Akamai-Request-BC"

const (
	keyLocation = "n"
	keyASN      = "o"
)

// Tracepoint and indicator names set by Publish.
const (
	LocationName = "region_location"
	ASNName      = "region_asn"
	ErrorName    = "akamai_request_bc_error"
)

// Pair is one key=value entry.
type Pair struct {
	Key   string
	Value string
}

// RequestBC is a decoded header, pairs in header order.
type RequestBC []Pair

// ParsePairs decodes the bracketed key=value list of header. Empty values
// are kept as "".
func ParsePairs(header, value string) ([]Pair, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	if value == "" {
		return nil, fmt.Errorf("empty %s header", header)
	}

	var pairs []Pair
	for _, item := range strings.Split(value, ",") {
		k, v, found := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !found || k == "" {
			return nil, fmt.Errorf("malformed %s pair %q", header, item)
		}
		pairs = append(pairs, Pair{Key: k, Value: strings.TrimSpace(v)})
	}
	return pairs, nil
}

// ParseRequestBC decodes an Akamai-Request-BC value.
func ParseRequestBC(value string) (RequestBC, error) {
	pairs, err := ParsePairs(HeaderName, value)
	return RequestBC(pairs), err
}

// Get returns the value of the first pair named key.
func (bc RequestBC) Get(key string) (string, bool) {
	for _, p := range bc {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Location is the region location (n).
func (bc RequestBC) Location() string {
	v, _ := bc.Get(keyLocation)
	return v
}

// ASN is the region ASN (o).
func (bc RequestBC) ASN() string {
	v, _ := bc.Get(keyASN)
	return v
}

// Publish decodes value and sets region_location and region_asn. A decode
// failure is published as akamai_request_bc_error.
func Publish(sink host.Sink, value string) (RequestBC, error) {
	bc, err := ParseRequestBC(value)
	if err != nil {
		sink.SetTracepoint(ErrorName, err.Error())
		return nil, err
	}

	location := bc.Location()
	if location == "" {
		location = publish.Null
	}
	sink.SetTracepoint(LocationName, location)

	asn := bc.ASN()
	if n, ok := publish.ParseNumber(asn); ok {
		sink.SetIndicator(ASNName, n)
	} else {
		if asn == "" {
			asn = publish.Null
		}
		sink.SetTracepoint(ASNName, asn)
	}
	return bc, nil
}

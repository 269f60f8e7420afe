package akamai

import (
	"strings"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
)

// Kind is the declared type of an info header field.
type Kind int

const (
	Text Kind = iota
	Number
)

// Field is the published name and type of one key.
type Field struct {
	Name string
	Kind Kind
}

// InfoHeader maps the keys of one diagnostic header to published names.
type InfoHeader struct {
	Header    string
	ErrorName string
	Fields    map[string]Field
}

var (
	RequestBCInfo = InfoHeader{
		Header:    HeaderName,
		ErrorName: "akamai_request_bc_info_error",
		Fields: map[string]Field{
			"a": {"component_ip", Text},
			"b": {"req_id", Number},
			"c": {"component_letter", Text},
			"n": {"component_location", Text},
			"o": {"component_asn", Number},
		},
	}

	AkaInfo = InfoHeader{
		Header:    "X-Aka-Info",
		ErrorName: "x_aka_info_error",
		Fields: map[string]Field{
			"i": {"ak_connected_client_ip", Text},
			"b": {"ak_eip_forwarder_ip", Text},
			"g": {"ak_ghost_service_ip", Text},
			"p": {"ak_client_request_number", Number},
			"r": {"ak_region", Number},
			"t": {"ak_client_rtt", Number},
		},
	}

	EsInfo = InfoHeader{
		Header:    "X-Es-Info",
		ErrorName: "x_es_info_error",
		Fields: map[string]Field{
			"a": {"client_asnum", Number},
			"l": {"client_city", Text},
			"c": {"client_country_code", Text},
			"x": {"client_lat", Number},
			"y": {"client_long", Number},
		},
	}
)

// InfoHeaders are decoded in this order.
var InfoHeaders = []InfoHeader{RequestBCInfo, AkaInfo, EsInfo}

// Decoded describes what Publish did with one header value.
type Decoded struct {
	// Published names, in header order.
	Published []string
	// Unmapped keys have no field in the table and are skipped.
	Unmapped []string
	// Withheld is set when the edge answered "unknown" instead of pairs.
	Withheld bool
}

// Publish decodes value and sets one tracepoint or indicator per mapped
// key. Number fields that do not parse are published as tracepoints and
// empty values as NULL. A decode failure is published as ErrorName.
func (ih InfoHeader) Publish(sink host.Sink, value string) (Decoded, error) {
	var d Decoded
	if strings.Contains(strings.ToLower(value), "unknown") {
		d.Withheld = true
		return d, nil
	}

	pairs, err := ParsePairs(ih.Header, value)
	if err != nil {
		sink.SetTracepoint(ih.ErrorName, err.Error())
		return d, err
	}

	for _, p := range pairs {
		f, ok := ih.Fields[p.Key]
		if !ok {
			d.Unmapped = append(d.Unmapped, p.Key)
			continue
		}
		d.Published = append(d.Published, f.Name)

		if f.Kind == Number {
			if n, ok := publish.ParseNumber(p.Value); ok {
				sink.SetIndicator(f.Name, n)
				continue
			}
		}
		v := p.Value
		if v == "" {
			v = publish.Null
		}
		sink.SetTracepoint(f.Name, v)
	}
	return d, nil
}

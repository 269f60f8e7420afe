package publish

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// ParseErrorName is the tracepoint set when the body is not a JSON object
	ParseErrorName = "PARSE_ERROR"
	// SchemaErrorName is the tracepoint set when the body violates the schema
	SchemaErrorName = "SCHEMA_ERROR"
)

// Publisher publishes JSON objects to a sink.
type Publisher struct {
	schema *gojsonschema.Schema
}

type Option func(*Publisher)

// WithSchema validates every object against schema before publishing.
func WithSchema(schema *gojsonschema.Schema) Option {
	return func(p *Publisher) {
		p.schema = schema
	}
}

func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadSchema compiles a JSON schema from a file path or inline JSON text.
func LoadSchema(source string) (*gojsonschema.Schema, error) {
	var loader gojsonschema.JSONLoader
	if strings.HasPrefix(strings.TrimSpace(source), "{") {
		loader = gojsonschema.NewStringLoader(source)
	} else {
		loader = gojsonschema.NewReferenceLoader("file://" + source)
	}
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}
	return schema, nil
}

// Parse reads text as a JSON object and returns its fields in document
// order.
func Parse(text string) ([]Field, error) {
	if !gjson.Valid(text) {
		return nil, &ParseError{Err: syntaxError(text)}
	}
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return nil, &ParseError{Err: ErrNotObject}
	}

	var fields []Field
	doc.ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, newField(key.String(), value))
		return true
	})
	return fields, nil
}

// Result is what one Publish call sent to the sink.
type Result struct {
	Fields []Field
	// SchemaViolation is empty unless a schema is set and the object
	// does not conform.
	SchemaViolation string
}

// Publish parses text and sends each field to sink. On a parse error a
// single PARSE_ERROR tracepoint is set and nothing else is published.
func (p *Publisher) Publish(sink host.Sink, text string) (Result, error) {
	fields, err := Parse(text)
	if err != nil {
		sink.SetTracepoint(ParseErrorName, err.Error())
		return Result{}, err
	}

	res := Result{Fields: fields}
	if p.schema != nil {
		res.SchemaViolation = p.validate(text)
		if res.SchemaViolation != "" {
			sink.SetTracepoint(SchemaErrorName, res.SchemaViolation)
		}
	}

	for _, f := range fields {
		if f.Numeric {
			sink.SetIndicator(f.Key, f.Number)
		} else {
			sink.SetTracepoint(f.Key, f.Value)
		}
	}
	return res, nil
}

func (p *Publisher) validate(text string) string {
	result, err := p.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return err.Error()
	}
	if result.Valid() {
		return ""
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

// Publish publishes text with a schema-less Publisher.
func Publish(sink host.Sink, text string) (Result, error) {
	return NewPublisher().Publish(sink, text)
}

package check

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/heartbeat/packages/core/config"
	"github.com/abdul-hamid-achik/heartbeat/packages/publish"
)

// Tracepoint names the runner sets on failure.
const (
	FetchErrorName = "FETCH_ERROR"
	BodyErrorName  = "parse_error"
)

// HeaderGroup publishes the header lines matching Pattern as tracepoint Name.
type HeaderGroup struct {
	Name    string
	Pattern string
}

// Check is one check definition.
type Check struct {
	URL            string
	BodyPattern    string
	BodyTracepoint string
	HeaderGroups   []HeaderGroup
	RequestBC      bool
	InfoHeaders    bool
	Schema         *gojsonschema.Schema
}

// Default returns the stock check against the default endpoint. The stock
// config carries no schema, so building it cannot fail.
func Default() Check {
	c, err := FromConfig(config.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// FromConfig builds a Check from cfg, compiling its schema if one is set.
func FromConfig(cfg *config.Config) (Check, error) {
	c := Check{
		URL:            cfg.URL,
		BodyPattern:    cfg.BodyPattern,
		BodyTracepoint: cfg.BodyTracepoint,
		RequestBC:      cfg.GetRequestBC(),
		InfoHeaders:    cfg.GetInfoHeaders(),
	}
	for _, g := range cfg.HeaderGroups {
		c.HeaderGroups = append(c.HeaderGroups, HeaderGroup{Name: g.Name, Pattern: g.Pattern})
	}

	if cfg.Schema != "" {
		schema, err := publish.LoadSchema(cfg.Schema)
		if err != nil {
			return Check{}, fmt.Errorf("schema: %w", err)
		}
		c.Schema = schema
	}
	return c, nil
}

func (c Check) bodyPattern() string {
	if c.BodyPattern == "" {
		return config.DefaultBodyPattern
	}
	return c.BodyPattern
}

func (c Check) bodyTracepoint() string {
	if c.BodyTracepoint == "" {
		return config.DefaultBodyTracepoint
	}
	return c.BodyTracepoint
}

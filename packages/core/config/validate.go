package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abdul-hamid-achik/heartbeat/packages/http"
	"github.com/abdul-hamid-achik/heartbeat/packages/pattern"
)

var validate = validator.New()

// Known sink names.
const (
	SinkConsole    = "console"
	SinkJSON       = "json"
	SinkPrometheus = "prometheus"
	SinkDatadog    = "datadog"
)

var (
	knownSinks    = []string{SinkConsole, SinkJSON, SinkPrometheus, SinkDatadog}
	knownNotifyOn = []string{"always", "failure", "success", "recovery"}
	knownLevels   = []string{"error", "warn", "info", "debug"}
)

// Validate reports every problem in the configuration, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := http.ValidateURL(c.URL); err != nil {
		errs = append(errs, fmt.Errorf("url: %w", err))
	}
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("maxRedirects: must not be negative"))
	}

	if _, err := pattern.Compile(c.BodyPattern); err != nil {
		errs = append(errs, fmt.Errorf("bodyPattern: %w", err))
	}
	if strings.TrimSpace(c.BodyTracepoint) == "" {
		errs = append(errs, fmt.Errorf("bodyTracepoint: must not be empty"))
	}

	seen := make(map[string]bool, len(c.HeaderGroups))
	for i, g := range c.HeaderGroups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("headerGroups[%d]: missing name", i))
		} else if seen[g.Name] {
			errs = append(errs, fmt.Errorf("headerGroups[%d]: duplicate name %q", i, g.Name))
		}
		seen[g.Name] = true
		if _, err := pattern.Compile(g.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("headerGroups[%d] %s: %w", i, g.Name, err))
		}
	}

	for _, s := range c.Sinks {
		if !contains(knownSinks, s) {
			errs = append(errs, fmt.Errorf("sinks: unknown sink %q (want one of %s)", s, strings.Join(knownSinks, ", ")))
		}
	}
	if contains(c.Sinks, SinkDatadog) && c.Datadog.APIKey == "" {
		errs = append(errs, fmt.Errorf("datadog: apiKey is required when the datadog sink is enabled"))
	}
	if err := validate.Var(c.Datadog.Site, "omitempty,fqdn"); err != nil {
		errs = append(errs, fmt.Errorf("datadog.site: %q is not a domain name", c.Datadog.Site))
	}
	if err := validate.Var(c.Prometheus.Listen, "omitempty,hostname_port"); err != nil {
		errs = append(errs, fmt.Errorf("prometheus.listen: %q is not a host:port address", c.Prometheus.Listen))
	}

	if c.Notify.On != "" && !contains(knownNotifyOn, c.Notify.On) {
		errs = append(errs, fmt.Errorf("notify.on: unknown policy %q", c.Notify.On))
	}
	for name, hook := range map[string]string{"slack": c.Notify.Slack.Webhook, "teams": c.Notify.Teams.Webhook} {
		if hook == "" {
			continue
		}
		if err := http.ValidateURL(hook); err != nil {
			errs = append(errs, fmt.Errorf("notify.%s.webhook: %w", name, err))
		}
	}

	if c.Repeat.Count < 0 {
		errs = append(errs, fmt.Errorf("repeat.count: must not be negative"))
	}
	if _, err := c.IntervalDuration(); err != nil {
		errs = append(errs, fmt.Errorf("repeat.interval: %w", err))
	}

	if c.Log.Level != "" && !contains(knownLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

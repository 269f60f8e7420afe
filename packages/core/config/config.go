package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/heartbeat/packages/core/env"
)

// Config describes one heartbeat check and where its results go.
type Config struct {
	URL             string            `yaml:"url,omitempty" json:"url,omitempty"`
	Timeout         string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	FollowRedirects *bool             `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"` // sent with the request

	BodyPattern    string              `yaml:"bodyPattern,omitempty" json:"bodyPattern,omitempty"`
	BodyTracepoint string              `yaml:"bodyTracepoint,omitempty" json:"bodyTracepoint,omitempty"`
	HeaderGroups   []HeaderGroupConfig `yaml:"headerGroups,omitempty" json:"headerGroups,omitempty"`
	RequestBC      *bool               `yaml:"requestBC,omitempty" json:"requestBC,omitempty"`
	InfoHeaders    *bool               `yaml:"infoHeaders,omitempty" json:"infoHeaders,omitempty"`
	Schema         string              `yaml:"schema,omitempty" json:"schema,omitempty"` // inline JSON or a file path

	Sinks      []string         `yaml:"sinks,omitempty" json:"sinks,omitempty"`
	Output     string           `yaml:"output,omitempty" json:"output,omitempty"` // JSON sink file
	Prometheus PrometheusConfig `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
	Datadog    DatadogConfig    `yaml:"datadog,omitempty" json:"datadog,omitempty"`
	Notify     NotifyConfig     `yaml:"notify,omitempty" json:"notify,omitempty"`
	Repeat     RepeatConfig     `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	Log        LogConfig        `yaml:"log,omitempty" json:"log,omitempty"`
}

// HeaderGroupConfig publishes the header lines matching Pattern as tracepoint Name.
type HeaderGroupConfig struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

type PrometheusConfig struct {
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Listen string `yaml:"listen,omitempty" json:"listen,omitempty"` // e.g. ":9091"
}

type DatadogConfig struct {
	APIKey string   `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	Site   string   `yaml:"site,omitempty" json:"site,omitempty"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

type NotifyConfig struct {
	On    string      `yaml:"on,omitempty" json:"on,omitempty"` // always, failure, success, recovery
	Slack SlackConfig `yaml:"slack,omitempty" json:"slack,omitempty"`
	Teams TeamsConfig `yaml:"teams,omitempty" json:"teams,omitempty"`
}

type SlackConfig struct {
	Webhook   string `yaml:"webhook,omitempty" json:"webhook,omitempty"`
	Channel   string `yaml:"channel,omitempty" json:"channel,omitempty"`
	Username  string `yaml:"username,omitempty" json:"username,omitempty"`
	IconEmoji string `yaml:"iconEmoji,omitempty" json:"iconEmoji,omitempty"`
}

type TeamsConfig struct {
	Webhook string `yaml:"webhook,omitempty" json:"webhook,omitempty"`
}

// RepeatConfig runs the check Count times, one run per Interval.
type RepeatConfig struct {
	Count    int    `yaml:"count,omitempty" json:"count,omitempty"`
	Interval string `yaml:"interval,omitempty" json:"interval,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // text or json
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetRequestBC reports whether the Akamai-Request-BC header is decoded, defaulting to true
func (c *Config) GetRequestBC() bool {
	return getBool(c.RequestBC, true)
}

// GetInfoHeaders reports whether every Akamai info header is decoded field by
// field, defaulting to false
func (c *Config) GetInfoHeaders() bool {
	return getBool(c.InfoHeaders, false)
}

// TimeoutDuration parses Timeout. An empty value means DefaultTimeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration(c.Timeout, DefaultTimeout)
}

// IntervalDuration parses Repeat.Interval. An empty value means DefaultInterval.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return parseDuration(c.Repeat.Interval, DefaultInterval)
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	"heartbeat.yaml",
	".heartbeat.yaml",
	"heartbeat.yml",
	"heartbeat.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches dir for a config file. Defaults are returned
// when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	if path := FindConfig(dir); path != "" {
		return loadConfigFromFile(path)
	}
	return DefaultConfig(), nil
}

// FindConfig returns the first config file present in dir, or "".
func FindConfig(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON document over the defaults after expanding
// ${VAR} references.
func Parse(data []byte, asJSON bool) (*Config, error) {
	expanded := []byte(env.Expand(string(data)))

	cfg := DefaultConfig()
	var err error
	if asJSON {
		err = json.Unmarshal(expanded, cfg)
	} else {
		err = yaml.Unmarshal(expanded, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.URL != "" {
		result.URL = other.URL
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.BodyPattern != "" {
		result.BodyPattern = other.BodyPattern
	}
	if other.BodyTracepoint != "" {
		result.BodyTracepoint = other.BodyTracepoint
	}
	if other.Schema != "" {
		result.Schema = other.Schema
	}
	if other.Output != "" {
		result.Output = other.Output
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.RequestBC != nil {
		result.RequestBC = other.RequestBC
	}
	if other.InfoHeaders != nil {
		result.InfoHeaders = other.InfoHeaders
	}

	if len(other.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range other.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	if len(other.HeaderGroups) > 0 {
		result.HeaderGroups = other.HeaderGroups
	}
	if len(other.Sinks) > 0 {
		result.Sinks = other.Sinks
	}

	if other.Prometheus.File != "" {
		result.Prometheus.File = other.Prometheus.File
	}
	if other.Prometheus.Listen != "" {
		result.Prometheus.Listen = other.Prometheus.Listen
	}
	if other.Datadog.APIKey != "" {
		result.Datadog.APIKey = other.Datadog.APIKey
	}
	if other.Datadog.Site != "" {
		result.Datadog.Site = other.Datadog.Site
	}
	if len(other.Datadog.Tags) > 0 {
		result.Datadog.Tags = other.Datadog.Tags
	}
	if other.Notify.On != "" {
		result.Notify.On = other.Notify.On
	}
	slack := other.Notify.Slack
	if slack.Webhook != "" {
		result.Notify.Slack.Webhook = slack.Webhook
	}
	if slack.Channel != "" {
		result.Notify.Slack.Channel = slack.Channel
	}
	if slack.Username != "" {
		result.Notify.Slack.Username = slack.Username
	}
	if slack.IconEmoji != "" {
		result.Notify.Slack.IconEmoji = slack.IconEmoji
	}
	if other.Notify.Teams.Webhook != "" {
		result.Notify.Teams.Webhook = other.Notify.Teams.Webhook
	}
	if other.Repeat.Count > 0 {
		result.Repeat.Count = other.Repeat.Count
	}
	if other.Repeat.Interval != "" {
		result.Repeat.Interval = other.Repeat.Interval
	}
	if other.Log.Level != "" {
		result.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		result.Log.Format = other.Log.Format
	}

	return &result
}

// SaveConfig writes the configuration to path, as JSON for a .json path and
// YAML otherwise.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

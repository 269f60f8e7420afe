package config

import "time"

const (
	DefaultURL            = "https://ion-terra-ff.heartbeat.boo/serverip"
	DefaultTimeout        = 30 * time.Second
	DefaultInterval       = time.Minute
	DefaultMaxRedirects   = 10
	DefaultBodyPattern    = `(?s)\{.*\}`
	DefaultBodyTracepoint = "resp_json"
	DefaultNotifyOn       = "failure"
)

// DefaultHeaderGroups are the header groups every check publishes unless
// configured otherwise.
func DefaultHeaderGroups() []HeaderGroupConfig {
	return []HeaderGroupConfig{
		{Name: "es_hdrs", Pattern: "/CLIENT.*/gi"},
		{Name: "ak_hdrs", Pattern: "/AK_.*/gi"},
		{Name: "akamai_request_bc", Pattern: "/Akamai-Request-BC.*/gi"},
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		Timeout:         DefaultTimeout.String(),
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		BodyPattern:     DefaultBodyPattern,
		BodyTracepoint:  DefaultBodyTracepoint,
		HeaderGroups:    DefaultHeaderGroups(),
		RequestBC:       BoolPtr(true),
		Sinks:           []string{"console"},
		Notify:          NotifyConfig{On: DefaultNotifyOn},
		Repeat:          RepeatConfig{Count: 1, Interval: DefaultInterval.String()},
		Log:             LogConfig{Level: "warn", Format: "text"},
	}
}

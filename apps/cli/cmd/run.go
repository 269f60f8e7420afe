package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/core/config"
	"github.com/abdul-hamid-achik/heartbeat/packages/extract"
	"github.com/abdul-hamid-achik/heartbeat/packages/http"
	"github.com/abdul-hamid-achik/heartbeat/packages/notify"
	"github.com/abdul-hamid-achik/heartbeat/packages/sink"
	"github.com/abdul-hamid-achik/heartbeat/packages/stats"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the check against the live endpoint",
	Long: `Fetch the diagnostic endpoint and publish its JSON body fields, header
groups and decoded Akamai-Request-BC header.

Examples:
  heartbeat run
  heartbeat run --url https://ion-terra-ff.heartbeat.boo/serverip
  heartbeat run --sink console,json --output results.json
  heartbeat run --repeat 10 --interval 30s --sink prometheus --prometheus-listen :9091
  heartbeat run --repeat 0 --interval 1m --notify slack --notify-on recovery
  heartbeat run --watch -c heartbeat.yaml`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	urlFlag      string
	timeoutFlag  string
	proxyFlag    string
	insecureFlag bool
	headerFlags  []string
	schemaFlag   string
	noBCFlag     bool
	infoHdrsFlag bool
	watchFlag    bool

	// Repeat flags
	repeatFlag   int
	intervalFlag string

	// Sink flags
	sinksFlag            []string
	outputFlag           string
	prometheusListenFlag string
	prometheusFileFlag   string
	datadogAPIKeyFlag    string
	datadogSiteFlag      string
	datadogTagsFlag      string

	// Notification flags
	notifyFlag       string
	notifyOnFlag     string
	slackWebhookFlag string
	slackChannelFlag string
	teamsWebhookFlag string
)

func init() {
	f := runCmd.Flags()

	// Check flags
	f.StringVarP(&urlFlag, "url", "u", getEnvString("HEARTBEAT_URL", ""), "Endpoint to check (env: HEARTBEAT_URL)")
	f.StringVar(&timeoutFlag, "timeout", getEnvString("HEARTBEAT_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HEARTBEAT_TIMEOUT)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("HEARTBEAT_PROXY", ""), "Proxy URL for HTTP requests (env: HEARTBEAT_PROXY)")
	f.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HEARTBEAT_INSECURE", false), "Disable SSL certificate validation (env: HEARTBEAT_INSECURE)")
	f.StringArrayVarP(&headerFlags, "header", "H", nil, "Request header \"Name: value\" (repeatable)")
	f.StringVar(&schemaFlag, "schema", getEnvString("HEARTBEAT_SCHEMA", ""), "JSON schema the body must satisfy (env: HEARTBEAT_SCHEMA)")
	f.BoolVar(&noBCFlag, "no-request-bc", false, "Do not decode the Akamai-Request-BC header")
	f.BoolVar(&infoHdrsFlag, "info-headers", getEnvBool("HEARTBEAT_INFO_HEADERS", false), "Decode every field of Akamai-Request-BC, X-Aka-Info and X-Es-Info (env: HEARTBEAT_INFO_HEADERS)")
	f.BoolVarP(&watchFlag, "watch", "w", false, "Re-run the check when the config file changes")

	// Repeat flags
	f.IntVarP(&repeatFlag, "repeat", "n", getEnvInt("HEARTBEAT_REPEAT", 1), "Number of runs, 0 to run until interrupted (env: HEARTBEAT_REPEAT)")
	f.StringVar(&intervalFlag, "interval", getEnvString("HEARTBEAT_INTERVAL", ""), "Minimum time between runs (env: HEARTBEAT_INTERVAL)")

	// Sink flags
	f.StringSliceVarP(&sinksFlag, "sink", "s", nil, "Sinks: console, json, prometheus, datadog (env: HEARTBEAT_SINKS)")
	f.StringVarP(&outputFlag, "output", "o", getEnvString("HEARTBEAT_OUTPUT", ""), "File for the json sink (default: stdout) (env: HEARTBEAT_OUTPUT)")
	f.StringVar(&prometheusListenFlag, "prometheus-listen", getEnvString("HEARTBEAT_PROMETHEUS_LISTEN", ""), "Serve /metrics on this address (env: HEARTBEAT_PROMETHEUS_LISTEN)")
	f.StringVar(&prometheusFileFlag, "prometheus-file", getEnvString("HEARTBEAT_PROMETHEUS_FILE", ""), "Write Prometheus text format to this file (env: HEARTBEAT_PROMETHEUS_FILE)")
	f.StringVar(&datadogAPIKeyFlag, "datadog-api-key", getEnvString("DD_API_KEY", ""), "DataDog API key (env: DD_API_KEY)")
	f.StringVar(&datadogSiteFlag, "datadog-site", getEnvString("DD_SITE", ""), "DataDog site (env: DD_SITE)")
	f.StringVar(&datadogTagsFlag, "datadog-tags", getEnvString("DD_TAGS", ""), "Comma-separated DataDog tags (env: DD_TAGS)")

	// Notification flags
	f.StringVar(&notifyFlag, "notify", getEnvString("HEARTBEAT_NOTIFY", ""), "Notification service: slack, teams (env: HEARTBEAT_NOTIFY)")
	f.StringVar(&notifyOnFlag, "notify-on", getEnvString("HEARTBEAT_NOTIFY_ON", ""), "When to notify: always, failure, success, recovery (env: HEARTBEAT_NOTIFY_ON)")
	f.StringVar(&slackWebhookFlag, "slack-webhook", getEnvString("SLACK_WEBHOOK", ""), "Slack webhook URL (env: SLACK_WEBHOOK)")
	f.StringVar(&slackChannelFlag, "slack-channel", getEnvString("SLACK_CHANNEL", ""), "Slack channel override (env: SLACK_CHANNEL)")
	f.StringVar(&teamsWebhookFlag, "teams-webhook", getEnvString("TEAMS_WEBHOOK", ""), "Microsoft Teams webhook URL (env: TEAMS_WEBHOOK)")
}

// runOverrides turns the flags given on the command line into a config
// layered over the file config.
func runOverrides(cmd *cobra.Command) (*config.Config, error) {
	o := &config.Config{
		URL:     urlFlag,
		Timeout: timeoutFlag,
		Proxy:   proxyFlag,
		Schema:  schemaFlag,
		Output:  outputFlag,
		Prometheus: config.PrometheusConfig{
			Listen: prometheusListenFlag,
			File:   prometheusFileFlag,
		},
		Datadog: config.DatadogConfig{
			APIKey: datadogAPIKeyFlag,
			Site:   datadogSiteFlag,
			Tags:   splitList(datadogTagsFlag),
		},
		Notify: config.NotifyConfig{
			On:    notifyOnFlag,
			Slack: config.SlackConfig{Webhook: slackWebhookFlag, Channel: slackChannelFlag},
			Teams: config.TeamsConfig{Webhook: teamsWebhookFlag},
		},
		Repeat: config.RepeatConfig{Interval: intervalFlag},
	}

	if insecureFlag {
		o.ValidateSSL = config.BoolPtr(false)
	}
	if noBCFlag {
		o.RequestBC = config.BoolPtr(false)
	}
	if infoHdrsFlag {
		o.InfoHeaders = config.BoolPtr(true)
	}
	if repeatSet(cmd) {
		o.Repeat.Count = repeatFlag
	}

	sinks := sinksFlag
	if len(sinks) == 0 {
		sinks = splitList(os.Getenv("HEARTBEAT_SINKS"))
	}
	o.Sinks = sinks

	headers, err := parseHeaders(headerFlags)
	if err != nil {
		return nil, err
	}
	o.Headers = headers
	return o, nil
}

// repeatSet reports whether --repeat or HEARTBEAT_REPEAT was given. Merge
// skips a zero count, so callers assign it after merging.
func repeatSet(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("repeat") || os.Getenv("HEARTBEAT_REPEAT") != ""
}

// layer merges the command-line overrides over a loaded config.
func layer(cmd *cobra.Command, cfg, overrides *config.Config) *config.Config {
	cfg = cfg.Merge(overrides)
	if repeatSet(cmd) {
		cfg.Repeat.Count = repeatFlag
	}
	return cfg
}

// parseHeaders reads "Name: value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Name: value\")", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	overrides, err := runOverrides(cmd)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	cfg = layer(cmd, cfg, overrides)
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	logger := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchFlag {
		summary, err := executeChecks(ctx, cmd, cfg, logger)
		if err != nil {
			return err
		}
		return summaryExit(summary)
	}

	if path == "" {
		return withExitCode(ExitUsageError, errors.New("--watch needs a config file (use --config or create heartbeat.yaml)"))
	}
	return watchConfig(ctx, cmd, path, overrides, logger)
}

// summaryExit maps the outcome of all runs to an exit code.
func summaryExit(s *stats.Summary) error {
	switch {
	case s.Runs > 0 && s.Errors[check.FetchErrorName] == s.Runs:
		return withExitCode(ExitNetworkError, fmt.Errorf("%d of %d run(s) could not fetch %s", s.Runs, s.Runs, s.URL))
	case s.Failed > 0:
		return withExitCode(ExitCheckFailure, fmt.Errorf("%d of %d run(s) set diagnostics", s.Failed, s.Runs))
	}
	return nil
}

// newClient builds the HTTP client for cfg.
func newClient(cfg *config.Config) (*http.Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	opts := []http.ClientOption{
		http.WithTimeout(timeout),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return http.NewClient(opts...), nil
}

// buildSinks creates the sinks cfg names.
func buildSinks(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*sink.Multi, error) {
	multi := sink.NewMulti()
	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkConsole:
			multi.Add(sink.NewConsole(
				sink.WithWriter(cmd.OutOrStdout()),
				sink.WithVerbose(verboseFlag > 0),
				sink.WithNoColor(noColorFlag),
			))
		case config.SinkJSON:
			opts := []sink.JSONOption{sink.WithJSONVersion(version)}
			if cfg.Output != "" {
				opts = append(opts, sink.WithJSONFile(cfg.Output))
			} else {
				opts = append(opts, sink.WithJSONWriter(cmd.OutOrStdout()))
			}
			multi.Add(sink.NewJSON(opts...))
		case config.SinkPrometheus:
			opts := []sink.PrometheusOption{sink.WithPrometheusLogger(logger)}
			if cfg.Prometheus.Listen != "" {
				opts = append(opts, sink.WithPrometheusListen(cfg.Prometheus.Listen))
			}
			if cfg.Prometheus.File != "" {
				opts = append(opts, sink.WithPrometheusFile(cfg.Prometheus.File))
			}
			if cfg.Prometheus.Listen == "" && cfg.Prometheus.File == "" {
				opts = append(opts, sink.WithPrometheusWriter(cmd.OutOrStdout()))
			}
			p, err := sink.NewPrometheus(opts...)
			if err != nil {
				_ = multi.Close()
				return nil, err
			}
			multi.Add(p)
		case config.SinkDatadog:
			multi.Add(sink.NewDataDog(
				sink.WithDataDogAPIKey(cfg.Datadog.APIKey),
				sink.WithDataDogSite(cfg.Datadog.Site),
				sink.WithDataDogTags(cfg.Datadog.Tags),
			))
		}
	}
	return multi, nil
}

// buildNotifier returns nil when no notifier is configured.
func buildNotifier(cfg *config.Config) (*notify.Manager, error) {
	var notifiers []notify.Notifier

	services := splitList(notifyFlag)
	if len(services) == 0 {
		// config-only setup: every configured webhook is used
		if cfg.Notify.Slack.Webhook != "" {
			services = append(services, "slack")
		}
		if cfg.Notify.Teams.Webhook != "" {
			services = append(services, "teams")
		}
	}

	for _, service := range services {
		switch strings.ToLower(service) {
		case "slack":
			s := cfg.Notify.Slack
			if s.Webhook == "" {
				return nil, fmt.Errorf("--slack-webhook is required when using --notify slack")
			}
			notifiers = append(notifiers, notify.NewSlackNotifier(s.Webhook,
				notify.WithSlackChannel(s.Channel),
				notify.WithSlackUsername(s.Username),
				notify.WithSlackIconEmoji(s.IconEmoji),
			))
		case "teams":
			if cfg.Notify.Teams.Webhook == "" {
				return nil, fmt.Errorf("--teams-webhook is required when using --notify teams")
			}
			notifiers = append(notifiers, notify.NewTeamsNotifier(cfg.Notify.Teams.Webhook))
		default:
			return nil, fmt.Errorf("unknown notification service %q", service)
		}
	}

	if len(notifiers) == 0 {
		return nil, nil
	}
	on, err := notify.ParseNotifyOn(cfg.Notify.On)
	if err != nil {
		return nil, err
	}
	return notify.NewManager(on, notifiers...), nil
}

// executeChecks runs the configured check Repeat.Count times and flushes
// every sink with the summary.
func executeChecks(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*stats.Summary, error) {
	c, err := check.FromConfig(cfg)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	manager, err := buildNotifier(cfg)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	sinks, err := buildSinks(cmd, cfg, logger)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing sinks", "error", err)
		}
	}()

	session := extract.NewSession(client, extract.WithLogger(logger))
	runner := check.NewRunner(c, check.WithLogger(logger))
	collector := stats.NewCollector()

	err = stats.Repeat(ctx, cfg.Repeat.Count, interval, func(ctx context.Context, i int) error {
		res, err := runner.Run(ctx, session, sinks)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := sinks.EndRun(res); err != nil {
			logger.Warn("sink rejected run", "run_id", res.RunID, "error", err)
		}
		collector.Add(res)

		// unbounded runs notify per run so recovery can be seen
		if manager != nil && cfg.Repeat.Count == 0 {
			single := stats.NewCollector()
			single.Add(res)
			if err := manager.Notify(notify.FromStats(single.Summary())); err != nil {
				logger.Warn("failed to send notification", "error", err)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, withExitCode(ExitUsageError, err)
	}

	summary := collector.Summary()
	if err := sinks.Flush(summary); err != nil {
		logger.Warn("flushing sinks", "error", err)
	}
	if manager != nil && cfg.Repeat.Count != 0 && summary.Runs > 0 {
		if err := manager.Notify(notify.FromStats(summary)); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}
	return summary, nil
}

// watchConfig runs the check, then again each time the config file is
// written, until ctx is done.
func watchConfig(ctx context.Context, cmd *cobra.Command, path string, overrides *config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	rerun := make(chan struct{}, 1)
	rerun <- struct{}{}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-rerun:
			cfg, err := config.LoadConfig(path)
			if err == nil {
				cfg = layer(cmd, cfg, overrides)
				err = cfg.Validate()
			}
			if err != nil {
				logger.Error("invalid config, waiting for the next change", "path", path, "error", err)
			} else if _, err := executeChecks(ctx, cmd, cfg, logger); err != nil {
				logger.Error("check failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				logger.Info("config changed", "path", path)
				select {
				case rerun <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

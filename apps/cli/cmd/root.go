package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/heartbeat/packages/core/config"
	"github.com/abdul-hamid-achik/heartbeat/packages/core/env"
	"github.com/abdul-hamid-achik/heartbeat/packages/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	envFileFlag   string
	verboseFlag   int // 0=warn, 1=-v info, 2=-vv debug
	quietFlag     bool
	noColorFlag   bool
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Synthetic edge diagnostics, published as tracepoints and indicators.",
	Long: `heartbeat fetches a diagnostic endpoint, extracts its response headers
and JSON body, and publishes every field as a named tracepoint (text) or
indicator (number) to the console, a JSON file, Prometheus or DataDog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	err := rootCmd.Execute()
	if err != nil && err.Error() != "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", getEnvString("HEARTBEAT_CONFIG", ""), "Path to config file (env: HEARTBEAT_CONFIG)")
	pf.StringVar(&envFileFlag, "env-file", getEnvString("HEARTBEAT_ENV_FILE", ""), "Path to .env file loaded before the config (env: HEARTBEAT_ENV_FILE)")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Verbose logging (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", getEnvBool("HEARTBEAT_QUIET", false), "Log errors only (env: HEARTBEAT_QUIET)")
	pf.BoolVar(&noColorFlag, "no-color", getEnvBool("HEARTBEAT_NO_COLOR", false), "Disable colored output (env: HEARTBEAT_NO_COLOR)")
	pf.StringVar(&logFormatFlag, "log-format", getEnvString("HEARTBEAT_LOG_FORMAT", ""), "Log format: text, json (env: HEARTBEAT_LOG_FORMAT)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// loadConfig exports the .env file, then loads the config file named by
// --config or found in the working directory. It returns the path that was
// loaded, "" for defaults.
func loadConfig() (*config.Config, string, error) {
	if envFileFlag != "" {
		if _, err := env.LoadAndExportDotEnv(envFileFlag); err != nil {
			return nil, "", withExitCode(ExitConfigError, err)
		}
	}

	path := configFlag
	if path == "" {
		path = config.FindConfig(".")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", withExitCode(ExitConfigError, err)
	}
	return cfg, path, nil
}

// newLogger builds the logger from the flags, falling back to the config.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := logging.FromVerbosity(verboseFlag, quietFlag)
	if verboseFlag == 0 && !quietFlag && cfg != nil {
		if l, err := logging.ParseLevel(cfg.Log.Level); err == nil {
			level = l
		}
	}

	format := logFormatFlag
	if format == "" && cfg != nil {
		format = cfg.Log.Format
	}
	return logging.New(logging.Options{Level: level, Format: format, Writer: cmd.ErrOrStderr()})
}

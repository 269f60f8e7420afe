package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
	"github.com/abdul-hamid-achik/heartbeat/packages/extract"
	"github.com/abdul-hamid-achik/heartbeat/packages/host"
	"github.com/abdul-hamid-achik/heartbeat/packages/sink"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the check over a saved response",
	Long: `Run the check over a header dump and body read from files, without any
network access. With --source and --pattern, print the raw extraction
result instead.

Examples:
  heartbeat extract --headers headers.txt --body body.html
  heartbeat extract --headers headers.txt --body body.html --json
  heartbeat extract --headers headers.txt --source resp-header --pattern '/AK_.*/gi'`,
	Args: cobra.NoArgs,
	RunE: extractCommand,
}

var (
	extractHeadersFlag string
	extractBodyFlag    string
	extractSourceFlag  string
	extractPatternFlag string
	extractJSONFlag    bool
)

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractHeadersFlag, "headers", "", "File holding the response header dump")
	f.StringVar(&extractBodyFlag, "body", "", "File holding the response body")
	f.StringVar(&extractSourceFlag, "source", "", "Extraction source: resp-content, resp-header, resp-headers")
	f.StringVar(&extractPatternFlag, "pattern", "", "Pattern to extract with --source")
	f.BoolVar(&extractJSONFlag, "json", false, "Print the published fields as JSON")
}

func extractCommand(cmd *cobra.Command, args []string) error {
	if extractHeadersFlag == "" && extractBodyFlag == "" {
		return withExitCode(ExitUsageError, errors.New("at least one of --headers or --body is required"))
	}
	offline, err := extract.LoadOffline(extractHeadersFlag, extractBodyFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if extractSourceFlag != "" || extractPatternFlag != "" {
		return rawExtract(cmd, offline)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := check.FromConfig(cfg)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	logger := newLogger(cmd, cfg)

	var out sink.Sink
	if extractJSONFlag {
		out = sink.NewJSON(sink.WithJSONWriter(cmd.OutOrStdout()), sink.WithJSONPretty(true), sink.WithJSONVersion(version))
	} else {
		out = sink.NewConsole(sink.WithWriter(cmd.OutOrStdout()), sink.WithNoColor(noColorFlag), sink.WithVerbose(true))
	}
	defer out.Close()

	res, err := check.NewRunner(c, check.WithLogger(logger)).Run(cmd.Context(), offline, out)
	if err != nil {
		return withExitCode(ExitNetworkError, err)
	}
	if err := out.EndRun(res); err != nil {
		return err
	}
	if err := out.Flush(nil); err != nil {
		return err
	}
	if res.Failed() {
		return withExitCode(ExitCheckFailure, fmt.Errorf("check set diagnostics: %v", res.Errors))
	}
	return nil
}

func rawExtract(cmd *cobra.Command, h host.Host) error {
	if extractSourceFlag == "" || extractPatternFlag == "" {
		return withExitCode(ExitUsageError, errors.New("--source and --pattern must be given together"))
	}
	source, err := host.ParseSource(extractSourceFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if err := h.Open(cmd.Context(), "offline"); err != nil {
		return err
	}
	value, err := h.Extract(source, extractPatternFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

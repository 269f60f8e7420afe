package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/heartbeat/packages/check"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file without running the check",
	Long: `Load the config file, check every field and compile every pattern and
the JSON schema, without making any request.

Examples:
  heartbeat validate
  heartbeat validate -c ./monitoring/heartbeat.yaml`,
	Args: cobra.NoArgs,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if path == "" {
		path = "(defaults)"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s:\n%v\n", path, err)
		return withExitCode(ExitConfigError, fmt.Errorf("validation failed"))
	}
	if _, err := check.FromConfig(cfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", path, err)
		return withExitCode(ExitConfigError, fmt.Errorf("validation failed"))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", path)
	return nil
}

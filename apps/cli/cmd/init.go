package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/heartbeat/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter heartbeat.yaml",
	Long: `Write heartbeat.yaml in the current directory with the default check:
the diagnostic endpoint, the body pattern and the es_hdrs, ak_hdrs and
akamai_request_bc header groups.

Examples:
  heartbeat init
  heartbeat init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
}

const initHeader = `# heartbeat check configuration
#
# Values may reference environment variables as ${VAR}; load them from a
# file with --env-file.
#
# Akamai only returns the AK_ debug headers when asked with Pragma, e.g.
#   headers:
#     Pragma: akamai-x-get-request-id,akamai-x-cache-on
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])

	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
		}
	}

	content, err := starterConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "\nRun the check with: heartbeat run")
	return nil
}

func starterConfig() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(initHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

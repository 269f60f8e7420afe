// Package cmd implements the heartbeat CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the check against the live endpoint
//   - extract: Run the check or a single pattern over a saved response
//   - validate: Check a configuration file without running it
//   - init: Write a starter heartbeat.yaml
//   - version: Show heartbeat version information
//
// Flags default from HEARTBEAT_* environment variables.
package cmd

// Package main is the entry point for the hwbot CLI.
//
// hwbot polls the Practicum homework status API and forwards status changes
// of the latest submission to a Telegram chat.
//
// Usage:
//
//	hwbot run -c config.yaml    # Start polling
//	hwbot check -c config.yaml  # Validate config and secrets
//	hwbot history -c config.yaml # Show recent deliveries
//	hwbot version               # Show version info
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hwbot/internal/config"
)

// Set at build time via ldflags, e.g. -X main.version=1.0.0.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitConfig is EX_CONFIG from sysexits.h: required secrets are missing or invalid.
const exitConfig = 78

var rootCmd = &cobra.Command{
	Use:   "hwbot",
	Short: "Homework review status notifier",
	Long: `hwbot polls the Practicum homework status API and sends a Telegram
message whenever the review status of the latest submission changes.

Secrets come from the environment (a .env file in the working directory is
loaded first; real environment variables win):
  PRACTICUM_TOKEN   status API OAuth token
  TELEGRAM_TOKEN    bot token
  TELEGRAM_CHAT_ID  numeric chat id to notify

Exit codes:
  0  clean shutdown
  78 missing or invalid secrets
  1  any other startup failure`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hwbot %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var missing *config.MissingSecretsError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &missing), errors.Is(err, config.ErrInvalidSecret):
		return exitConfig
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

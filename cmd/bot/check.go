package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
	"hwbot/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config and secrets",
	Long: `Validate the config file and the required secrets without touching
the network. Useful before enabling the systemd unit.

Exit codes:
  0  config and secrets are valid
  78 secrets are missing or invalid
  1  the config file is invalid

Example:
  hwbot check -c config.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("config", "c", "", "path to config file (json or yaml)")
	checkCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading secrets")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	r, err := app.Check(cfgPath, os.LookupEnv)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	src := r.ConfigPath
	if src == "" {
		src = "(defaults)"
	}
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Config:   %s\n", src)
	fmt.Fprintf(out, "  Endpoint: %s\n", r.Endpoint)
	fmt.Fprintf(out, "  Period:   %s (%s)\n", r.Period, r.Period.Kind)
	fmt.Fprintf(out, "  Chat:     %d\n", r.ChatID)
	fmt.Fprintf(out, "  Storage:  %s\n", r.Storage)
	if r.LogFile != "" {
		fmt.Fprintf(out, "  Log file: %s\n", r.LogFile)
	}
	return nil
}

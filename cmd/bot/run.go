package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
	"hwbot/internal/config"
	logx "hwbot/pkg/logx"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start polling",
	Long: `Start polling the status API.

The bot checks the required secrets first and exits with code 78 if any is
missing. It then polls until interrupted (Ctrl+C) or it receives SIGTERM.
The config file is optional; without it the defaults are used.

Example:
  hwbot run
  hwbot run -c /etc/hwbot/config.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("config", "c", "", "path to config file (json or yaml)")
	runCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading secrets")
}

func runRun(cmd *cobra.Command, args []string) error {
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "main"))

	cfgPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		bootLog.Warn("dotenv load failed", logx.Err(err))
	}

	sec, err := config.LoadSecrets(os.LookupEnv)
	if err != nil {
		bootLog.Fatal("required secrets are not available, shutting down", logx.Err(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfgPath, sec)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Stop(stopCtx, reason); err != nil {
		return err
	}
	return a.Err()
}

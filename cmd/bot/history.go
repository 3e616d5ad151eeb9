package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently delivered messages",
	Long: `Print the most recent messages recorded by the delivery audit
(storage.driver must be file or sqlite). Secrets are not needed.

Example:
  hwbot history -c config.yaml -n 5`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("config", "c", "", "path to config file (json or yaml)")
	historyCmd.Flags().IntP("limit", "n", 10, "number of deliveries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	limit, _ := cmd.Flags().GetInt("limit")

	rows, err := app.History(cmd.Context(), cfgPath, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No deliveries recorded yet.")
		return nil
	}
	for _, d := range rows {
		fmt.Fprintf(out, "%s  %-6s  watermark=%d  %s\n", d.At.Local().Format(time.DateTime), d.Kind, d.Watermark, d.Text)
	}
	return nil
}

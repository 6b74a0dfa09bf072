package main

import (
	"context"
	"fmt"
	"io"

	"github.com/artpar/invoicer/bootstrap"
	"github.com/artpar/invoicer/config"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark past-due invoices overdue once and exit",
	Long: `Run a single overdue sweep against the configured database.

Every sent, viewed or partially paid invoice whose due date has passed
is moved to overdue. Useful from cron when the server's own sweeper is
disabled or not running.

Examples:
  invoicer sweep
  invoicer sweep --config /etc/invoicer/config.yaml`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	app, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{LogOutput: io.Discard, DisableMetrics: true})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Shutdown()

	changed, err := app.Invoices.RefreshOverdue(context.Background())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", changed)
	return nil
}

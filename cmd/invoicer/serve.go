package main

import (
	"fmt"
	"os"

	"github.com/artpar/invoicer/bootstrap"
	"github.com/artpar/invoicer/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invoicing API server",
	Long: `Start the invoicer HTTP server.

The server will:
  - Load configuration from invoicer.yaml (or --config)
  - Or load configuration from INVOICER_* environment variables
  - Open the database and apply migrations
  - Serve the invoice API and client view links
  - Mark past-due invoices overdue on a schedule

Environment variables (for Docker deployments):
  INVOICER_DATABASE_DSN      - Database path (default: invoicer.db)
  INVOICER_SERVER_PORT       - Server port (default: 8080)
  INVOICER_PUBLIC_URL        - Base URL for client invoice links
  INVOICER_NUMBER_PATTERN    - Invoice number pattern
  INVOICER_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  invoicer serve
  invoicer serve --config /etc/invoicer/config.yaml
  invoicer serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		// Load config (file with env overrides, or env-only)
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Fprintln(cmd.OutOrStdout(), "Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/artpar/invoicer/adapters/sqlite"
	"github.com/artpar/invoicer/config"
	"github.com/artpar/invoicer/domain/numbering"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the invoicer configuration file.

Checks:
  - YAML syntax is valid
  - Field values are in range
  - Number pattern renders
  - Database is writable (optional)

Examples:
  invoicer validate
  invoicer validate --config /etc/invoicer/config.yaml --check-database`,
	RunE: runValidate,
}

var (
	validateCheckDatabase bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	// Show config summary
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Fprintf(out, "  %s Number pattern: %s (e.g. %s)\n", checkMark,
		cfg.Invoicing.NumberPattern, numbering.Example(cfg.Invoicing.NumberPattern, time.Now()))
	fmt.Fprintf(out, "  %s Currency: %s, due in %d days\n", checkMark, cfg.Invoicing.Currency, cfg.Invoicing.DefaultDueDays)
	fmt.Fprintf(out, "  %s Email provider: %s\n", checkMark, cfg.Email.Provider)
	if cfg.Secrets.Key == "" {
		fmt.Fprintf(out, "  %s Gateway secrets stored unsealed (secrets.key not set)\n", crossMark)
	} else {
		fmt.Fprintf(out, "  %s Gateway secrets sealed\n", checkMark)
	}

	// Optional: check database
	if validateCheckDatabase && cfg.Database.Driver == "sqlite" {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

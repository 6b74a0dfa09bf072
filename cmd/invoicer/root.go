package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Invoice calculation engine with numbering, status tracking and payments",
	Long: `Invoicer computes invoice totals, allocates per-day invoice numbers
and tracks each invoice from draft to paid.

Server:
  invoicer serve     # Start the HTTP API
  invoicer sweep     # Mark past-due invoices overdue once

Tools:
  invoicer totals    # Calculate totals for line items
  invoicer number    # Preview an invoice number pattern
  invoicer validate  # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "invoicer.yaml", "config file path")
}

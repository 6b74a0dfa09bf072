package main

import (
	"fmt"
	"time"

	"github.com/artpar/invoicer/domain/numbering"
	"github.com/spf13/cobra"
)

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Preview invoice numbers for a pattern",
	Long: `Render invoice numbers for a pattern without touching the database.

Placeholders:
  {YYYY} {YY} {MM} {DD}   date parts
  {0000}                  sequence padded to 4 digits
  {####}                  sequence without padding

Examples:
  invoicer number
  invoicer number --pattern "INV-{YY}{MM}{DD}-{####}" --count 3
  invoicer number --date 2024-03-01 --seq 12`,
	RunE: runNumber,
}

var (
	numberPattern string
	numberDate    string
	numberSeq     int
	numberCount   int
)

func init() {
	rootCmd.AddCommand(numberCmd)

	numberCmd.Flags().StringVarP(&numberPattern, "pattern", "p", numbering.DefaultPattern, "number pattern")
	numberCmd.Flags().StringVar(&numberDate, "date", "", "date as YYYY-MM-DD (default: today)")
	numberCmd.Flags().IntVar(&numberSeq, "seq", 1, "first sequence number of the day")
	numberCmd.Flags().IntVarP(&numberCount, "count", "n", 1, "how many numbers to print")
}

func runNumber(cmd *cobra.Command, args []string) error {
	if !numbering.ValidatePattern(numberPattern) {
		return fmt.Errorf("pattern must not be empty")
	}
	if numberSeq < 1 {
		return fmt.Errorf("--seq must be at least 1")
	}

	date := time.Now()
	if numberDate != "" {
		d, err := time.ParseInLocation("2006-01-02", numberDate, time.Local)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		date = d
	}

	for i := 0; i < numberCount; i++ {
		// Generate takes the count of earlier invoices that day.
		fmt.Fprintln(cmd.OutOrStdout(), numbering.Generate(numberPattern, date, numberSeq-1+i))
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Calculate invoice totals for line items",
	Long: `Calculate subtotal, tax, discount and total for a set of line items.

Each --item is description:quantity:unit_price. Rates are percentages
applied to the subtotal.

Examples:
  invoicer totals --item "Consulting:2:100" --tax 10 --discount 5
  invoicer totals --item "Design:1:500" --item "Hosting:12:9.99" --cost 300 --currency EUR`,
	RunE: runTotals,
}

var (
	totalsItems    []string
	totalsTax      string
	totalsDiscount string
	totalsCost     string
	totalsPaid     string
	totalsCurrency string
)

func init() {
	rootCmd.AddCommand(totalsCmd)

	totalsCmd.Flags().StringArrayVarP(&totalsItems, "item", "i", nil, "line item as description:quantity:unit_price (repeatable)")
	totalsCmd.Flags().StringVar(&totalsTax, "tax", "0", "tax rate percent")
	totalsCmd.Flags().StringVar(&totalsDiscount, "discount", "0", "discount rate percent")
	totalsCmd.Flags().StringVar(&totalsCost, "cost", "0", "cost price for profit margin")
	totalsCmd.Flags().StringVar(&totalsPaid, "paid", "0", "amount already paid")
	totalsCmd.Flags().StringVar(&totalsCurrency, "currency", "USD", "currency for display")
}

func runTotals(cmd *cobra.Command, args []string) error {
	if len(totalsItems) == 0 {
		return fmt.Errorf("at least one --item is required")
	}

	items := make([]invoice.LineItem, 0, len(totalsItems))
	for _, raw := range totalsItems {
		item, err := parseItem(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	if !invoice.ValidateItems(items) {
		return fmt.Errorf("items need a description, positive quantity and non-negative price")
	}

	rates := map[string]decimal.Decimal{}
	for name, raw := range map[string]string{"tax": totalsTax, "discount": totalsDiscount, "cost": totalsCost, "paid": totalsPaid} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("--%s must not be negative", name)
		}
		rates[name] = d
	}

	currency := strings.ToUpper(totalsCurrency)
	totals := invoice.CalculateTotals(items, rates["tax"], rates["discount"])

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtotal:   %s\n", invoice.FormatAmount(totals.Subtotal, currency))
	fmt.Fprintf(out, "Tax:        %s\n", invoice.FormatAmount(totals.TaxAmount, currency))
	fmt.Fprintf(out, "Discount:   %s\n", invoice.FormatAmount(totals.DiscountAmount, currency))
	fmt.Fprintf(out, "Total:      %s\n", invoice.FormatAmount(totals.Total, currency))

	if !rates["cost"].IsZero() {
		profit := invoice.CalculateProfitMargin(totals.Total, rates["cost"])
		fmt.Fprintf(out, "Margin:     %s (%s%%)\n", invoice.FormatAmount(profit.Margin, currency), profit.MarginPercentage.StringFixed(2))
	}
	if !rates["paid"].IsZero() {
		fmt.Fprintf(out, "Remaining:  %s\n", invoice.FormatAmount(invoice.CalculateRemainingAmount(totals.Total, rates["paid"]), currency))
	}
	return nil
}

// parseItem parses description:quantity:unit_price. The description may
// itself contain colons.
func parseItem(raw string) (invoice.LineItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return invoice.LineItem{}, fmt.Errorf("item %q: want description:quantity:unit_price", raw)
	}
	n := len(parts)
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("item %q quantity: %w", raw, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("item %q unit price: %w", raw, err)
	}
	return invoice.LineItem{
		Description: strings.TrimSpace(strings.Join(parts[:n-2], ":")),
		Quantity:    qty,
		UnitPrice:   price,
	}, nil
}

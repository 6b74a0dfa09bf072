// Package report aggregates invoices into summary figures.
package report

import (
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/shopspring/decimal"
)

// Summary is an aggregate view over a set of invoices (value type).
// Drafts are counted but excluded from every money figure.
type Summary struct {
	InvoiceCount     int
	ByStatus         map[invoice.Status]int
	TotalInvoiced    decimal.Decimal
	TotalPaid        decimal.Decimal
	TotalOutstanding decimal.Decimal
	OverdueAmount    decimal.Decimal
	TotalProfit      decimal.Decimal
}

// Summarize computes a Summary. The invoices' stored statuses are used
// as-is; refresh them first if overdue figures must reflect the current time.
func Summarize(invoices []invoice.Invoice) Summary {
	s := Summary{
		ByStatus:         make(map[invoice.Status]int),
		TotalInvoiced:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		OverdueAmount:    decimal.Zero,
		TotalProfit:      decimal.Zero,
	}

	for _, inv := range invoices {
		s.InvoiceCount++
		s.ByStatus[inv.Status]++

		if inv.Status == invoice.StatusDraft {
			continue
		}

		remaining := inv.Remaining()
		s.TotalInvoiced = s.TotalInvoiced.Add(inv.Total)
		s.TotalPaid = s.TotalPaid.Add(inv.AmountPaid)
		s.TotalOutstanding = s.TotalOutstanding.Add(remaining)
		if inv.Status == invoice.StatusOverdue {
			s.OverdueAmount = s.OverdueAmount.Add(remaining)
		}
		s.TotalProfit = s.TotalProfit.Add(inv.Profit().Margin)
	}

	return s
}

// CollectionRate returns the paid share of the invoiced total as a
// percentage rounded to two decimals, or zero when nothing was invoiced.
func (s Summary) CollectionRate() decimal.Decimal {
	if !s.TotalInvoiced.IsPositive() {
		return decimal.Zero
	}
	return invoice.RoundCents(s.TotalPaid.Div(s.TotalInvoiced).Mul(decimal.NewFromInt(100)))
}

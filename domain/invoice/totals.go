// Package invoice provides the invoice value types and the pure functions
// that compute money totals, profit, balances and payment status.
package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is a single billable line on an invoice (value type).
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Amount returns quantity × unit price, unrounded.
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Totals holds the computed money amounts for a set of line items.
// Every field is rounded to two decimal places.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Profit is the margin of an invoice total over its cost.
type Profit struct {
	Margin           decimal.Decimal `json:"margin"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
}

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateTotals computes subtotal, tax, discount and total.
// Rates are percentages (10 means 10%). Tax and discount are both applied
// to the subtotal, so discount does not reduce the taxable base.
// The total is not clamped: a discount above 100% yields a negative total.
func CalculateTotals(items []LineItem, taxRatePercent, discountRatePercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount())
	}

	tax := subtotal.Mul(taxRatePercent).Div(hundred)
	discount := subtotal.Mul(discountRatePercent).Div(hundred)
	total := subtotal.Add(tax).Sub(discount)

	return Totals{
		Subtotal:       RoundCents(subtotal),
		TaxAmount:      RoundCents(tax),
		DiscountAmount: RoundCents(discount),
		Total:          RoundCents(total),
	}
}

// ValidateItems reports whether items form an acceptable invoice body:
// at least one item, every quantity positive, every unit price
// non-negative and every description non-blank.
func ValidateItems(items []LineItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return false
		}
		if item.UnitPrice.IsNegative() {
			return false
		}
		if strings.TrimSpace(item.Description) == "" {
			return false
		}
	}
	return true
}

// CalculateProfitMargin returns total − cost and that margin as a
// percentage of cost. A cost of exactly zero yields a zero result.
func CalculateProfitMargin(total, cost decimal.Decimal) Profit {
	if cost.IsZero() {
		return Profit{Margin: decimal.Zero, MarginPercentage: decimal.Zero}
	}

	margin := total.Sub(cost)
	pct := margin.Div(cost).Mul(hundred)

	return Profit{
		Margin:           RoundCents(margin),
		MarginPercentage: RoundCents(pct),
	}
}

// CalculateRemainingAmount returns the unpaid balance, never below zero.
// Overpayment is not reported as a negative balance.
func CalculateRemainingAmount(total, paid decimal.Decimal) decimal.Decimal {
	remaining := RoundCents(total.Sub(paid))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

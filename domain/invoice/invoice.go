package invoice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotDraft is returned when sending an invoice that was already sent.
	ErrNotDraft = errors.New("invoice is not a draft")

	// ErrNotViewable is returned when a draft is marked as viewed.
	ErrNotViewable = errors.New("draft invoice cannot be viewed")

	// ErrDraftPayment is returned when recording a payment against a draft.
	ErrDraftPayment = errors.New("cannot record payment on a draft invoice")

	// ErrAlreadyPaid is returned when recording a payment on a settled invoice.
	ErrAlreadyPaid = errors.New("invoice is already paid")

	// ErrInvalidAmount is returned for zero or negative payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// Invoice represents an invoice issued by a user to a client (value type).
// Transitions return a modified copy and never mutate the receiver.
type Invoice struct {
	ID             string
	UserID         string
	Number         string
	ViewToken      string // public, unguessable; lets the client open the invoice
	ClientName     string
	ClientEmail    string
	Currency       string
	Items          []LineItem
	TaxRate        decimal.Decimal // percent
	DiscountRate   decimal.Decimal // percent
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CostPrice      decimal.Decimal
	AmountPaid     decimal.Decimal
	Status         Status
	DueDate        time.Time
	Notes          string
	SentAt         *time.Time
	ViewedAt       *time.Time
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Draft describes the fields a caller supplies for a new invoice.
type Draft struct {
	UserID       string
	ClientName   string
	ClientEmail  string
	Currency     string
	Items        []LineItem
	TaxRate      decimal.Decimal
	DiscountRate decimal.Decimal
	CostPrice    decimal.Decimal
	DueDate      time.Time
	Notes        string
}

// New builds a draft invoice with its totals computed from the items.
func New(id, number string, d Draft, now time.Time) Invoice {
	inv := Invoice{
		ID:           id,
		UserID:       d.UserID,
		Number:       number,
		ClientName:   d.ClientName,
		ClientEmail:  d.ClientEmail,
		Currency:     d.Currency,
		Items:        append([]LineItem(nil), d.Items...),
		TaxRate:      d.TaxRate,
		DiscountRate: d.DiscountRate,
		CostPrice:    d.CostPrice,
		AmountPaid:   decimal.Zero,
		Status:       StatusDraft,
		DueDate:      d.DueDate,
		Notes:        d.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return inv.withTotals()
}

func (inv Invoice) withTotals() Invoice {
	t := CalculateTotals(inv.Items, inv.TaxRate, inv.DiscountRate)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.DiscountAmount = t.DiscountAmount
	inv.Total = t.Total
	return inv
}

// Totals returns the stored money totals.
func (inv Invoice) Totals() Totals {
	return Totals{
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		Total:          inv.Total,
	}
}

// Remaining returns the unpaid balance.
func (inv Invoice) Remaining() decimal.Decimal {
	return CalculateRemainingAmount(inv.Total, inv.AmountPaid)
}

// Profit returns the margin of the total over the recorded cost.
func (inv Invoice) Profit() Profit {
	return CalculateProfitMargin(inv.Total, inv.CostPrice)
}

// IsOpen returns true if the invoice was issued and still has a balance.
func (inv Invoice) IsOpen() bool {
	switch inv.Status {
	case StatusSent, StatusViewed, StatusPartial, StatusOverdue:
		return true
	}
	return false
}

// Send issues a draft. The resulting status is resolved immediately, so an
// invoice whose due date has already passed goes straight to overdue and a
// zero-total invoice goes straight to paid.
func (inv Invoice) Send(now time.Time) (Invoice, error) {
	if inv.Status != StatusDraft {
		return inv, ErrNotDraft
	}
	inv.Status = StatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	inv = inv.Refresh(now)
	if inv.Status == StatusPaid && inv.PaidAt == nil {
		inv.PaidAt = &now
	}
	return inv, nil
}

// MarkViewed records that the client opened the invoice.
// Only a sent invoice changes status; later stages keep theirs.
func (inv Invoice) MarkViewed(now time.Time) (Invoice, error) {
	if inv.Status == StatusDraft {
		return inv, ErrNotViewable
	}
	if inv.ViewedAt == nil {
		inv.ViewedAt = &now
		inv.UpdatedAt = now
	}
	if inv.Status == StatusSent {
		inv.Status = StatusViewed
	}
	return inv, nil
}

// ApplyPayment adds amount to the paid total and re-resolves the status.
func (inv Invoice) ApplyPayment(amount decimal.Decimal, now time.Time) (Invoice, error) {
	if inv.Status == StatusDraft {
		return inv, ErrDraftPayment
	}
	if inv.Status == StatusPaid {
		return inv, ErrAlreadyPaid
	}
	if !amount.IsPositive() {
		return inv, ErrInvalidAmount
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.UpdatedAt = now
	inv = inv.Refresh(now)
	if inv.Status == StatusPaid && inv.PaidAt == nil {
		inv.PaidAt = &now
	}
	return inv, nil
}

// Refresh re-resolves the status against now without touching anything else.
func (inv Invoice) Refresh(now time.Time) Invoice {
	next := ResolveStatus(inv.Status, inv.Total, inv.AmountPaid, inv.DueDate, now)
	if next != inv.Status {
		inv.Status = next
		inv.UpdatedAt = now
	}
	return inv
}

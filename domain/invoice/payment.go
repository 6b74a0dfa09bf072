package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodGateway      PaymentMethod = "gateway"
	MethodOther        PaymentMethod = "other"
)

// ParsePaymentMethod converts a string into a PaymentMethod.
// An empty string maps to MethodOther.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodCash, MethodBankTransfer, MethodCard, MethodGateway, MethodOther:
		return m, nil
	case "":
		return MethodOther, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Payment records money received against an invoice (value type).
type Payment struct {
	ID        string
	InvoiceID string
	UserID    string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference string
	PaidAt    time.Time
	CreatedAt time.Time
}

// SumPayments returns the total of all payment amounts.
func SumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

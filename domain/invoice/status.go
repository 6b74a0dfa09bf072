package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the state of an invoice.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusViewed  Status = "viewed"
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusOverdue Status = "overdue"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft, StatusSent, StatusViewed, StatusPartial, StatusOverdue, StatusPaid,
}

// Valid returns true if s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown invoice status %q", s)
	}
	return st, nil
}

// paymentFacts is what the status rules look at.
type paymentFacts struct {
	paid      decimal.Decimal
	remaining decimal.Decimal
	pastDue   bool
}

type statusRule struct {
	status Status
	match  func(f paymentFacts) bool
}

// statusRules are evaluated in order; the first match wins.
var statusRules = []statusRule{
	{StatusPaid, func(f paymentFacts) bool {
		return f.remaining.IsZero()
	}},
	{StatusPartial, func(f paymentFacts) bool {
		return f.paid.IsPositive() && f.remaining.IsPositive()
	}},
	{StatusOverdue, func(f paymentFacts) bool {
		return f.pastDue && f.remaining.IsPositive()
	}},
	{StatusSent, func(paymentFacts) bool {
		return true
	}},
}

// DetermineStatus derives the payment status of an issued invoice from its
// total, the amount paid so far and its due date relative to now.
// It only ever returns paid, partial, overdue or sent. It has no notion of
// drafts: callers tracking a lifecycle should use ResolveStatus.
//
// A partially paid invoice past its due date is reported as partial.
func DetermineStatus(total, paid decimal.Decimal, dueDate, now time.Time) Status {
	f := paymentFacts{
		paid:      paid,
		remaining: CalculateRemainingAmount(total, paid),
		pastDue:   dueDate.Before(now),
	}
	for _, rule := range statusRules {
		if rule.match(f) {
			return rule.status
		}
	}
	return StatusSent
}

// ResolveStatus is DetermineStatus gated by the invoice's current lifecycle
// stage. A draft stays a draft until it is sent, and a viewed invoice is not
// demoted back to sent while nothing has been paid and it is not yet due.
func ResolveStatus(current Status, total, paid decimal.Decimal, dueDate, now time.Time) Status {
	if current == StatusDraft {
		return StatusDraft
	}
	next := DetermineStatus(total, paid, dueDate, now)
	if next == StatusSent && current == StatusViewed {
		return StatusViewed
	}
	return next
}

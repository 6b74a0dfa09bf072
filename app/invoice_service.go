// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/invoicer/adapters/metrics"
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/domain/numbering"
	"github.com/artpar/invoicer/domain/report"
	"github.com/artpar/invoicer/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingUser is returned when an operation has no owning user.
	ErrMissingUser = errors.New("user id is required")

	// ErrInvalidItems is returned when line items fail validation.
	ErrInvalidItems = errors.New("invoice needs at least one item with a description, positive quantity and non-negative price")

	// ErrInvalidRate is returned for negative tax or discount rates or cost.
	ErrInvalidRate = errors.New("rates and cost must not be negative")

	// ErrInvalidCurrency is returned for a currency that is not a 3-letter code.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// ErrInvalidEmail is returned for a client email that is not a single address.
	ErrInvalidEmail = errors.New("client email is not a valid address")

	// ErrMissingDueDate is returned when no due date is given and no default term is configured.
	ErrMissingDueDate = errors.New("due date is required")

	// ErrInvalidPattern is returned for an unusable invoice number pattern.
	ErrInvalidPattern = errors.New("invalid invoice number pattern")

	// ErrPDFDisabled is returned when PDF rendering is not configured.
	ErrPDFDisabled = errors.New("pdf rendering is disabled")
)

// viewTokenLength is the hex length of public view tokens.
const viewTokenLength = 32

// openStatuses are the statuses the overdue sweep re-evaluates.
var openStatuses = []invoice.Status{invoice.StatusSent, invoice.StatusViewed, invoice.StatusPartial}

// InvoiceOptions contains hot-reloadable invoicing configuration.
type InvoiceOptions struct {
	NumberPattern  string
	Currency       string
	DefaultDueDays int
	PublicURL      string // base for links sent to clients; empty omits the link
}

// InvoiceDeps contains dependencies for InvoiceService.
type InvoiceDeps struct {
	Invoices   ports.InvoiceStore
	Payments   ports.PaymentStore
	Clock      ports.Clock
	InvoiceIDs ports.IDGenerator
	PaymentIDs ports.IDGenerator
	Random     ports.Random
	Email      ports.EmailSender     // nil disables notifications
	Renderer   ports.InvoiceRenderer // nil disables PDFs
	Metrics    *metrics.Collector    // optional
	Logger     zerolog.Logger
}

// InvoiceService manages the invoice lifecycle for many users.
type InvoiceService struct {
	invoices   ports.InvoiceStore
	payments   ports.PaymentStore
	clock      ports.Clock
	invoiceIDs ports.IDGenerator
	paymentIDs ports.IDGenerator
	random     ports.Random
	email      ports.EmailSender
	renderer   ports.InvoiceRenderer
	metrics    *metrics.Collector
	logger     zerolog.Logger

	// Serialises number allocation per user and read-modify-write per invoice.
	locks *keyedMutex

	opts atomic.Pointer[InvoiceOptions]
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(deps InvoiceDeps, opts InvoiceOptions) (*InvoiceService, error) {
	s := &InvoiceService{
		invoices:   deps.Invoices,
		payments:   deps.Payments,
		clock:      deps.Clock,
		invoiceIDs: deps.InvoiceIDs,
		paymentIDs: deps.PaymentIDs,
		random:     deps.Random,
		email:      deps.Email,
		renderer:   deps.Renderer,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		locks:      newKeyedMutex(),
	}
	if err := s.UpdateOptions(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateOptions swaps the invoicing options. Safe to call while serving.
func (s *InvoiceService) UpdateOptions(opts InvoiceOptions) error {
	if !numbering.ValidatePattern(opts.NumberPattern) {
		return ErrInvalidPattern
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	opts.Currency = strings.ToUpper(opts.Currency)
	if !validCurrency(opts.Currency) {
		return ErrInvalidCurrency
	}
	opts.PublicURL = strings.TrimSuffix(opts.PublicURL, "/")
	s.opts.Store(&opts)
	return nil
}

// Options returns the current invoicing options.
func (s *InvoiceService) Options() InvoiceOptions {
	return *s.opts.Load()
}

// Location returns the time zone used for due dates and overdue checks.
func (s *InvoiceService) Location() *time.Location {
	return s.clock.Now().Location()
}

// CreateInvoiceInput contains what a caller supplies for a new invoice.
type CreateInvoiceInput struct {
	ClientName   string
	ClientEmail  string
	Currency     string // empty uses the configured default
	Items        []invoice.LineItem
	TaxRate      decimal.Decimal
	DiscountRate decimal.Decimal
	CostPrice    decimal.Decimal
	DueDate      time.Time // zero uses the default payment term
	Notes        string
}

// Create validates the input, allocates the next number for the user's
// current day and stores a new draft.
func (s *InvoiceService) Create(ctx context.Context, userID string, in CreateInvoiceInput) (invoice.Invoice, error) {
	if userID == "" {
		return invoice.Invoice{}, ErrMissingUser
	}
	if !invoice.ValidateItems(in.Items) {
		return invoice.Invoice{}, ErrInvalidItems
	}
	if in.TaxRate.IsNegative() || in.DiscountRate.IsNegative() || in.CostPrice.IsNegative() {
		return invoice.Invoice{}, ErrInvalidRate
	}

	clientEmail, err := normalizeEmail(in.ClientEmail)
	if err != nil {
		return invoice.Invoice{}, err
	}

	opts := s.Options()
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = opts.Currency
	}
	if !validCurrency(currency) {
		return invoice.Invoice{}, ErrInvalidCurrency
	}

	now := s.clock.Now()
	due := in.DueDate
	if due.IsZero() {
		if opts.DefaultDueDays <= 0 {
			return invoice.Invoice{}, ErrMissingDueDate
		}
		due = now.AddDate(0, 0, opts.DefaultDueDays)
	}

	token, err := s.random.Token(viewTokenLength)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("generate view token: %w", err)
	}

	unlock := s.locks.Lock("user:" + userID)
	defer unlock()

	number, err := s.nextNumber(ctx, userID, opts.NumberPattern, now)
	if err != nil {
		return invoice.Invoice{}, err
	}

	inv := invoice.New(s.invoiceIDs.New(), number, invoice.Draft{
		UserID:       userID,
		ClientName:   strings.TrimSpace(in.ClientName),
		ClientEmail:  clientEmail,
		Currency:     currency,
		Items:        in.Items,
		TaxRate:      in.TaxRate,
		DiscountRate: in.DiscountRate,
		CostPrice:    in.CostPrice,
		DueDate:      due,
		Notes:        in.Notes,
	}, now)
	inv.ViewToken = token

	if err := s.invoices.Create(ctx, inv); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create invoice")
		return invoice.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	if s.metrics != nil {
		s.metrics.InvoicesCreated.WithLabelValues(inv.Currency).Inc()
	}
	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("user_id", userID).
		Str("number", inv.Number).
		Str("total", inv.Total.StringFixed(2)).
		Msg("invoice created")

	return inv, nil
}

// nextNumber formats the number the user's next invoice created at now gets.
func (s *InvoiceService) nextNumber(ctx context.Context, userID, pattern string, now time.Time) (string, error) {
	start, end := numbering.DayBounds(now)
	count, err := s.invoices.CountCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return "", fmt.Errorf("count today's invoices: %w", err)
	}
	return numbering.Generate(pattern, now, count), nil
}

// NextNumber returns the number the user's next invoice would receive.
func (s *InvoiceService) NextNumber(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingUser
	}
	return s.nextNumber(ctx, userID, s.Options().NumberPattern, s.clock.Now())
}

// PreviewNumber renders an example number for pattern, or for the
// configured pattern when pattern is empty.
func (s *InvoiceService) PreviewNumber(pattern string) string {
	if pattern == "" {
		pattern = s.Options().NumberPattern
	}
	return numbering.Example(pattern, s.clock.Now())
}

// Get returns one of the user's invoices with its status current as of now.
func (s *InvoiceService) Get(ctx context.Context, userID, id string) (invoice.Invoice, error) {
	inv, err := s.load(ctx, userID, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return inv.Refresh(s.clock.Now()), nil
}

// load returns the stored invoice if it belongs to userID.
func (s *InvoiceService) load(ctx context.Context, userID, id string) (invoice.Invoice, error) {
	if userID == "" {
		return invoice.Invoice{}, ErrMissingUser
	}
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	// Another tenant's invoice is indistinguishable from a missing one.
	if inv.UserID != userID {
		return invoice.Invoice{}, ports.ErrNotFound
	}
	return inv, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status invoice.Status // empty matches all
	Limit  int            // 0 means no limit
}

// List returns the user's invoices, newest first.
func (s *InvoiceService) List(ctx context.Context, userID string, f ListFilter) ([]invoice.Invoice, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	limit := f.Limit
	if f.Status != "" {
		// Statuses are resolved after loading, so filter before limiting.
		limit = 0
	}
	all, err := s.invoices.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := make([]invoice.Invoice, 0, len(all))
	for _, inv := range all {
		inv = inv.Refresh(now)
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		result = append(result, inv)
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

// Send issues a draft invoice and, when the client has an email address,
// notifies them. A failed notification is logged and does not undo the send.
func (s *InvoiceService) Send(ctx context.Context, userID, id string) (invoice.Invoice, error) {
	unlock := s.locks.Lock("invoice:" + id)
	defer unlock()

	inv, err := s.load(ctx, userID, id)
	if err != nil {
		return invoice.Invoice{}, err
	}

	sent, err := inv.Send(s.clock.Now())
	if err != nil {
		return invoice.Invoice{}, err
	}
	if err := s.invoices.Update(ctx, sent); err != nil {
		return invoice.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}

	s.recordTransition(inv.Status, sent.Status)
	if s.metrics != nil {
		s.metrics.InvoicesSent.Inc()
	}
	s.logger.Info().
		Str("invoice_id", sent.ID).
		Str("number", sent.Number).
		Str("status", string(sent.Status)).
		Msg("invoice sent")

	if sent.ClientEmail != "" && s.email != nil {
		s.notify(ctx, sent)
	}
	return sent, nil
}

func (s *InvoiceService) notify(ctx context.Context, inv invoice.Invoice) {
	notice := ports.InvoiceNotice{
		To:         inv.ClientEmail,
		ClientName: inv.ClientName,
		Number:     inv.Number,
		AmountDue:  invoice.FormatAmount(inv.Remaining(), inv.Currency),
		DueDate:    inv.DueDate,
	}
	if base := s.Options().PublicURL; base != "" {
		notice.ViewURL = base + "/public/invoices/" + inv.ViewToken
	}
	if s.renderer != nil {
		pdf, err := s.renderer.RenderPDF(inv, nil)
		if err != nil {
			s.logger.Warn().Err(err).Str("invoice_id", inv.ID).Msg("failed to render pdf for email, sending without attachment")
		} else {
			notice.PDF = pdf
		}
	}

	if err := s.email.SendInvoice(ctx, notice); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationErrs.Inc()
		}
		s.logger.Error().Err(err).
			Str("invoice_id", inv.ID).
			Str("to", inv.ClientEmail).
			Msg("failed to email invoice")
		return
	}
	s.logger.Debug().Str("invoice_id", inv.ID).Str("to", inv.ClientEmail).Msg("invoice emailed")
}

// MarkViewed records that the client has seen the invoice.
func (s *InvoiceService) MarkViewed(ctx context.Context, userID, id string) (invoice.Invoice, error) {
	unlock := s.locks.Lock("invoice:" + id)
	defer unlock()

	inv, err := s.load(ctx, userID, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return s.markViewed(ctx, inv)
}

// ViewByToken returns the invoice behind a public view token and marks it
// viewed. Drafts are not published, so their tokens report not found.
func (s *InvoiceService) ViewByToken(ctx context.Context, token string) (invoice.Invoice, error) {
	if token == "" {
		return invoice.Invoice{}, ports.ErrNotFound
	}
	inv, err := s.invoices.GetByViewToken(ctx, token)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if inv.Status == invoice.StatusDraft {
		return invoice.Invoice{}, ports.ErrNotFound
	}

	unlock := s.locks.Lock("invoice:" + inv.ID)
	defer unlock()

	// Reload under the lock; a payment may have landed meanwhile.
	inv, err = s.invoices.Get(ctx, inv.ID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return s.markViewed(ctx, inv)
}

// markViewed refreshes and marks the stored invoice viewed, persisting
// only when something changed.
func (s *InvoiceService) markViewed(ctx context.Context, stored invoice.Invoice) (invoice.Invoice, error) {
	now := s.clock.Now()
	viewed, err := stored.Refresh(now).MarkViewed(now)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if viewed.Status == stored.Status && stored.ViewedAt != nil {
		return viewed, nil
	}
	if err := s.invoices.Update(ctx, viewed); err != nil {
		return invoice.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	s.recordTransition(stored.Status, viewed.Status)
	return viewed, nil
}

// PaymentInput describes money received against an invoice.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    invoice.PaymentMethod
	Reference string
	PaidAt    time.Time // zero means now
}

// RecordPayment stores a payment and applies it to the invoice.
func (s *InvoiceService) RecordPayment(ctx context.Context, userID, id string, in PaymentInput) (invoice.Invoice, invoice.Payment, error) {
	unlock := s.locks.Lock("invoice:" + id)
	defer unlock()

	inv, err := s.load(ctx, userID, id)
	if err != nil {
		return invoice.Invoice{}, invoice.Payment{}, err
	}

	now := s.clock.Now()
	updated, err := inv.ApplyPayment(in.Amount, now)
	if err != nil {
		return invoice.Invoice{}, invoice.Payment{}, err
	}

	method := in.Method
	if method == "" {
		method = invoice.MethodOther
	}
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	payment := invoice.Payment{
		ID:        s.paymentIDs.New(),
		InvoiceID: inv.ID,
		UserID:    userID,
		Amount:    in.Amount,
		Method:    method,
		Reference: strings.TrimSpace(in.Reference),
		PaidAt:    paidAt,
		CreatedAt: now,
	}

	if err := s.payments.Record(ctx, payment, updated); err != nil {
		return invoice.Invoice{}, invoice.Payment{}, fmt.Errorf("record payment: %w", err)
	}

	s.recordTransition(inv.Status, updated.Status)
	if s.metrics != nil {
		s.metrics.PaymentsRecorded.WithLabelValues(string(method)).Inc()
		s.metrics.PaymentsAmount.WithLabelValues(updated.Currency).Add(in.Amount.InexactFloat64())
	}
	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("payment_id", payment.ID).
		Str("amount", in.Amount.StringFixed(2)).
		Str("status", string(updated.Status)).
		Msg("payment recorded")

	return updated, payment, nil
}

// Payments returns the payments recorded against one of the user's invoices.
func (s *InvoiceService) Payments(ctx context.Context, userID, id string) ([]invoice.Payment, error) {
	if _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoice(ctx, id)
}

// RenderPDF renders one of the user's invoices with its payment history.
func (s *InvoiceService) RenderPDF(ctx context.Context, userID, id string) (invoice.Invoice, []byte, error) {
	if s.renderer == nil {
		return invoice.Invoice{}, nil, ErrPDFDisabled
	}
	inv, err := s.Get(ctx, userID, id)
	if err != nil {
		return invoice.Invoice{}, nil, err
	}
	payments, err := s.payments.ListByInvoice(ctx, id)
	if err != nil {
		return invoice.Invoice{}, nil, err
	}
	out, err := s.renderer.RenderPDF(inv, payments)
	if err != nil {
		return invoice.Invoice{}, nil, err
	}
	return inv, out, nil
}

// RefreshOverdue persists the status of every open invoice whose due date
// has passed. It returns how many invoices changed.
func (s *InvoiceService) RefreshOverdue(ctx context.Context) (int, error) {
	open, err := s.invoices.ListByStatus(ctx, openStatuses, 0)
	if err != nil {
		return 0, fmt.Errorf("list open invoices: %w", err)
	}

	changed := 0
	for _, candidate := range open {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		if candidate.Refresh(s.clock.Now()).Status == candidate.Status {
			continue
		}

		ok, err := s.refreshOne(ctx, candidate.ID)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func (s *InvoiceService) refreshOne(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock("invoice:" + id)
	defer unlock()

	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("reload invoice %s: %w", id, err)
	}
	refreshed := inv.Refresh(s.clock.Now())
	if refreshed.Status == inv.Status {
		return false, nil
	}
	if err := s.invoices.Update(ctx, refreshed); err != nil {
		return false, fmt.Errorf("update invoice %s: %w", id, err)
	}

	s.recordTransition(inv.Status, refreshed.Status)
	if refreshed.Status == invoice.StatusOverdue && s.metrics != nil {
		s.metrics.OverdueMarked.Inc()
	}
	s.logger.Info().
		Str("invoice_id", id).
		Str("from", string(inv.Status)).
		Str("to", string(refreshed.Status)).
		Msg("invoice status refreshed")
	return true, nil
}

// Summary aggregates all of the user's invoices as of now.
func (s *InvoiceService) Summary(ctx context.Context, userID string) (report.Summary, error) {
	invoices, err := s.List(ctx, userID, ListFilter{})
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(invoices), nil
}

func (s *InvoiceService) recordTransition(from, to invoice.Status) {
	if from == to || s.metrics == nil {
		return
	}
	s.metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// normalizeEmail returns the bare address of raw, or "" when raw is blank.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}

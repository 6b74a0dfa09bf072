// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/domain/invoice"
)

// Store errors shared by every storage adapter, so callers can match them
// without knowing which backend is wired.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
// Now must return times in the location whose calendar days number invoices.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// Token generates a random hex string of n characters.
	Token(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Sealer encrypts secrets before they are persisted.
type Sealer interface {
	// Seal encrypts plaintext into an opaque printable string.
	Seal(plaintext string) (string, error)
	// Open reverses Seal.
	Open(sealed string) (string, error)
}

// -----------------------------------------------------------------------------
// Storage Ports
// -----------------------------------------------------------------------------

// InvoiceStore persists invoices.
type InvoiceStore interface {
	// Create stores a new invoice.
	Create(ctx context.Context, inv invoice.Invoice) error

	// Get retrieves an invoice by ID.
	Get(ctx context.Context, id string) (invoice.Invoice, error)

	// GetByViewToken retrieves an invoice by its public view token.
	GetByViewToken(ctx context.Context, token string) (invoice.Invoice, error)

	// Update replaces a stored invoice.
	Update(ctx context.Context, inv invoice.Invoice) error

	// ListByUser returns a user's invoices, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]invoice.Invoice, error)

	// ListByStatus returns invoices of any user in one of the given statuses.
	ListByStatus(ctx context.Context, statuses []invoice.Status, limit int) ([]invoice.Invoice, error)

	// CountCreatedBetween counts a user's invoices with start <= created_at < end.
	CountCreatedBetween(ctx context.Context, userID string, start, end time.Time) (int, error)
}

// PaymentStore persists payments.
type PaymentStore interface {
	// Create stores a payment.
	Create(ctx context.Context, p invoice.Payment) error

	// Record stores p and saves inv together. Neither is written if
	// either fails, so stored payments always sum to inv.AmountPaid.
	Record(ctx context.Context, p invoice.Payment, inv invoice.Invoice) error

	// ListByInvoice returns payments for an invoice, oldest first.
	ListByInvoice(ctx context.Context, invoiceID string) ([]invoice.Payment, error)
}

// GatewaySettingsStore persists payment gateway settings per user and gateway.
type GatewaySettingsStore interface {
	// Get retrieves settings by key.
	Get(ctx context.Context, key gateway.Key) (gateway.Settings, error)

	// Save creates or replaces settings.
	Save(ctx context.Context, s gateway.Settings) error

	// ListByUser returns every gateway configured by a user.
	ListByUser(ctx context.Context, userID string) ([]gateway.Settings, error)

	// Delete removes settings by key.
	Delete(ctx context.Context, key gateway.Key) error
}

// -----------------------------------------------------------------------------
// Delivery Ports
// -----------------------------------------------------------------------------

// Attachment is a file attached to an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To          string
	Subject     string
	TextBody    string
	Attachments []Attachment
}

// InvoiceNotice carries what a client needs to know about an issued invoice.
type InvoiceNotice struct {
	To         string
	ClientName string
	Number     string
	AmountDue  string
	DueDate    time.Time
	ViewURL    string
	PDF        []byte
}

// EmailSender sends emails.
type EmailSender interface {
	// Send sends an email.
	Send(ctx context.Context, msg EmailMessage) error

	// SendInvoice notifies a client that an invoice was issued.
	SendInvoice(ctx context.Context, notice InvoiceNotice) error
}

// InvoiceRenderer renders a printable invoice document.
type InvoiceRenderer interface {
	RenderPDF(inv invoice.Invoice, payments []invoice.Payment) ([]byte, error)
}

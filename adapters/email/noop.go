package email

import (
	"context"

	"github.com/artpar/invoicer/ports"
)

// NoopSender is a no-op email sender for when email is disabled.
type NoopSender struct{}

// NewNoopSender creates a new no-op email sender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send does nothing.
func (s *NoopSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	return nil
}

// SendInvoice does nothing.
func (s *NoopSender) SendInvoice(ctx context.Context, notice ports.InvoiceNotice) error {
	return nil
}

// Ensure interface compliance.
var _ ports.EmailSender = (*NoopSender)(nil)

package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/invoicer/ports"
)

// MockSender is a mock email sender for testing.
// It stores sent emails in memory instead of actually sending them.
type MockSender struct {
	mu     sync.Mutex
	emails []SentEmail

	SenderName string

	// Optional: fail if set
	ShouldFail bool
	FailError  error
}

// SentEmail represents an email that was "sent" (stored in memory).
type SentEmail struct {
	To          string
	Subject     string
	TextBody    string
	Type        string // "invoice", "custom"
	Number      string // invoice number for "invoice" emails
	Attachments []ports.Attachment
}

// NewMockSender creates a new mock email sender.
func NewMockSender(senderName string) *MockSender {
	return &MockSender{SenderName: senderName}
}

// Send stores the email in memory.
func (m *MockSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	return m.record(msg, "custom", "")
}

// SendInvoice stores an invoice email in memory.
func (m *MockSender) SendInvoice(ctx context.Context, notice ports.InvoiceNotice) error {
	return m.record(InvoiceMessage(m.SenderName, notice), "invoice", notice.Number)
}

func (m *MockSender) record(msg ports.EmailMessage, kind, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldFail {
		if m.FailError != nil {
			return m.FailError
		}
		return fmt.Errorf("mock email send failure")
	}

	m.emails = append(m.emails, SentEmail{
		To:          msg.To,
		Subject:     msg.Subject,
		TextBody:    msg.TextBody,
		Type:        kind,
		Number:      number,
		Attachments: msg.Attachments,
	})
	return nil
}

// GetEmails returns all stored emails.
func (m *MockSender) GetEmails() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]SentEmail, len(m.emails))
	copy(result, m.emails)
	return result
}

// GetLastEmail returns the most recently stored email.
func (m *MockSender) GetLastEmail() (SentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.emails) == 0 {
		return SentEmail{}, false
	}
	return m.emails[len(m.emails)-1], true
}

// FindByTo finds all emails sent to a specific address.
func (m *MockSender) FindByTo(to string) []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []SentEmail
	for _, e := range m.emails {
		if e.To == to {
			result = append(result, e)
		}
	}
	return result
}

// Count returns the number of emails sent.
func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emails)
}

// Clear removes all stored emails.
func (m *MockSender) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = nil
}

// SetShouldFail configures the mock to fail on all send attempts.
func (m *MockSender) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFail = fail
	m.FailError = err
}

// Ensure interface compliance.
var _ ports.EmailSender = (*MockSender)(nil)

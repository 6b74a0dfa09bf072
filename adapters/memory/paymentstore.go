package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
)

// PaymentStore is an in-memory implementation of ports.PaymentStore.
// Record saves invoices through the InvoiceStore it was built with.
type PaymentStore struct {
	mu        sync.RWMutex
	invoices  *InvoiceStore
	ids       map[string]bool
	byInvoice map[string][]invoice.Payment
}

// NewPaymentStore creates a new in-memory payment store whose Record
// writes invoices to invoices.
func NewPaymentStore(invoices *InvoiceStore) *PaymentStore {
	return &PaymentStore{
		invoices:  invoices,
		ids:       make(map[string]bool),
		byInvoice: make(map[string][]invoice.Payment),
	}
}

// Create stores a payment.
func (s *PaymentStore) Create(ctx context.Context, p invoice.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(p)
}

func (s *PaymentStore) createLocked(p invoice.Payment) error {
	if s.ids[p.ID] {
		return ErrDuplicate
	}
	s.ids[p.ID] = true
	s.byInvoice[p.InvoiceID] = append(s.byInvoice[p.InvoiceID], p)
	return nil
}

// Record stores p and saves inv together. Neither is written if either fails.
func (s *PaymentStore) Record(ctx context.Context, p invoice.Payment, inv invoice.Invoice) error {
	if s.invoices == nil {
		return errors.New("memory: payment store has no invoice store")
	}

	// Lock order: invoices, then payments.
	s.invoices.mu.Lock()
	defer s.invoices.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[p.ID] {
		return ErrDuplicate
	}
	if err := s.invoices.updateLocked(inv); err != nil {
		return err
	}
	return s.createLocked(p)
}

// ListByInvoice returns payments for an invoice, oldest first.
func (s *PaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]invoice.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := append([]invoice.Payment(nil), s.byInvoice[invoiceID]...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PaidAt.Before(result[j].PaidAt)
	})
	return result, nil
}

// Ensure interface compliance.
var _ ports.PaymentStore = (*PaymentStore)(nil)

// Package memory provides in-memory implementations of storage ports,
// used by tests and by the "memory" database driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
)

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = ports.ErrNotFound

// ErrDuplicate is returned when an entity already exists.
var ErrDuplicate = ports.ErrDuplicate

// InvoiceStore is an in-memory implementation of ports.InvoiceStore.
type InvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]invoice.Invoice // by ID
	byToken  map[string]string          // view token -> ID
}

// NewInvoiceStore creates a new in-memory invoice store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices: make(map[string]invoice.Invoice),
		byToken:  make(map[string]string),
	}
}

// Create stores a new invoice.
func (s *InvoiceStore) Create(ctx context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return ErrDuplicate
	}
	if inv.ViewToken != "" {
		if _, exists := s.byToken[inv.ViewToken]; exists {
			return ErrDuplicate
		}
		s.byToken[inv.ViewToken] = inv.ID
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	s.invoices[inv.ID] = clone(inv)
	return nil
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, ErrNotFound
	}
	return clone(inv), nil
}

// GetByViewToken retrieves an invoice by its public view token.
func (s *InvoiceStore) GetByViewToken(ctx context.Context, token string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok || token == "" {
		return invoice.Invoice{}, ErrNotFound
	}
	return clone(s.invoices[id]), nil
}

// Update replaces a stored invoice.
func (s *InvoiceStore) Update(ctx context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(inv)
}

// updateLocked requires s.mu held for writing. It changes nothing on error.
func (s *InvoiceStore) updateLocked(inv invoice.Invoice) error {
	old, ok := s.invoices[inv.ID]
	if !ok {
		return ErrNotFound
	}
	if inv.ViewToken != old.ViewToken {
		if inv.ViewToken != "" {
			if _, exists := s.byToken[inv.ViewToken]; exists {
				return ErrDuplicate
			}
			s.byToken[inv.ViewToken] = inv.ID
		}
		delete(s.byToken, old.ViewToken)
	}
	s.invoices[inv.ID] = clone(inv)
	return nil
}

// ListByUser returns a user's invoices, newest first.
func (s *InvoiceStore) ListByUser(ctx context.Context, userID string, limit int) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []invoice.Invoice
	for _, inv := range s.invoices {
		if inv.UserID == userID {
			result = append(result, clone(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return truncate(result, limit), nil
}

// ListByStatus returns invoices in any of the given statuses, oldest due first.
func (s *InvoiceStore) ListByStatus(ctx context.Context, statuses []invoice.Status, limit int) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[invoice.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var result []invoice.Invoice
	for _, inv := range s.invoices {
		if want[inv.Status] {
			result = append(result, clone(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].DueDate.Before(result[j].DueDate)
	})
	return truncate(result, limit), nil
}

// CountCreatedBetween counts a user's invoices created in [start, end).
func (s *InvoiceStore) CountCreatedBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, inv := range s.invoices {
		if inv.UserID != userID {
			continue
		}
		if !inv.CreatedAt.Before(start) && inv.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

func clone(inv invoice.Invoice) invoice.Invoice {
	inv.Items = append([]invoice.LineItem(nil), inv.Items...)
	return inv
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

// Ensure interface compliance.
var _ ports.InvoiceStore = (*InvoiceStore)(nil)

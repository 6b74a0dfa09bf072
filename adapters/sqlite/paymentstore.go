package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
)

// PaymentStore implements ports.PaymentStore using SQLite.
type PaymentStore struct {
	db *DB
}

// NewPaymentStore creates a new SQLite payment store.
func NewPaymentStore(db *DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// Create stores a payment.
func (s *PaymentStore) Create(ctx context.Context, p invoice.Payment) error {
	return insertPayment(ctx, s.db, p)
}

// Record stores p and saves inv in one transaction. Neither is written if
// either fails.
func (s *PaymentStore) Record(ctx context.Context, p invoice.Payment, inv invoice.Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := insertPayment(ctx, tx, p); err != nil {
		tx.Rollback()
		return err
	}
	if err := updateInvoice(ctx, tx, inv); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment %s: %w", p.ID, err)
	}
	return nil
}

func insertPayment(ctx context.Context, ex execer, p invoice.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = p.CreatedAt
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, user_id, amount, method, reference, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.InvoiceID, p.UserID, p.Amount, string(p.Method), nullString(p.Reference),
		p.PaidAt.UTC(), p.CreatedAt.UTC(),
	)
	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// ListByInvoice returns payments for an invoice, oldest first.
func (s *PaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]invoice.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_id, user_id, amount, method, reference, paid_at, created_at
		FROM payments
		WHERE invoice_id = ?
		ORDER BY paid_at ASC, id ASC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []invoice.Payment
	for rows.Next() {
		var p invoice.Payment
		var method string
		var reference sql.NullString
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.UserID, &p.Amount, &method, &reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Method = invoice.PaymentMethod(method)
		p.Reference = reference.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Ensure interface compliance.
var _ ports.PaymentStore = (*PaymentStore)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
)

const invoiceColumns = `
	id, user_id, number, view_token, client_name, client_email, currency, items,
	tax_rate, discount_rate, subtotal, tax_amount, discount_amount, total,
	cost_price, amount_paid, status, due_date, notes,
	sent_at, viewed_at, paid_at, created_at, updated_at`

// InvoiceStore implements ports.InvoiceStore using SQLite.
type InvoiceStore struct {
	db *DB
}

// NewInvoiceStore creates a new SQLite invoice store.
func NewInvoiceStore(db *DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Create stores a new invoice.
func (s *InvoiceStore) Create(ctx context.Context, inv invoice.Invoice) error {
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}

	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.UserID, inv.Number, nullString(inv.ViewToken),
		inv.ClientName, nullString(inv.ClientEmail), inv.Currency, string(itemsJSON),
		inv.TaxRate, inv.DiscountRate, inv.Subtotal, inv.TaxAmount, inv.DiscountAmount, inv.Total,
		inv.CostPrice, inv.AmountPaid, string(inv.Status), inv.DueDate.UTC(), nullString(inv.Notes),
		nullTime(inv.SentAt), nullTime(inv.ViewedAt), nullTime(inv.PaidAt),
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

// GetByViewToken retrieves an invoice by its public view token.
func (s *InvoiceStore) GetByViewToken(ctx context.Context, token string) (invoice.Invoice, error) {
	if token == "" {
		return invoice.Invoice{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE view_token = ?`, token)
	return scanInvoice(row)
}

// Update replaces the mutable fields of a stored invoice.
func (s *InvoiceStore) Update(ctx context.Context, inv invoice.Invoice) error {
	return updateInvoice(ctx, s.db, inv)
}

// execer is satisfied by both *DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateInvoice(ctx context.Context, ex execer, inv invoice.Invoice) error {
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now().UTC()
	}

	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	result, err := ex.ExecContext(ctx, `
		UPDATE invoices SET
			number = ?, view_token = ?, client_name = ?, client_email = ?, currency = ?, items = ?,
			tax_rate = ?, discount_rate = ?, subtotal = ?, tax_amount = ?, discount_amount = ?, total = ?,
			cost_price = ?, amount_paid = ?, status = ?, due_date = ?, notes = ?,
			sent_at = ?, viewed_at = ?, paid_at = ?, updated_at = ?
		WHERE id = ?
	`,
		inv.Number, nullString(inv.ViewToken), inv.ClientName, nullString(inv.ClientEmail), inv.Currency, string(itemsJSON),
		inv.TaxRate, inv.DiscountRate, inv.Subtotal, inv.TaxAmount, inv.DiscountAmount, inv.Total,
		inv.CostPrice, inv.AmountPaid, string(inv.Status), inv.DueDate.UTC(), nullString(inv.Notes),
		nullTime(inv.SentAt), nullTime(inv.ViewedAt), nullTime(inv.PaidAt), inv.UpdatedAt.UTC(),
		inv.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns invoices for a user, newest first.
func (s *InvoiceStore) ListByUser(ctx context.Context, userID string, limit int) ([]invoice.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListByStatus returns invoices in any of the given statuses, oldest due first.
func (s *InvoiceStore) ListByStatus(ctx context.Context, statuses []invoice.Status, limit int) ([]invoice.Invoice, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(statuses)+1)
	for _, st := range statuses {
		args = append(args, string(st))
	}
	args = append(args, sqlLimit(limit))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN (`+placeholders(len(statuses))+`)
		ORDER BY due_date ASC, id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// CountCreatedBetween counts a user's invoices created in [start, end).
func (s *InvoiceStore) CountCreatedBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invoices
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
	`, userID, start.UTC(), end.UTC()).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func collectInvoices(rows *sql.Rows) ([]invoice.Invoice, error) {
	defer rows.Close()

	var invoices []invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (invoice.Invoice, error) {
	var inv invoice.Invoice
	var status, itemsJSON string
	var viewToken, clientEmail, notes sql.NullString
	var sentAt, viewedAt, paidAt sql.NullTime

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.Number, &viewToken, &inv.ClientName, &clientEmail, &inv.Currency, &itemsJSON,
		&inv.TaxRate, &inv.DiscountRate, &inv.Subtotal, &inv.TaxAmount, &inv.DiscountAmount, &inv.Total,
		&inv.CostPrice, &inv.AmountPaid, &status, &inv.DueDate, &notes,
		&sentAt, &viewedAt, &paidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return invoice.Invoice{}, ErrNotFound
	}
	if err != nil {
		return invoice.Invoice{}, err
	}

	inv.Status = invoice.Status(status)
	inv.ViewToken = viewToken.String
	inv.ClientEmail = clientEmail.String
	inv.Notes = notes.String
	inv.SentAt = timePtr(sentAt)
	inv.ViewedAt = timePtr(viewedAt)
	inv.PaidAt = timePtr(paidAt)

	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &inv.Items); err != nil {
			return invoice.Invoice{}, fmt.Errorf("decode items: %w", err)
		}
	}

	return inv, nil
}

// Ensure interface compliance.
var _ ports.InvoiceStore = (*InvoiceStore)(nil)

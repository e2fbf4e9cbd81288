package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// InvoiceRepo persists invoices.  Invoice creation always happens in
// the same transaction that flags the billed lines, so a crash can
// never leave an invoice without its lines marked or vice versa.
type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// CreateTx inserts an invoice row and returns its ID.
func (r *InvoiceRepo) CreateTx(ctx context.Context, tx *sql.Tx, number string, folioID uint64, total decimal.Decimal, issued time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (number, folio_id, total, issued_date) VALUES (?, ?, ?, ?)`,
		number, folioID, total, issued.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an invoice.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (model.Invoice, error) {
	var inv model.Invoice
	err := r.db.QueryRowContext(ctx,
		`SELECT id, number, folio_id, total, issued_date, created_at FROM invoices WHERE id = ?`,
		id).Scan(&inv.ID, &inv.Number, &inv.FolioID, &inv.Total, &inv.IssuedDate, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

// ListByFolio returns a folio's invoices, newest first.
func (r *InvoiceRepo) ListByFolio(ctx context.Context, folioID uint64) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, folio_id, total, issued_date, created_at FROM invoices
		 WHERE folio_id = ? ORDER BY id DESC`, folioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Invoice, 0)
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.FolioID, &inv.Total, &inv.IssuedDate, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// FolioRepo provides persistence for folios and their transaction lines.
// Every mutation of the ledger (posting, void, move, invoice flagging)
// runs inside the caller's transaction after the folio row has been
// locked with GetByIDForUpdateTx; that per-folio serialization is what
// keeps concurrent postings from losing updates to the derived balance
// and keeps a void from racing an invoice.
type FolioRepo struct {
	db *sql.DB
}

// NewFolioRepo returns a new FolioRepo bound to the given database.
func NewFolioRepo(db *sql.DB) *FolioRepo { return &FolioRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *FolioRepo) DB() *sql.DB { return r.db }

const folioCols = `id, guest_id, reservation_id, status, open_date, close_date, created_at, updated_at`

func scanFolio(row interface{ Scan(...interface{}) error }) (model.Folio, error) {
	var (
		f     model.Folio
		resID sql.NullInt64
		cd    sql.NullTime
	)
	err := row.Scan(&f.ID, &f.GuestID, &resID, &f.Status, &f.OpenDate, &cd, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return model.Folio{}, err
	}
	if resID.Valid {
		v := uint64(resID.Int64)
		f.ReservationID = &v
	}
	if cd.Valid {
		v := cd.Time
		f.CloseDate = &v
	}
	return f, nil
}

// CreateTx inserts a folio within the caller's transaction and returns
// its generated ID.
func (r *FolioRepo) CreateTx(ctx context.Context, tx *sql.Tx, guestID uint64, reservationID *uint64, status string, openDate time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO folios (guest_id, reservation_id, status, open_date) VALUES (?, ?, ?, ?)`,
		guestID, reservationID, status, openDate.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a folio outside any transaction.
func (r *FolioRepo) GetByID(ctx context.Context, id uint64) (model.Folio, error) {
	f, err := scanFolio(r.db.QueryRowContext(ctx,
		`SELECT `+folioCols+` FROM folios WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.Folio{}, ErrFolioNotFound
	}
	return f, err
}

// GetByIDForUpdateTx fetches a folio inside tx with a row lock.  Take
// this lock before touching the folio's transactions; for cross-folio
// moves lock both folios in ascending ID order to avoid deadlock.
func (r *FolioRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Folio, error) {
	f, err := scanFolio(tx.QueryRowContext(ctx,
		`SELECT `+folioCols+` FROM folios WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.Folio{}, ErrFolioNotFound
	}
	return f, err
}

// UpdateStatusTx transitions a folio's status.  When closing, the close
// date is stamped; reopening clears it.
func (r *FolioRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	var err error
	switch status {
	case model.FolioClosed:
		_, err = tx.ExecContext(ctx,
			`UPDATE folios SET status = ?, close_date = ? WHERE id = ?`,
			status, time.Now().UTC().Format(dateLayout), id)
	case model.FolioOpen:
		_, err = tx.ExecContext(ctx,
			`UPDATE folios SET status = ?, close_date = NULL WHERE id = ?`, status, id)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE folios SET status = ? WHERE id = ?`, status, id)
	}
	return err
}

const txnCols = `id, folio_id, posting_date, item_code, description, qty, rate, amount,
	is_void, void_reason, is_invoiced, reference, created_at, updated_at`

func scanTxn(row interface{ Scan(...interface{}) error }) (model.FolioTransaction, error) {
	var (
		t      model.FolioTransaction
		reason sql.NullString
	)
	err := row.Scan(&t.ID, &t.FolioID, &t.PostingDate, &t.ItemCode, &t.Description,
		&t.Qty, &t.Rate, &t.Amount, &t.IsVoid, &reason, &t.IsInvoiced, &t.Reference,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.FolioTransaction{}, err
	}
	if reason.Valid {
		v := reason.String
		t.VoidReason = &v
	}
	return t, nil
}

// Transactions returns the folio's lines in posting order.
func (r *FolioRepo) Transactions(ctx context.Context, folioID uint64) ([]model.FolioTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txnCols+` FROM folio_transactions WHERE folio_id = ? ORDER BY id ASC`, folioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

// TransactionsTx is the transactional variant used when a balance must
// be computed under the folio lock.
func (r *FolioRepo) TransactionsTx(ctx context.Context, tx *sql.Tx, folioID uint64) ([]model.FolioTransaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+txnCols+` FROM folio_transactions WHERE folio_id = ? ORDER BY id ASC`, folioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

func collectTxns(rows *sql.Rows) ([]model.FolioTransaction, error) {
	out := make([]model.FolioTransaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTransactionTx appends a line to a folio within the caller's
// transaction and populates the generated ID.
func (r *FolioRepo) InsertTransactionTx(ctx context.Context, tx *sql.Tx, t *model.FolioTransaction) error {
	const q = `INSERT INTO folio_transactions
		(folio_id, posting_date, item_code, description, qty, rate, amount, is_void, void_reason, is_invoiced, reference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.FolioID, t.PostingDate.Format(dateLayout), t.ItemCode, t.Description,
		t.Qty, t.Rate, t.Amount, t.IsVoid, t.VoidReason, t.IsInvoiced, t.Reference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetTransaction fetches a line outside any transaction, used to learn
// which folio to lock before mutating the line.
func (r *FolioRepo) GetTransaction(ctx context.Context, id uint64) (model.FolioTransaction, error) {
	t, err := scanTxn(r.db.QueryRowContext(ctx,
		`SELECT `+txnCols+` FROM folio_transactions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.FolioTransaction{}, ErrTransactionNotFound
	}
	return t, err
}

// GetTransactionForUpdateTx re-fetches a line under a row lock so the
// void/invoice flags observed are the ones the mutation acts on.
func (r *FolioRepo) GetTransactionForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.FolioTransaction, error) {
	t, err := scanTxn(tx.QueryRowContext(ctx,
		`SELECT `+txnCols+` FROM folio_transactions WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.FolioTransaction{}, ErrTransactionNotFound
	}
	return t, err
}

// VoidTransactionTx sets the void flag and reason.  The amount is kept
// for the audit trail; balance computations exclude the line from now
// on.  The guard clauses in the WHERE make the write a no-op if the
// line was concurrently voided or invoiced, which the caller detects
// via the affected-row count.
func (r *FolioRepo) VoidTransactionTx(ctx context.Context, tx *sql.Tx, id uint64, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE folio_transactions SET is_void = 1, void_reason = ?
		 WHERE id = ? AND is_void = 0 AND is_invoiced = 0`, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// MoveTransactionsTx reassigns a batch of lines to the target folio.
// The caller has already locked both folios and verified every line is
// movable under GetTransactionForUpdateTx; this is the single batched
// write, so the batch moves whole or not at all.
func (r *FolioRepo) MoveTransactionsTx(ctx context.Context, tx *sql.Tx, ids []uint64, targetFolioID uint64) error {
	if len(ids) == 0 {
		return ErrValidation
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, targetFolioID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `UPDATE folio_transactions SET folio_id = ?
		WHERE id IN (` + strings.Join(placeholders, ",") + `) AND is_void = 0 AND is_invoiced = 0`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		// A line changed under us between the guarded read and this
		// write; rolling back keeps the all-or-none contract.
		return ErrInvalidState
	}
	return nil
}

// HasItemOnDateTx reports whether the folio already carries a non-void
// line for the item on the posting date.  The night audit and the
// check-in first-night charge use it to never bill a room twice for the
// same day.
func (r *FolioRepo) HasItemOnDateTx(ctx context.Context, tx *sql.Tx, folioID uint64, date time.Time, itemCode string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM folio_transactions
		 WHERE folio_id = ? AND posting_date = ? AND item_code = ? AND is_void = 0`,
		folioID, date.Format(dateLayout), itemCode).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UnbilledTx returns the folio's invoiceable lines (non-void,
// non-invoiced) under row locks, so the set cannot change between
// selection and the invoiced-flag write.
func (r *FolioRepo) UnbilledTx(ctx context.Context, tx *sql.Tx, folioID uint64) ([]model.FolioTransaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+txnCols+` FROM folio_transactions
		 WHERE folio_id = ? AND is_void = 0 AND is_invoiced = 0 ORDER BY id ASC FOR UPDATE`, folioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

// MarkInvoicedTx flags a set of lines as invoiced.  Called in the same
// transaction that inserts the invoice row, so the invoice and the
// flags are inseparable.
func (r *FolioRepo) MarkInvoicedTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `UPDATE folio_transactions SET is_invoiced = 1
		WHERE id IN (` + strings.Join(placeholders, ",") + `) AND is_void = 0 AND is_invoiced = 0`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return ErrInvalidState
	}
	return nil
}

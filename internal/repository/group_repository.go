package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// GroupRepo persists group bookings.
type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *GroupRepo) DB() *sql.DB { return r.db }

const groupCols = `id, name, status, arrival_date, departure_date, master_folio_id, created_at, updated_at`

func scanGroup(row interface{ Scan(...interface{}) error }) (model.GroupBooking, error) {
	var (
		g      model.GroupBooking
		master sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.Name, &g.Status, &g.ArrivalDate, &g.DepartureDate,
		&master, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.GroupBooking{}, err
	}
	if master.Valid {
		v := uint64(master.Int64)
		g.MasterFolioID = &v
	}
	return g, nil
}

// Create inserts a group booking in DRAFT status.
func (r *GroupRepo) Create(ctx context.Context, name string, arrival, departure time.Time) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO group_bookings (name, status, arrival_date, departure_date) VALUES (?, ?, ?, ?)`,
		name, model.GroupDraft, arrival.Format(dateLayout), departure.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a group booking.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (model.GroupBooking, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx,
		`SELECT `+groupCols+` FROM group_bookings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.GroupBooking{}, ErrGroupNotFound
	}
	return g, err
}

// GetByIDForUpdateTx locks the group row.  Taken before creating the
// master folio so two concurrent requests cannot both pass the
// already-exists check.
func (r *GroupRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.GroupBooking, error) {
	g, err := scanGroup(tx.QueryRowContext(ctx,
		`SELECT `+groupCols+` FROM group_bookings WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.GroupBooking{}, ErrGroupNotFound
	}
	return g, err
}

// List returns all group bookings, newest first.
func (r *GroupRepo) List(ctx context.Context) ([]model.GroupBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupCols+` FROM group_bookings ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.GroupBooking, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetMasterFolioTx attaches a master folio.  The guard in the WHERE
// makes the attach idempotent-safe: a second attach finds the column
// already set and reports the conflict.
func (r *GroupRepo) SetMasterFolioTx(ctx context.Context, tx *sql.Tx, groupID, folioID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE group_bookings SET master_folio_id = ? WHERE id = ? AND master_folio_id IS NULL`,
		folioID, groupID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMasterFolioExists
	}
	return nil
}

// UpdateStatusTx transitions the group's lifecycle status.
func (r *GroupRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE group_bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// UpdateStatus is the non-transactional variant used when the status
// change stands alone.
func (r *GroupRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE group_bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

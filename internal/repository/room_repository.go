package repository

import (
	"context"
	"database/sql"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// dateLayout is the format used for DATE columns in query parameters.
const dateLayout = "2006-01-02"

// RoomRepo provides persistence for physical rooms.  Status changes that
// belong to the reservation lifecycle (check-in, check-out, room move)
// always run through the ...Tx variants inside the caller's transaction;
// the room row lock taken by those transactions is what serializes
// concurrent check-ins on the same room.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomCols = `id, room_number, room_type_id, status, is_enabled, created_at, updated_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.RoomNumber, &rm.RoomTypeID, &rm.Status, &rm.IsEnabled, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

// Create inserts a room and returns its generated ID.
func (r *RoomRepo) Create(ctx context.Context, roomNumber string, roomTypeID uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (room_number, room_type_id, status, is_enabled) VALUES (?, ?, ?, 1)`,
		roomNumber, roomTypeID, model.RoomAvailable)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room outside any transaction.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// GetByIDForUpdateTx fetches a room inside tx with a row lock.  Every
// check-then-act on room state starts here: two transactions locking the
// same room serialize, so a concurrent check-in cannot slip between the
// availability check and the status write.
func (r *RoomRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// List returns all rooms ordered by room number.  When enabledOnly is
// true, disabled rooms are skipped.
func (r *RoomRepo) List(ctx context.Context, enabledOnly bool) ([]model.Room, error) {
	q := `SELECT ` + roomCols + ` FROM rooms`
	if enabledOnly {
		q += ` WHERE is_enabled = 1`
	}
	q += ` ORDER BY room_number ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// UpdateStatusTx sets a room's physical status inside the caller's
// transaction.
func (r *RoomRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// SetEnabled toggles whether a room can be sold.
func (r *RoomRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// HasActiveStayTx reports whether any RESERVED or CHECKED_IN reservation
// currently references the room.  Used to keep housekeeping from marking
// an occupied room available by hand.
func (r *RoomRepo) HasActiveStayTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE room_id = ? AND status = ?`,
		id, model.ResCheckedIn).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

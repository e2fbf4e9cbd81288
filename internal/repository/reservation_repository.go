package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// ReservationRepo provides persistence for reservations.  Lifecycle
// mutations (status, room assignment, folio link, departure extension)
// only exist as ...Tx variants because they are always part of a larger
// atomic operation alongside room and folio writes.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const resCols = `id, guest_id, room_id, room_type_id, rate_plan_id, arrival_date, departure_date,
	status, group_booking_id, folio_id, is_complimentary, discount_type, discount_value,
	created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (model.Reservation, error) {
	var (
		res       model.Reservation
		roomID    sql.NullInt64
		planID    sql.NullInt64
		groupID   sql.NullInt64
		folioID   sql.NullInt64
		discValue decimal.Decimal
	)
	err := row.Scan(&res.ID, &res.GuestID, &roomID, &res.RoomTypeID, &planID,
		&res.ArrivalDate, &res.DepartureDate, &res.Status, &groupID, &folioID,
		&res.IsComplimentary, &res.DiscountType, &discValue, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	res.DiscountValue = discValue
	if roomID.Valid {
		v := uint64(roomID.Int64)
		res.RoomID = &v
	}
	if planID.Valid {
		v := uint64(planID.Int64)
		res.RatePlanID = &v
	}
	if groupID.Valid {
		v := uint64(groupID.Int64)
		res.GroupBookingID = &v
	}
	if folioID.Valid {
		v := uint64(folioID.Int64)
		res.FolioID = &v
	}
	return res, nil
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and populates the generated ID.  The caller is responsible
// for the availability check and for commit/rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(guest_id, room_id, room_type_id, rate_plan_id, arrival_date, departure_date,
		 status, group_booking_id, is_complimentary, discount_type, discount_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.GuestID, res.RoomID, res.RoomTypeID, res.RatePlanID,
		res.ArrivalDate.Format(dateLayout), res.DepartureDate.Format(dateLayout),
		res.Status, res.GroupBookingID, res.IsComplimentary, res.DiscountType, res.DiscountValue)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches a reservation outside any transaction.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+resCols+` FROM reservations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

// GetByIDForUpdateTx fetches a reservation inside tx with a row lock so
// concurrent lifecycle operations on the same stay serialize.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+resCols+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

// List returns reservations newest first, optionally filtered by status.
func (r *ReservationRepo) List(ctx context.Context, status string) ([]model.Reservation, error) {
	q := `SELECT ` + resCols + ` FROM reservations`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListByGroup returns the group's member reservations, optionally
// filtered by status, ordered by ID for deterministic batch processing.
func (r *ReservationRepo) ListByGroup(ctx context.Context, groupID uint64, status string) ([]model.Reservation, error) {
	q := `SELECT ` + resCols + ` FROM reservations WHERE group_booking_id = ?`
	args := []interface{}{groupID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListCheckedIn returns every in-house reservation.  The night audit
// walks this list to post the day's room charges.
func (r *ReservationRepo) ListCheckedIn(ctx context.Context) ([]model.Reservation, error) {
	return r.List(ctx, model.ResCheckedIn)
}

// UpdateStatusTx transitions a reservation's status inside the caller's
// transaction.  The guard against illegal transitions lives in the
// handler via model.CanTransition; this is the raw write.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// AssignRoomTx points a reservation at a different room (room moves).
func (r *ReservationRepo) AssignRoomTx(ctx context.Context, tx *sql.Tx, id, roomID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET room_id = ? WHERE id = ?`, roomID, id)
	return err
}

// SetFolioTx links the stay's folio back onto the reservation.
func (r *ReservationRepo) SetFolioTx(ctx context.Context, tx *sql.Tx, id, folioID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET folio_id = ? WHERE id = ?`, folioID, id)
	return err
}

// SetGroupTx links a reservation into a group booking.
func (r *ReservationRepo) SetGroupTx(ctx context.Context, tx *sql.Tx, id, groupID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET group_booking_id = ? WHERE id = ?`, groupID, id)
	return err
}

// ExtendDeparture pushes the departure date out, used by the night audit
// when a guest is still in house past the scheduled departure.
func (r *ReservationRepo) ExtendDeparture(ctx context.Context, id uint64, newDeparture time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET departure_date = ? WHERE id = ?`,
		newDeparture.Format(dateLayout), id)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// AvailabilityRepo answers "is room R free for [arrival, departure)?" and
// enumerates sellable rooms.  All methods are pure queries with no side
// effects.  Overlap uses half-open semantics throughout: an existing
// stay's departure date does not conflict with a new arrival on the same
// day, so the checkout day stays sellable.
//
// The non-Tx methods are advisory reads for the UI.  Mutating flows
// (check-in, room move, bulk reserve) must call ConflictsTx after taking
// the room row lock, so the check and the write commit as one atomic
// unit.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the given
// database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// Conflict describes one reservation blocking a requested interval.
type Conflict struct {
	ReservationID uint64    `json:"reservation_id"`
	GuestID       uint64    `json:"guest_id"`
	ArrivalDate   time.Time `json:"arrival_date"`
	DepartureDate time.Time `json:"departure_date"`
	Status        string    `json:"status"`
}

// conflictQuery is the half-open overlap test shared by every check:
// an active reservation conflicts iff its arrival is before the new
// departure AND its departure is after the new arrival.
const conflictQuery = `SELECT id, guest_id, arrival_date, departure_date, status
	FROM reservations
	WHERE room_id = ?
	  AND status IN (?, ?)
	  AND arrival_date < ?
	  AND departure_date > ?
	  AND id != ?`

// Conflicts returns the active reservations overlapping [arrival,
// departure) on the room, excluding ignoreReservation (0 to exclude
// nothing).  The exclusion lets a reservation being edited skip its own
// conflict.
func (r *AvailabilityRepo) Conflicts(ctx context.Context, roomID uint64, arrival, departure time.Time, ignoreReservation uint64) ([]Conflict, error) {
	rows, err := r.db.QueryContext(ctx, conflictQuery,
		roomID, model.ResReserved, model.ResCheckedIn,
		departure.Format(dateLayout), arrival.Format(dateLayout), ignoreReservation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConflicts(rows)
}

// ConflictsTx is the transactional variant used by mutating flows.  The
// caller must already hold the room row lock (RoomRepo.GetByIDForUpdateTx)
// so that two concurrent check-then-acts on the same room serialize.
func (r *AvailabilityRepo) ConflictsTx(ctx context.Context, tx *sql.Tx, roomID uint64, arrival, departure time.Time, ignoreReservation uint64) ([]Conflict, error) {
	rows, err := tx.QueryContext(ctx, conflictQuery,
		roomID, model.ResReserved, model.ResCheckedIn,
		departure.Format(dateLayout), arrival.Format(dateLayout), ignoreReservation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConflicts(rows)
}

func collectConflicts(rows *sql.Rows) ([]Conflict, error) {
	out := make([]Conflict, 0)
	for rows.Next() {
		var c Conflict
		if err := rows.Scan(&c.ReservationID, &c.GuestID, &c.ArrivalDate, &c.DepartureDate, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AvailableRoom is one sellable room returned by ListAvailable.
type AvailableRoom struct {
	ID         uint64 `json:"id"`
	RoomNumber string `json:"room_number"`
	RoomTypeID uint64 `json:"room_type_id"`
	Status     string `json:"status"`
}

// ListAvailable enumerates enabled, in-order rooms with no overlapping
// active reservation for [arrival, departure).  roomTypeID of 0 means
// any type.  A malformed range yields an empty list, never an error;
// callers validate before invoking.
func (r *AvailabilityRepo) ListAvailable(ctx context.Context, roomTypeID uint64, arrival, departure time.Time) ([]AvailableRoom, error) {
	if !model.ValidStayRange(arrival, departure) {
		return []AvailableRoom{}, nil
	}
	const q = `SELECT id, room_number, room_type_id, status
		FROM rooms
		WHERE is_enabled = 1
		  AND status != ?
		  AND (? = 0 OR room_type_id = ?)
		  AND id NOT IN (
			  SELECT room_id FROM reservations
			  WHERE room_id IS NOT NULL
				AND status IN (?, ?)
				AND arrival_date < ?
				AND departure_date > ?
		  )
		ORDER BY room_number ASC`
	rows, err := r.db.QueryContext(ctx, q,
		model.RoomOutOfOrder, roomTypeID, roomTypeID,
		model.ResReserved, model.ResCheckedIn,
		departure.Format(dateLayout), arrival.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AvailableRoom, 0)
	for rows.Next() {
		var a AvailableRoom
		if err := rows.Scan(&a.ID, &a.RoomNumber, &a.RoomTypeID, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TypeCount is the per-room-type occupancy summary for a date range.
type TypeCount struct {
	RoomTypeID uint64 `json:"room_type_id"`
	TypeCode   string `json:"type_code"`
	Total      int    `json:"total"`
	Occupied   int    `json:"occupied"`
	Available  int    `json:"available"`
}

// Counts summarizes enabled rooms per type over [start, end): a room
// counts as occupied when any active reservation overlaps the range or
// the room is out of order.  A malformed range yields an empty summary.
func (r *AvailabilityRepo) Counts(ctx context.Context, start, end time.Time) ([]TypeCount, error) {
	if !model.DateOnly(start).Before(model.DateOnly(end)) {
		return []TypeCount{}, nil
	}
	const q = `SELECT rt.id, rt.code,
			COUNT(rm.id),
			SUM(CASE WHEN rm.status = ? OR EXISTS (
				SELECT 1 FROM reservations rs
				WHERE rs.room_id = rm.id
				  AND rs.status IN (?, ?)
				  AND rs.arrival_date < ?
				  AND rs.departure_date > ?
			) THEN 1 ELSE 0 END)
		FROM room_types rt
		JOIN rooms rm ON rm.room_type_id = rt.id AND rm.is_enabled = 1
		GROUP BY rt.id, rt.code
		ORDER BY rt.code ASC`
	rows, err := r.db.QueryContext(ctx, q,
		model.RoomOutOfOrder, model.ResReserved, model.ResCheckedIn,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TypeCount, 0)
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.RoomTypeID, &tc.TypeCode, &tc.Total, &tc.Occupied); err != nil {
			return nil, err
		}
		tc.Available = tc.Total - tc.Occupied
		out = append(out, tc)
	}
	return out, rows.Err()
}

// ChartBooking is one bar on the tape chart: a stay laid over its room
// for the queried window.
type ChartBooking struct {
	ReservationID uint64    `json:"reservation_id"`
	RoomID        uint64    `json:"room_id"`
	GuestID       uint64    `json:"guest_id"`
	ArrivalDate   time.Time `json:"arrival_date"`
	DepartureDate time.Time `json:"departure_date"`
	Status        string    `json:"status"`
}

// TapeChart returns the enabled rooms plus every active stay touching
// [start, end), which is everything the room-by-date occupancy grid
// needs.
func (r *AvailabilityRepo) TapeChart(ctx context.Context, start, end time.Time) ([]AvailableRoom, []ChartBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_number, room_type_id, status FROM rooms WHERE is_enabled = 1 ORDER BY room_number ASC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	rooms := make([]AvailableRoom, 0)
	for rows.Next() {
		var a AvailableRoom
		if err := rows.Scan(&a.ID, &a.RoomNumber, &a.RoomTypeID, &a.Status); err != nil {
			return nil, nil, err
		}
		rooms = append(rooms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	const bq = `SELECT id, room_id, guest_id, arrival_date, departure_date, status
		FROM reservations
		WHERE room_id IS NOT NULL
		  AND status IN (?, ?)
		  AND arrival_date < ?
		  AND departure_date > ?
		ORDER BY room_id, arrival_date`
	brows, err := r.db.QueryContext(ctx, bq,
		model.ResReserved, model.ResCheckedIn,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, nil, err
	}
	defer brows.Close()
	bookings := make([]ChartBooking, 0)
	for brows.Next() {
		var b ChartBooking
		if err := brows.Scan(&b.ReservationID, &b.RoomID, &b.GuestID, &b.ArrivalDate, &b.DepartureDate, &b.Status); err != nil {
			return nil, nil, err
		}
		bookings = append(bookings, b)
	}
	return rooms, bookings, brows.Err()
}

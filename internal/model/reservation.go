package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses.  RESERVED is the only initial state.  CHECKED_OUT
// and CANCELLED are terminal; nothing ever transitions back to RESERVED.
const (
	ResReserved   = "RESERVED"
	ResCheckedIn  = "CHECKED_IN"
	ResCheckedOut = "CHECKED_OUT"
	ResCancelled  = "CANCELLED"
)

// Discount types applied by the nightly room charge.
const (
	DiscountNone       = ""
	DiscountPercentage = "PERCENTAGE"
	DiscountAmount     = "AMOUNT"
)

// Reservation records a guest's stay booking.  The room may stay nil
// until assignment; check-in requires one.  A reservation holds its room
// for [ArrivalDate, DepartureDate) – the departure day itself is sellable
// to the next guest.
//
// Fields:
//  ID             – primary key identifier.
//  GuestID        – guest who owns the stay.
//  RoomID         – assigned room (nullable until assigned).
//  RoomTypeID     – booked category, used when no room is picked yet.
//  RatePlanID     – optional negotiated rate plan.
//  ArrivalDate    – first night (inclusive).
//  DepartureDate  – checkout day (exclusive).
//  Status         – RESERVED, CHECKED_IN, CHECKED_OUT or CANCELLED.
//  GroupBookingID – optional link to a group booking.
//  FolioID        – folio opened for this stay.
type Reservation struct {
	ID              uint64          `json:"id"`
	GuestID         uint64          `json:"guest_id"`
	RoomID          *uint64         `json:"room_id"`
	RoomTypeID      uint64          `json:"room_type_id"`
	RatePlanID      *uint64         `json:"rate_plan_id,omitempty"`
	ArrivalDate     time.Time       `json:"arrival_date"`
	DepartureDate   time.Time       `json:"departure_date"`
	Status          string          `json:"status"`
	GroupBookingID  *uint64         `json:"group_booking_id,omitempty"`
	FolioID         *uint64         `json:"folio_id,omitempty"`
	IsComplimentary bool            `json:"is_complimentary"`
	DiscountType    string          `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Active reports whether the reservation holds its room: RESERVED and
// CHECKED_IN count against availability, terminal states do not.
func (r *Reservation) Active() bool {
	return r.Status == ResReserved || r.Status == ResCheckedIn
}

// CanTransition enforces the one-directional lifecycle:
// RESERVED -> CHECKED_IN -> CHECKED_OUT, with RESERVED -> CANCELLED as
// the only other edge.
func CanTransition(from, to string) bool {
	switch from {
	case ResReserved:
		return to == ResCheckedIn || to == ResCancelled
	case ResCheckedIn:
		return to == ResCheckedOut
	}
	return false
}

// DateOnly truncates t to midnight UTC so DATE columns and wall-clock
// times compare cleanly.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidStayRange reports whether [arrival, departure) is a legal stay:
// departure strictly after arrival.  A zero-night stay is not a stay.
func ValidStayRange(arrival, departure time.Time) bool {
	return DateOnly(arrival).Before(DateOnly(departure))
}

// Overlaps reports whether two half-open stay intervals conflict.
// The checkout day is excluded on both sides, so a departure on the
// other stay's arrival date is not a conflict.
func Overlaps(arrivalA, departureA, arrivalB, departureB time.Time) bool {
	return DateOnly(arrivalA).Before(DateOnly(departureB)) &&
		DateOnly(departureA).After(DateOnly(arrivalB))
}

// ConflictsWith reports whether the reservation's stay would collide with
// the given interval.  Inactive reservations never conflict.
func (r *Reservation) ConflictsWith(arrival, departure time.Time) bool {
	if !r.Active() {
		return false
	}
	return Overlaps(arrival, departure, r.ArrivalDate, r.DepartureDate)
}

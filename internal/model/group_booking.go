package model

import "time"

// Group booking statuses.
const (
	GroupDraft      = "DRAFT"
	GroupConfirmed  = "CONFIRMED"
	GroupInHouse    = "IN_HOUSE"
	GroupCheckedOut = "CHECKED_OUT"
	GroupCancelled  = "CANCELLED"
)

// GroupBooking ties a set of reservations together for mass operations
// and shared billing.  The relation to member reservations is a
// back-reference: removing a reservation from the group never destroys
// the reservation.
type GroupBooking struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	ArrivalDate   time.Time `json:"arrival_date"`
	DepartureDate time.Time `json:"departure_date"`
	MasterFolioID *uint64   `json:"master_folio_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithinWindow reports whether a member stay fits inside the group's
// arrival/departure window.
func (g *GroupBooking) WithinWindow(arrival, departure time.Time) bool {
	return !DateOnly(arrival).Before(DateOnly(g.ArrivalDate)) &&
		!DateOnly(departure).After(DateOnly(g.DepartureDate))
}

// BatchItemError describes one failed member of a batch operation.
type BatchItemError struct {
	ReservationID uint64 `json:"reservation_id,omitempty"`
	RoomID        uint64 `json:"room_id,omitempty"`
	Reason        string `json:"reason"`
}

// BatchResult is the partial-success contract shared by the group
// operations: succeeded members and failed members are both reported,
// and the overall call never fails because a member did.
type BatchResult struct {
	Succeeded []uint64         `json:"succeeded"`
	Failed    []BatchItemError `json:"failed"`
}

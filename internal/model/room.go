package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Room physical statuses.  OCCUPIED and DIRTY are driven by the
// reservation lifecycle; AVAILABLE is only reachable again through a
// housekeeping action, never directly from a check-out.
const (
	RoomAvailable  = "AVAILABLE"
	RoomOccupied   = "OCCUPIED"
	RoomDirty      = "DIRTY"
	RoomOutOfOrder = "OUT_OF_ORDER"
)

// Room describes a physical hotel room.  Rooms are uniquely identified
// by their room number.  A disabled room is skipped by every
// availability query regardless of status.
//
// Fields:
//  ID         – primary key identifier.
//  RoomNumber – human-facing number ("101", "PH-2").
//  RoomTypeID – room type the rate lookup falls back to.
//  Status     – physical status (AVAILABLE, OCCUPIED, DIRTY, OUT_OF_ORDER).
//  IsEnabled  – whether the room can be sold at all.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Room struct {
	ID         uint64    `json:"id"`
	RoomNumber string    `json:"room_number"`
	RoomTypeID uint64    `json:"room_type_id"`
	Status     string    `json:"status"`
	IsEnabled  bool      `json:"is_enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Sellable reports whether the room may be offered or assigned at all.
// A disabled room is withdrawn from inventory and an OUT_OF_ORDER room
// is blocked regardless of date.
func (r *Room) Sellable() bool {
	return r.IsEnabled && r.Status != RoomOutOfOrder
}

// ValidRoomStatus reports whether s is one of the four physical statuses.
func ValidRoomStatus(s string) bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomDirty, RoomOutOfOrder:
		return true
	}
	return false
}

// HousekeepingCanSet reports whether housekeeping may set a room to the
// given status by hand.  OCCUPIED is owned by the reservation lifecycle:
// it is only ever entered through a check-in or room move, so a manual
// request for it is rejected.
func HousekeepingCanSet(status string) bool {
	return ValidRoomStatus(status) && status != RoomOccupied
}

// RoomType groups rooms that share a default nightly rate.
type RoomType struct {
	ID          uint64          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	DefaultRate decimal.Decimal `json:"default_rate"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RatePlan overrides the room type's default rate inside its validity
// window.  Outside [ValidFrom, ValidTo] the default rate applies.
type RatePlan struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	RoomTypeID uint64          `json:"room_type_id"`
	Rate       decimal.Decimal `json:"rate"`
	ValidFrom  time.Time       `json:"valid_from"`
	ValidTo    time.Time       `json:"valid_to"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RateFor resolves the nightly rate for a posting date: the plan rate
// when the date falls inside the plan window (inclusive on both ends),
// otherwise the room type default.  A nil plan always yields the default.
func RateFor(plan *RatePlan, defaultRate decimal.Decimal, date time.Time) decimal.Decimal {
	if plan == nil {
		return defaultRate
	}
	d := DateOnly(date)
	if d.Before(DateOnly(plan.ValidFrom)) || d.After(DateOnly(plan.ValidTo)) {
		return defaultRate
	}
	return plan.Rate
}

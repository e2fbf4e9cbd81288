package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHousekeepingCanSet(t *testing.T) {
	assert.True(t, HousekeepingCanSet(RoomAvailable))
	assert.True(t, HousekeepingCanSet(RoomDirty))
	assert.True(t, HousekeepingCanSet(RoomOutOfOrder))

	// OCCUPIED only changes through check-in and check-out.
	assert.False(t, HousekeepingCanSet(RoomOccupied))
	assert.False(t, HousekeepingCanSet("SPARKLING"))
	assert.False(t, HousekeepingCanSet(""))
}

func TestGroupWithinWindow(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	g := GroupBooking{ArrivalDate: day(10), DepartureDate: day(15)}

	assert.True(t, g.WithinWindow(day(10), day(15)))
	assert.True(t, g.WithinWindow(day(11), day(13)))
	assert.False(t, g.WithinWindow(day(9), day(12)))
	assert.False(t, g.WithinWindow(day(12), day(16)))
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlapsHalfOpen(t *testing.T) {
	// Stay on room 101: 2024-01-10 -> 2024-01-12.
	arr, dep := day("2024-01-10"), day("2024-01-12")

	// A request straddling the last night conflicts.
	assert.True(t, Overlaps(day("2024-01-11"), day("2024-01-13"), arr, dep))

	// Arriving on the checkout day does not: the departure date is sellable.
	assert.False(t, Overlaps(day("2024-01-12"), day("2024-01-14"), arr, dep))

	// Departing on the arrival day does not conflict either.
	assert.False(t, Overlaps(day("2024-01-08"), day("2024-01-10"), arr, dep))

	// Full containment conflicts both ways.
	assert.True(t, Overlaps(day("2024-01-09"), day("2024-01-15"), arr, dep))
	assert.True(t, Overlaps(day("2024-01-10"), day("2024-01-11"), arr, dep))

	// Identical interval conflicts.
	assert.True(t, Overlaps(arr, dep, arr, dep))
}

func TestOverlapsIgnoresClock(t *testing.T) {
	// Times of day must not matter; only the calendar dates do.
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	d := time.Date(2024, 3, 3, 0, 5, 0, 0, time.UTC)
	assert.False(t, Overlaps(day("2024-03-03"), day("2024-03-05"), a, d))
	assert.True(t, Overlaps(day("2024-03-02"), day("2024-03-04"), a, d))
}

func TestValidStayRange(t *testing.T) {
	assert.True(t, ValidStayRange(day("2024-01-10"), day("2024-01-11")))
	assert.False(t, ValidStayRange(day("2024-01-10"), day("2024-01-10")))
	assert.False(t, ValidStayRange(day("2024-01-12"), day("2024-01-10")))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{ResReserved, ResCheckedIn, true},
		{ResReserved, ResCancelled, true},
		{ResCheckedIn, ResCheckedOut, true},
		{ResCheckedIn, ResCancelled, false},
		{ResCheckedIn, ResReserved, false},
		{ResCheckedOut, ResCheckedIn, false},
		{ResCheckedOut, ResReserved, false},
		{ResCancelled, ResReserved, false},
		{ResCancelled, ResCheckedIn, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestConflictsWithSkipsInactive(t *testing.T) {
	r := Reservation{
		ArrivalDate:   day("2024-01-10"),
		DepartureDate: day("2024-01-12"),
		Status:        ResCancelled,
	}
	assert.False(t, r.ConflictsWith(day("2024-01-10"), day("2024-01-12")))

	r.Status = ResCheckedIn
	assert.True(t, r.ConflictsWith(day("2024-01-11"), day("2024-01-13")))
}

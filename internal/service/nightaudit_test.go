package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRunLaterToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	next := NextRun(now, 14)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC), next)
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 1, 0, time.UTC)
	next := NextRun(now, 14)
	assert.Equal(t, time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC), next)
}

func TestNextRunExactlyAtHourMovesForward(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	next := NextRun(now, 14)
	assert.True(t, next.After(now))
	assert.Equal(t, 14, next.Hour())
}

package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

func setupAvailability(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AvailabilityHandler) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewAvailabilityHandler(repository.NewAvailabilityRepo(db), repository.NewRoomRepo(db))
	return db, mock, h
}

func checkRequest(h *AvailabilityHandler, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/availability/check?"+query, nil)
	rec := httptest.NewRecorder()
	_ = h.Check(e.NewContext(req, rec))
	return rec
}

func roomRow(status string, enabled bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_number", "room_type_id", "status", "is_enabled", "created_at", "updated_at"}).
		AddRow(7, "101", 1, status, enabled, now, now)
}

// An OUT_OF_ORDER room is never available, even with no overlapping
// reservations at all.  The reservations table must not even be consulted.
func TestAvailabilityCheckOutOfOrderRoom(t *testing.T) {
	db, mock, h := setupAvailability(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, room_number`).
		WithArgs(7).
		WillReturnRows(roomRow(model.RoomOutOfOrder, true))

	rec := checkRequest(h, "room_id=7&arrival=2026-09-01&departure=2026-09-03")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
	assert.Contains(t, rec.Body.String(), "room is out of order")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCheckDisabledRoom(t *testing.T) {
	db, mock, h := setupAvailability(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, room_number`).
		WithArgs(7).
		WillReturnRows(roomRow(model.RoomAvailable, false))

	rec := checkRequest(h, "room_id=7&arrival=2026-09-01&departure=2026-09-03")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
	assert.Contains(t, rec.Body.String(), "room is disabled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCheckUnknownRoom(t *testing.T) {
	db, mock, h := setupAvailability(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, room_number`).
		WithArgs(7).
		WillReturnError(sql.ErrNoRows)

	rec := checkRequest(h, "room_id=7&arrival=2026-09-01&departure=2026-09-03")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCheckSellableRoomNoConflicts(t *testing.T) {
	db, mock, h := setupAvailability(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, room_number`).
		WithArgs(7).
		WillReturnRows(roomRow(model.RoomAvailable, true))
	mock.ExpectQuery(`SELECT id, guest_id, arrival_date`).
		WithArgs(7, model.ResReserved, model.ResCheckedIn, "2026-09-03", "2026-09-01", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "guest_id", "arrival_date", "departure_date", "status"}))

	rec := checkRequest(h, "room_id=7&arrival=2026-09-01&departure=2026-09-03")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

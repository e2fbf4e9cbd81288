package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

// AvailabilityHandler serves the read-only room availability surface:
// the per-room conflict check, the free-room list, per-type counts and
// the tape chart.  All queries share the half-open stay semantics: the
// departure day is sellable to the next guest.
type AvailabilityHandler struct {
	Availability *repository.AvailabilityRepo
	RoomStore    *repository.RoomRepo
}

func NewAvailabilityHandler(a *repository.AvailabilityRepo, r *repository.RoomRepo) *AvailabilityHandler {
	if a == nil || r == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: a, RoomStore: r}
}

// Check handles GET /v1/availability/check.  Query params: room_id,
// arrival, departure, ignore_reservation (optional).  Returns whether
// the room is free for the interval and the conflicting stays if not.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.QueryParam("room_id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}
	arrival, err := parseDate(c.QueryParam("arrival"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival must be YYYY-MM-DD"})
	}
	departure, err := parseDate(c.QueryParam("departure"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure must be YYYY-MM-DD"})
	}
	if !arrival.Before(departure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure must be after arrival"})
	}
	var ignore uint64
	if s := c.QueryParam("ignore_reservation"); s != "" {
		ignore, _ = strconv.ParseUint(s, 10, 64)
	}

	// The room itself gates the answer before any overlap is weighed: a
	// disabled or OUT_OF_ORDER room is never available, whatever the dates.
	room, err := h.RoomStore.GetByID(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !room.Sellable() {
		reason := "room is disabled"
		if room.Status == model.RoomOutOfOrder {
			reason = "room is out of order"
		}
		return c.JSON(http.StatusOK, echo.Map{
			"available": false,
			"reason":    reason,
			"conflicts": []repository.Conflict{},
		})
	}

	conflicts, err := h.Availability.Conflicts(c.Request().Context(), roomID, arrival, departure, ignore)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
	})
}

// Rooms handles GET /v1/availability/rooms.  Query params: room_type
// (optional, 0 = any), arrival, departure.  A malformed range yields an
// empty list rather than an error so the desk UI can poll fearlessly.
func (h *AvailabilityHandler) Rooms(c echo.Context) error {
	var roomTypeID uint64
	if s := c.QueryParam("room_type"); s != "" {
		roomTypeID, _ = strconv.ParseUint(s, 10, 64)
	}
	arrival, errA := parseDate(c.QueryParam("arrival"))
	departure, errD := parseDate(c.QueryParam("departure"))
	if errA != nil || errD != nil {
		return c.JSON(http.StatusOK, echo.Map{"rooms": []struct{}{}})
	}

	rooms, err := h.Availability.ListAvailable(c.Request().Context(), roomTypeID, arrival, departure)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Counts handles GET /v1/availability/counts.  Query params: start, end.
func (h *AvailabilityHandler) Counts(c echo.Context) error {
	start, errS := parseDate(c.QueryParam("start"))
	end, errE := parseDate(c.QueryParam("end"))
	if errS != nil || errE != nil {
		return c.JSON(http.StatusOK, echo.Map{"counts": []struct{}{}})
	}
	counts, err := h.Availability.Counts(c.Request().Context(), start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts})
}

// TapeChart handles GET /v1/tape-chart.  Query params: start, end.
// Returns the room list and every active stay touching the window so
// the client can lay bookings over a room-by-date grid.
func (h *AvailabilityHandler) TapeChart(c echo.Context) error {
	start, errS := parseDate(c.QueryParam("start"))
	end, errE := parseDate(c.QueryParam("end"))
	if errS != nil || errE != nil || !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and end must be YYYY-MM-DD with start < end"})
	}
	rooms, bookings, err := h.Availability.TapeChart(c.Request().Context(), start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rooms":    rooms,
		"bookings": bookings,
	})
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

// HousekeepingHandler serves the room status board and manual status
// updates.  OCCUPIED is never set by hand; it only changes through
// check-in and check-out.
type HousekeepingHandler struct {
	Rooms *repository.RoomRepo
}

func NewHousekeepingHandler(rooms *repository.RoomRepo) *HousekeepingHandler {
	if rooms == nil {
		panic("nil repository passed to NewHousekeepingHandler")
	}
	return &HousekeepingHandler{Rooms: rooms}
}

// Board handles GET /v1/housekeeping/rooms, the full room status list
// including disabled rooms.
func (h *HousekeepingHandler) Board(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

type roomStatusReq struct {
	Status string `json:"status"`
}

// SetStatus handles POST /v1/rooms/:id/status.  A room with a guest in
// house keeps OCCUPIED no matter what the request says.
func (h *HousekeepingHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.HousekeepingCanSet(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room status"})
	}
	ctx := c.Request().Context()

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied, err := h.Rooms.HasActiveStayTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if occupied {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has a guest in house"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, id, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":     room.ID,
		"room_number": room.RoomNumber,
		"status":      status,
	})
}

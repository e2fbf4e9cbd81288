package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/repository"
)

// PropertyHandler covers the property setup surface: rooms, room
// types, rate plans, guest profiles and the void reason catalogue.
type PropertyHandler struct {
	Rooms     *repository.RoomRepo
	RoomTypes *repository.RoomTypeRepo
	Guests    *repository.GuestRepo
	Reasons   *repository.ReasonCodeRepo
}

func NewPropertyHandler(rooms *repository.RoomRepo, types *repository.RoomTypeRepo, guests *repository.GuestRepo, reasons *repository.ReasonCodeRepo) *PropertyHandler {
	if rooms == nil || types == nil || guests == nil || reasons == nil {
		panic("nil repository passed to NewPropertyHandler")
	}
	return &PropertyHandler{Rooms: rooms, RoomTypes: types, Guests: guests, Reasons: reasons}
}

type createRoomReq struct {
	RoomNumber string `json:"room_number"`
	RoomTypeID uint64 `json:"room_type_id"`
}

// CreateRoom handles POST /v1/rooms.
func (h *PropertyHandler) CreateRoom(c echo.Context) error {
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.RoomNumber == "" || req.RoomTypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_number and room_type_id required"})
	}
	ctx := c.Request().Context()
	if _, err := h.RoomTypes.GetByID(ctx, req.RoomTypeID); err != nil {
		if err == repository.ErrRoomTypeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	id, err := h.Rooms.Create(ctx, req.RoomNumber, req.RoomTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"room_id": id})
}

// ListRooms handles GET /v1/rooms.  ?enabled=true narrows to sellable
// rooms.
func (h *PropertyHandler) ListRooms(c echo.Context) error {
	enabledOnly := c.QueryParam("enabled") == "true"
	rooms, err := h.Rooms.List(c.Request().Context(), enabledOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

type setEnabledReq struct {
	Enabled bool `json:"enabled"`
}

// SetRoomEnabled handles PATCH /v1/rooms/:id/enabled, taking a room in
// or out of the sellable inventory without touching its status.
func (h *PropertyHandler) SetRoomEnabled(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req setEnabledReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Rooms.SetEnabled(c.Request().Context(), id, req.Enabled); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": id, "enabled": req.Enabled})
}

type createRoomTypeReq struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	DefaultRate decimal.Decimal `json:"default_rate"`
}

// CreateRoomType handles POST /v1/room-types.
func (h *PropertyHandler) CreateRoomType(c echo.Context) error {
	var req createRoomTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name required"})
	}
	if req.DefaultRate.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "default_rate must not be negative"})
	}
	id, err := h.RoomTypes.Create(c.Request().Context(), req.Code, req.Name, req.DefaultRate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room type failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"room_type_id": id})
}

// ListRoomTypes handles GET /v1/room-types.
func (h *PropertyHandler) ListRoomTypes(c echo.Context) error {
	types, err := h.RoomTypes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room_types": types})
}

type createRatePlanReq struct {
	Name       string          `json:"name"`
	RoomTypeID uint64          `json:"room_type_id"`
	Rate       decimal.Decimal `json:"rate"`
	ValidFrom  string          `json:"valid_from"`
	ValidTo    string          `json:"valid_to"`
}

// CreateRatePlan handles POST /v1/rate-plans.
func (h *PropertyHandler) CreateRatePlan(c echo.Context) error {
	var req createRatePlanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.RoomTypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and room_type_id required"})
	}
	if req.Rate.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rate must not be negative"})
	}
	from, errF := parseDate(req.ValidFrom)
	to, errT := parseDate(req.ValidTo)
	if errF != nil || errT != nil || to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid validity window"})
	}
	ctx := c.Request().Context()
	if _, err := h.RoomTypes.GetByID(ctx, req.RoomTypeID); err != nil {
		if err == repository.ErrRoomTypeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	id, err := h.RoomTypes.CreateRatePlan(ctx, req.Name, req.RoomTypeID, req.Rate, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create rate plan failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"rate_plan_id": id})
}

type createGuestReq struct {
	FullName string  `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// CreateGuest handles POST /v1/guests.
func (h *PropertyHandler) CreateGuest(c echo.Context) error {
	var req createGuestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}
	id, err := h.Guests.Create(c.Request().Context(), req.FullName, req.Email, req.Phone)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create guest failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"guest_id": id})
}

// GetGuest handles GET /v1/guests/:id.
func (h *PropertyHandler) GetGuest(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	guest, err := h.Guests.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, guest)
}

// ListGuests handles GET /v1/guests.
func (h *PropertyHandler) ListGuests(c echo.Context) error {
	guests, err := h.Guests.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"guests": guests})
}

// ListReasonCodes handles GET /v1/void-reasons, the catalogue front
// desk picks from when voiding a folio line.
func (h *PropertyHandler) ListReasonCodes(c echo.Context) error {
	codes, err := h.Reasons.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reason_codes": codes})
}

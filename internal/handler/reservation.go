package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
	q "github.com/frontdesk/hotel-pms/internal/queue"
	"github.com/frontdesk/hotel-pms/internal/repository"
	"github.com/frontdesk/hotel-pms/internal/service/queue_publisher"
)

// ReservationHandler groups repositories required for the reservation
// lifecycle: create, check-in, check-out, cancel and room moves.  All
// methods assume JWT authentication and role validation have already
// been performed by middleware.  Each lifecycle mutation runs inside a
// single transaction; the room row lock taken before the overlap query
// is what makes two concurrent check-ins on the same room serialize
// instead of double-booking.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Rooms        *repository.RoomRepo
	RoomTypes    *repository.RoomTypeRepo
	Guests       *repository.GuestRepo
	Availability *repository.AvailabilityRepo
	Folios       *repository.FolioRepo
	Groups       *repository.GroupRepo
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(res *repository.ReservationRepo, rooms *repository.RoomRepo, types *repository.RoomTypeRepo, guests *repository.GuestRepo, avail *repository.AvailabilityRepo, folios *repository.FolioRepo, groups *repository.GroupRepo) *ReservationHandler {
	if res == nil || rooms == nil || types == nil || guests == nil || avail == nil || folios == nil || groups == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Reservations: res,
		Rooms:        rooms,
		RoomTypes:    types,
		Guests:       guests,
		Availability: avail,
		Folios:       folios,
		Groups:       groups,
	}
}

type createReservationReq struct {
	GuestID         uint64          `json:"guest_id"`
	RoomID          *uint64         `json:"room_id"`
	RoomTypeID      uint64          `json:"room_type_id"`
	RatePlanID      *uint64         `json:"rate_plan_id"`
	ArrivalDate     string          `json:"arrival_date"`
	DepartureDate   string          `json:"departure_date"`
	IsComplimentary bool            `json:"is_complimentary"`
	DiscountType    string          `json:"discount_type"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
}

// Create handles POST /v1/reservations.  Validates the stay range and,
// when a room is requested, re-checks availability under the room row
// lock before inserting.  A Provisional folio is opened in the same
// transaction so every reservation is billable from the start.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	arrival, errA := parseDate(req.ArrivalDate)
	departure, errD := parseDate(req.DepartureDate)
	if errA != nil || errD != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_date and departure_date must be YYYY-MM-DD"})
	}
	if !model.ValidStayRange(arrival, departure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure must be after arrival"})
	}
	switch req.DiscountType {
	case model.DiscountNone, model.DiscountPercentage, model.DiscountAmount:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount_type"})
	}
	if req.DiscountValue.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_value must not be negative"})
	}

	ctx := c.Request().Context()
	if _, err := h.Guests.GetByID(ctx, req.GuestID); err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	roomTypeID := req.RoomTypeID
	if req.RoomID != nil {
		room, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, *req.RoomID)
		if err != nil {
			if err == repository.ErrRoomNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !room.Sellable() {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room cannot be sold"})
		}
		roomTypeID = room.RoomTypeID

		conflicts, err := h.Availability.ConflictsTx(ctx, tx, room.ID, arrival, departure, 0)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if len(conflicts) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "room not available for requested dates",
				"conflicts": conflicts,
			})
		}
	}
	if roomTypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_type_id required"})
	}
	if _, err := h.RoomTypes.GetByID(ctx, roomTypeID); err != nil {
		if err == repository.ErrRoomTypeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	res := model.Reservation{
		GuestID:         req.GuestID,
		RoomID:          req.RoomID,
		RoomTypeID:      roomTypeID,
		RatePlanID:      req.RatePlanID,
		ArrivalDate:     arrival,
		DepartureDate:   departure,
		Status:          model.ResReserved,
		IsComplimentary: req.IsComplimentary,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	folioID, err := h.Folios.CreateTx(ctx, tx, req.GuestID, &res.ID, model.FolioProvisional, today())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create folio failed"})
	}
	if err := h.Reservations.SetFolioTx(ctx, tx, res.ID, folioID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link folio failed"})
	}
	res.FolioID = &folioID

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations with an optional status filter.
func (h *ReservationHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		switch status {
		case model.ResReserved, model.ResCheckedIn, model.ResCheckedOut, model.ResCancelled:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
		}
	}
	list, err := h.Reservations.List(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// CheckIn handles POST /v1/reservations/:id/check-in.  The stay must be
// RESERVED with a room assigned and an arrival date no later than today.
// The availability conflict check runs again under the room row lock in
// the same transaction that flips the room to OCCUPIED, so a concurrent
// check-in on the same room cannot slip through.  The stay's folio is
// promoted to OPEN and the first night is charged immediately unless a
// room charge already exists for today.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanTransition(res.Status, model.ResCheckedIn) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not in RESERVED status"})
	}
	if res.RoomID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no room assigned"})
	}
	now := today()
	if model.DateOnly(res.ArrivalDate).After(now) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "arrival date is in the future"})
	}

	room, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, *res.RoomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !room.Sellable() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room cannot be sold"})
	}

	conflicts, err := h.Availability.ConflictsTx(ctx, tx, room.ID, res.ArrivalDate, res.DepartureDate, res.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(conflicts) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "room not available for requested dates",
			"conflicts": conflicts,
		})
	}

	var folio model.Folio
	if res.FolioID != nil {
		folio, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !model.CanFolioTransition(folio.Status, model.FolioOpen) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "folio is not in PROVISIONAL status"})
		}
		if err := h.Folios.UpdateStatusTx(ctx, tx, folio.ID, model.FolioOpen); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update folio failed"})
		}
	} else {
		// Legacy rows created before folio-at-reservation; open one now.
		fid, err := h.Folios.CreateTx(ctx, tx, res.GuestID, &res.ID, model.FolioOpen, now)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create folio failed"})
		}
		if err := h.Reservations.SetFolioTx(ctx, tx, res.ID, fid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link folio failed"})
		}
		res.FolioID = &fid
		folio = model.Folio{ID: fid, GuestID: res.GuestID, Status: model.FolioOpen}
	}

	if err := h.postFirstNight(ctx, tx, res, folio.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post room charge failed"})
	}

	if err := h.Rooms.UpdateStatusTx(ctx, tx, room.ID, model.RoomOccupied); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.ResCheckedIn); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	guest, gerr := h.Guests.GetByID(ctx, res.GuestID)
	guestName := ""
	if gerr == nil {
		guestName = guest.FullName
	}
	event := q.StayCheckedInEvent{
		ReservationID: res.ID,
		GuestID:       res.GuestID,
		GuestName:     guestName,
		RoomID:        room.ID,
		RoomNumber:    room.RoomNumber,
		FolioID:       folio.ID,
		ArrivalDate:   res.ArrivalDate.Format("2006-01-02"),
		DepartureDate: res.DepartureDate.Format("2006-01-02"),
		CheckedInAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishStayCheckedIn(context.Background(), event) }()

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"status":         model.ResCheckedIn,
		"folio_id":       folio.ID,
		"room_id":        room.ID,
	})
}

// postFirstNight posts tonight's room charge (and discount credit) to
// the folio unless one already exists for the date; the night audit
// applies the same per-date idempotency so the two never double-bill.
func (h *ReservationHandler) postFirstNight(ctx context.Context, tx *sql.Tx, res model.Reservation, folioID uint64, date time.Time) error {
	already, err := h.Folios.HasItemOnDateTx(ctx, tx, folioID, date, model.ItemRoomRent)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	rt, err := h.RoomTypes.GetByID(ctx, res.RoomTypeID)
	if err != nil {
		return err
	}
	var plan *model.RatePlan
	if res.RatePlanID != nil {
		plan, err = h.RoomTypes.GetRatePlan(ctx, *res.RatePlanID)
		if err != nil {
			return err
		}
	}
	rate := model.RateFor(plan, rt.DefaultRate, date)

	charge := model.FolioTransaction{
		FolioID:     folioID,
		PostingDate: date,
		ItemCode:    model.ItemRoomRent,
		Description: "Room charge",
		Qty:         1,
		Rate:        rate,
		Amount:      model.ChargeAmount(rate, 1),
		Reference:   uuid.NewString(),
	}
	if err := h.Folios.InsertTransactionTx(ctx, tx, &charge); err != nil {
		return err
	}
	if credit, code := model.DiscountFor(charge.Amount, res.IsComplimentary, res.DiscountType, res.DiscountValue); credit.IsPositive() {
		line := model.FolioTransaction{
			FolioID:     folioID,
			PostingDate: date,
			ItemCode:    code,
			Description: "Room charge adjustment",
			Qty:         1,
			Rate:        credit,
			Amount:      credit.Neg(),
			Reference:   uuid.NewString(),
		}
		if err := h.Folios.InsertTransactionTx(ctx, tx, &line); err != nil {
			return err
		}
	}
	return nil
}

// CheckOut handles POST /v1/reservations/:id/check-out.  The stay must
// be CHECKED_IN with today's departure date.  Walk-in guests must have
// a settled folio; group members hand any residual balance to the group
// master folio via a paired credit/debit before closing.  The folio
// closes, the room goes DIRTY for housekeeping, and the stay becomes
// CHECKED_OUT — all in one transaction.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanTransition(res.Status, model.ResCheckedOut) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not in CHECKED_IN status"})
	}
	if !model.DateOnly(res.DepartureDate).Equal(today()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "departure date is not today"})
	}
	if res.FolioID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation has no folio"})
	}

	// Group members may carry a residual balance to the master folio;
	// doing so touches two folios, so both are locked in ID order.
	var masterFolioID *uint64
	if res.GroupBookingID != nil {
		grp, err := h.Groups.GetByID(ctx, *res.GroupBookingID)
		if err == nil && grp.MasterFolioID != nil && *grp.MasterFolioID != *res.FolioID {
			masterFolioID = grp.MasterFolioID
		}
	}

	var folio, master model.Folio
	if masterFolioID != nil && *masterFolioID < *res.FolioID {
		if master, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *masterFolioID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if folio, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	} else {
		if folio, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if masterFolioID != nil {
			if master, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *masterFolioID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
		}
	}
	if !model.CanFolioTransition(folio.Status, model.FolioClosed) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio is not OPEN"})
	}

	txs, err := h.Folios.TransactionsTx(ctx, tx, folio.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	balance := model.Balance(txs).Round(2)

	if !balance.IsZero() {
		if masterFolioID == nil {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "folio has outstanding balance",
				"balance": balance,
			})
		}
		if !model.AcceptsCharges(master.Status) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "master folio is not open for transfers"})
		}
		desc := "Balance transfer to master folio"
		now := today()
		credit := model.FolioTransaction{
			FolioID:     folio.ID,
			PostingDate: now,
			ItemCode:    model.ItemTransferGroup,
			Description: desc,
			Qty:         1,
			Rate:        balance.Abs(),
			Amount:      balance.Neg(),
			Reference:   uuid.NewString(),
		}
		debit := model.FolioTransaction{
			FolioID:     master.ID,
			PostingDate: now,
			ItemCode:    model.ItemTransferGroup,
			Description: "Balance transfer from member folio",
			Qty:         1,
			Rate:        balance.Abs(),
			Amount:      balance,
			Reference:   uuid.NewString(),
		}
		if err := h.Folios.InsertTransactionTx(ctx, tx, &credit); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transfer failed"})
		}
		if err := h.Folios.InsertTransactionTx(ctx, tx, &debit); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transfer failed"})
		}
	}

	if err := h.Folios.UpdateStatusTx(ctx, tx, folio.ID, model.FolioClosed); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close folio failed"})
	}
	if res.RoomID != nil {
		if err := h.Rooms.UpdateStatusTx(ctx, tx, *res.RoomID, model.RoomDirty); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
		}
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.ResCheckedOut); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"status":         model.ResCheckedOut,
		"folio_id":       folio.ID,
	})
}

// Cancel handles POST /v1/reservations/:id/cancel.  Only RESERVED stays
// may cancel; the linked folio is cancelled alongside unless it already
// closed.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanTransition(res.Status, model.ResCancelled) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not in RESERVED status"})
	}

	if res.FolioID != nil {
		folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if model.CanFolioTransition(folio.Status, model.FolioCancelled) {
			if err := h.Folios.UpdateStatusTx(ctx, tx, folio.ID, model.FolioCancelled); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel folio failed"})
			}
		}
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.ResCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"status":         model.ResCancelled,
	})
}

type moveRoomReq struct {
	RoomID uint64 `json:"room_id"`
}

// MoveRoom handles POST /v1/reservations/:id/move-room.  The stay must
// be in house and the target room sellable, different from the current
// one, and free from today through departure.  Both room rows are
// locked in ID order, the old room goes DIRTY, the new one OCCUPIED,
// and a zero-amount audit line records the move on the folio.
func (h *ReservationHandler) MoveRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req moveRoomReq
	if err := c.Bind(&req); err != nil || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}
	ctx := c.Request().Context()

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.Status != model.ResCheckedIn {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not in CHECKED_IN status"})
	}
	if res.RoomID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no room assigned"})
	}
	if *res.RoomID == req.RoomID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target room is the current room"})
	}

	oldID, newID := *res.RoomID, req.RoomID
	first, second := oldID, newID
	if second < first {
		first, second = second, first
	}
	if _, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, first); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	target, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, second)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if target.ID != newID {
		// Locked in ID order; re-fetch the actual target row.
		target, err = h.Rooms.GetByIDForUpdateTx(ctx, tx, newID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if !target.IsEnabled || target.Status != model.RoomAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "target room is not available"})
	}

	conflicts, err := h.Availability.ConflictsTx(ctx, tx, target.ID, today(), res.DepartureDate, res.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(conflicts) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "room not available for requested dates",
			"conflicts": conflicts,
		})
	}

	if err := h.Reservations.AssignRoomTx(ctx, tx, res.ID, target.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign room failed"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, oldID, model.RoomDirty); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, target.ID, model.RoomOccupied); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}

	if res.FolioID != nil {
		line := model.FolioTransaction{
			FolioID:     *res.FolioID,
			PostingDate: today(),
			ItemCode:    model.ItemRoomMove,
			Description: "Room move to " + target.RoomNumber,
			Qty:         1,
			Rate:        decimal.Zero,
			Amount:      decimal.Zero,
			Reference:   uuid.NewString(),
		}
		if err := h.Folios.InsertTransactionTx(ctx, tx, &line); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post move record failed"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"room_id":        target.ID,
		"room_number":    target.RoomNumber,
	})
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
	q "github.com/frontdesk/hotel-pms/internal/queue"
	"github.com/frontdesk/hotel-pms/internal/repository"
	"github.com/frontdesk/hotel-pms/internal/service/queue_publisher"
)

// GroupHandler coordinates group bookings: the master folio, linking
// member reservations, bulk reserving a room block, and mass check-in /
// check-out.  Batch operations run one transaction per member so a
// failing member never rolls back the rest; the response reports both
// sides.
type GroupHandler struct {
	Groups       *repository.GroupRepo
	Reservations *repository.ReservationRepo
	Rooms        *repository.RoomRepo
	RoomTypes    *repository.RoomTypeRepo
	Guests       *repository.GuestRepo
	Availability *repository.AvailabilityRepo
	Folios       *repository.FolioRepo
}

func NewGroupHandler(g *repository.GroupRepo, res *repository.ReservationRepo, rooms *repository.RoomRepo, types *repository.RoomTypeRepo, guests *repository.GuestRepo, avail *repository.AvailabilityRepo, folios *repository.FolioRepo) *GroupHandler {
	if g == nil || res == nil || rooms == nil || types == nil || guests == nil || avail == nil || folios == nil {
		panic("nil repository passed to NewGroupHandler")
	}
	return &GroupHandler{
		Groups:       g,
		Reservations: res,
		Rooms:        rooms,
		RoomTypes:    types,
		Guests:       guests,
		Availability: avail,
		Folios:       folios,
	}
}

type createGroupReq struct {
	Name          string `json:"name"`
	ArrivalDate   string `json:"arrival_date"`
	DepartureDate string `json:"departure_date"`
}

// Create handles POST /v1/groups.
func (h *GroupHandler) Create(c echo.Context) error {
	var req createGroupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	arrival, errA := parseDate(req.ArrivalDate)
	departure, errD := parseDate(req.DepartureDate)
	if errA != nil || errD != nil || !model.ValidStayRange(arrival, departure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid arrival/departure window"})
	}

	id, err := h.Groups.Create(c.Request().Context(), req.Name, arrival, departure)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create group failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"group_id": id, "status": model.GroupDraft})
}

// Get handles GET /v1/groups/:id — the group plus its member
// reservations.
func (h *GroupHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	ctx := c.Request().Context()
	grp, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	members, err := h.Reservations.ListByGroup(ctx, id, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"group":   grp,
		"members": members,
	})
}

type masterFolioReq struct {
	GuestID uint64 `json:"guest_id"`
}

// CreateMasterFolio handles POST /v1/groups/:id/master-folio.  The
// group row lock serializes two concurrent creates; a second attempt
// finds the folio already attached and conflicts.
func (h *GroupHandler) CreateMasterFolio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	var req masterFolioReq
	if err := c.Bind(&req); err != nil || req.GuestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_id required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Guests.GetByID(ctx, req.GuestID); err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Groups.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	grp, err := h.Groups.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if grp.MasterFolioID != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "master folio already exists",
			"folio_id": *grp.MasterFolioID,
		})
	}

	folioID, err := h.Folios.CreateTx(ctx, tx, req.GuestID, nil, model.FolioOpen, today())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create folio failed"})
	}
	if err := h.Groups.SetMasterFolioTx(ctx, tx, id, folioID); err != nil {
		if err == repository.ErrMasterFolioExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "master folio already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "attach folio failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"group_id": id, "master_folio_id": folioID})
}

type linkReservationsReq struct {
	ReservationIDs []uint64 `json:"reservation_ids"`
}

// LinkReservations handles POST /v1/groups/:id/reservations, attaching
// existing reservations to the group.  Members must be active and fit
// the group window; each link is independent.
func (h *GroupHandler) LinkReservations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	var req linkReservationsReq
	if err := c.Bind(&req); err != nil || len(req.ReservationIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_ids required"})
	}
	ctx := c.Request().Context()
	grp, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result := model.BatchResult{Succeeded: []uint64{}, Failed: []model.BatchItemError{}}
	for _, resID := range req.ReservationIDs {
		if err := h.linkOne(ctx, &grp, resID); err != nil {
			result.Failed = append(result.Failed, model.BatchItemError{ReservationID: resID, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, resID)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *GroupHandler) linkOne(ctx context.Context, grp *model.GroupBooking, resID uint64) error {
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, resID)
	if err != nil {
		return err
	}
	if !res.Active() {
		return errors.New("reservation is not active")
	}
	if res.GroupBookingID != nil {
		return errors.New("reservation already belongs to a group")
	}
	if !grp.WithinWindow(res.ArrivalDate, res.DepartureDate) {
		return errors.New("stay falls outside the group window")
	}
	if err := h.Reservations.SetGroupTx(ctx, tx, resID, grp.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type bulkReserveReq struct {
	GuestID       uint64   `json:"guest_id"`
	RoomIDs       []uint64 `json:"room_ids"`
	ArrivalDate   string   `json:"arrival_date"`
	DepartureDate string   `json:"departure_date"`
}

// BulkReserve handles POST /v1/groups/:id/bulk-reserve: one reservation
// per requested room, each validated and created independently so one
// unavailable room never sinks the block.
func (h *GroupHandler) BulkReserve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	var req bulkReserveReq
	if err := c.Bind(&req); err != nil || req.GuestID == 0 || len(req.RoomIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_id and room_ids required"})
	}
	arrival, errA := parseDate(req.ArrivalDate)
	departure, errD := parseDate(req.DepartureDate)
	if errA != nil || errD != nil || !model.ValidStayRange(arrival, departure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid arrival/departure range"})
	}
	ctx := c.Request().Context()

	grp, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !grp.WithinWindow(arrival, departure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stay falls outside the group window"})
	}
	if _, err := h.Guests.GetByID(ctx, req.GuestID); err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	created := []uint64{}
	failures := []model.BatchItemError{}
	for _, roomID := range req.RoomIDs {
		resID, err := h.reserveOne(ctx, grp.ID, req.GuestID, roomID, arrival, departure)
		if err != nil {
			failures = append(failures, model.BatchItemError{RoomID: roomID, Reason: err.Error()})
			continue
		}
		created = append(created, resID)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"created": created,
		"errors":  failures,
	})
}

func (h *GroupHandler) reserveOne(ctx context.Context, groupID, guestID, roomID uint64, arrival, departure time.Time) (uint64, error) {
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return 0, err
	}
	if !room.Sellable() {
		return 0, errors.New("room cannot be sold")
	}
	conflicts, err := h.Availability.ConflictsTx(ctx, tx, roomID, arrival, departure, 0)
	if err != nil {
		return 0, err
	}
	if len(conflicts) > 0 {
		return 0, repository.ErrRoomConflict
	}

	res := model.Reservation{
		GuestID:        guestID,
		RoomID:         &roomID,
		RoomTypeID:     room.RoomTypeID,
		ArrivalDate:    arrival,
		DepartureDate:  departure,
		Status:         model.ResReserved,
		GroupBookingID: &groupID,
		DiscountValue:  decimal.Zero,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return 0, err
	}
	folioID, err := h.Folios.CreateTx(ctx, tx, guestID, &res.ID, model.FolioProvisional, today())
	if err != nil {
		return 0, err
	}
	if err := h.Reservations.SetFolioTx(ctx, tx, res.ID, folioID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return res.ID, nil
}

// CheckInAll handles POST /v1/groups/:id/check-in: every RESERVED
// member is checked in, one transaction each; the group flips to
// IN_HOUSE when at least one member made it.
func (h *GroupHandler) CheckInAll(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Groups.GetByID(ctx, id); err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	members, err := h.Reservations.ListByGroup(ctx, id, model.ResReserved)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result := model.BatchResult{Succeeded: []uint64{}, Failed: []model.BatchItemError{}}
	for _, m := range members {
		event, err := h.checkInMember(ctx, m)
		if err != nil {
			result.Failed = append(result.Failed, model.BatchItemError{ReservationID: m.ID, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, m.ID)
		go func(ev q.StayCheckedInEvent) {
			_ = queue_publisher.PublishStayCheckedIn(context.Background(), ev)
		}(*event)
	}
	if len(result.Succeeded) > 0 {
		_ = h.Groups.UpdateStatus(ctx, id, model.GroupInHouse)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *GroupHandler) checkInMember(ctx context.Context, m model.Reservation) (*q.StayCheckedInEvent, error) {
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(res.Status, model.ResCheckedIn) {
		return nil, errors.New("reservation is not in RESERVED status")
	}
	if res.RoomID == nil {
		return nil, errors.New("no room assigned")
	}
	now := today()
	if model.DateOnly(res.ArrivalDate).After(now) {
		return nil, errors.New("arrival date is in the future")
	}
	room, err := h.Rooms.GetByIDForUpdateTx(ctx, tx, *res.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Sellable() {
		return nil, errors.New("room cannot be sold")
	}
	conflicts, err := h.Availability.ConflictsTx(ctx, tx, room.ID, res.ArrivalDate, res.DepartureDate, res.ID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, repository.ErrRoomConflict
	}

	var folioID uint64
	if res.FolioID != nil {
		folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID)
		if err != nil {
			return nil, err
		}
		if !model.CanFolioTransition(folio.Status, model.FolioOpen) {
			return nil, errors.New("folio is not in PROVISIONAL status")
		}
		if err := h.Folios.UpdateStatusTx(ctx, tx, folio.ID, model.FolioOpen); err != nil {
			return nil, err
		}
		folioID = folio.ID
	} else {
		folioID, err = h.Folios.CreateTx(ctx, tx, res.GuestID, &res.ID, model.FolioOpen, now)
		if err != nil {
			return nil, err
		}
		if err := h.Reservations.SetFolioTx(ctx, tx, res.ID, folioID); err != nil {
			return nil, err
		}
	}

	if err := h.postMemberFirstNight(ctx, tx, res, folioID, now); err != nil {
		return nil, err
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, room.ID, model.RoomOccupied); err != nil {
		return nil, err
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.ResCheckedIn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	guestName := ""
	if guest, gerr := h.Guests.GetByID(ctx, res.GuestID); gerr == nil {
		guestName = guest.FullName
	}
	event := q.StayCheckedInEvent{
		ReservationID: res.ID,
		GuestID:       res.GuestID,
		GuestName:     guestName,
		RoomID:        room.ID,
		RoomNumber:    room.RoomNumber,
		FolioID:       folioID,
		ArrivalDate:   res.ArrivalDate.Format("2006-01-02"),
		DepartureDate: res.DepartureDate.Format("2006-01-02"),
		CheckedInAt:   time.Now().UTC().Format(time.RFC3339),
	}
	return &event, nil
}

func (h *GroupHandler) postMemberFirstNight(ctx context.Context, tx *sql.Tx, res model.Reservation, folioID uint64, date time.Time) error {
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

// CheckOutAll handles POST /v1/groups/:id/check-out: every CHECKED_IN
// member is checked out, residual balances transferring to the master
// folio.  The group flips to CHECKED_OUT when no member remains in
// house.
func (h *GroupHandler) CheckOutAll(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	ctx := c.Request().Context()
	grp, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	members, err := h.Reservations.ListByGroup(ctx, id, model.ResCheckedIn)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result := model.BatchResult{Succeeded: []uint64{}, Failed: []model.BatchItemError{}}
	for _, m := range members {
		if err := h.checkOutMember(ctx, m, grp.MasterFolioID); err != nil {
			result.Failed = append(result.Failed, model.BatchItemError{ReservationID: m.ID, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, m.ID)
	}

	if len(result.Failed) == 0 && len(members) > 0 {
		_ = h.Groups.UpdateStatus(ctx, id, model.GroupCheckedOut)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *GroupHandler) checkOutMember(ctx context.Context, m model.Reservation, masterFolioID *uint64) error {
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetByIDForUpdateTx(ctx, tx, m.ID)
	if err != nil {
		return err
	}
	if !model.CanTransition(res.Status, model.ResCheckedOut) {
		return errors.New("reservation is not in CHECKED_IN status")
	}
	if !model.DateOnly(res.DepartureDate).Equal(today()) {
		return errors.New("departure date is not today")
	}
	if res.FolioID == nil {
		return errors.New("reservation has no folio")
	}
	if masterFolioID != nil && *masterFolioID == *res.FolioID {
		masterFolioID = nil
	}

	var folio, master model.Folio
	if masterFolioID != nil && *masterFolioID < *res.FolioID {
		if master, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *masterFolioID); err != nil {
			return err
		}
		if folio, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID); err != nil {
			return err
		}
	} else {
		if folio, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *res.FolioID); err != nil {
			return err
		}
		if masterFolioID != nil {
			if master, err = h.Folios.GetByIDForUpdateTx(ctx, tx, *masterFolioID); err != nil {
				return err
			}
		}
	}
	if !model.CanFolioTransition(folio.Status, model.FolioClosed) {
		return errors.New("folio is not OPEN")
	}

	txs, err := h.Folios.TransactionsTx(ctx, tx, folio.ID)
	if err != nil {
		return err
	}
	balance := model.Balance(txs).Round(2)
	if !balance.IsZero() {
		if masterFolioID == nil {
			return repository.ErrOutstandingBalance
		}
		if !model.AcceptsCharges(master.Status) {
			return errors.New("master folio is not open for transfers")
		}
		now := today()
		credit := model.FolioTransaction{
			FolioID:     folio.ID,
			PostingDate: now,
			ItemCode:    model.ItemTransferGroup,
			Description: "Balance transfer to master folio",
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
			return err
		}
		if err := h.Folios.InsertTransactionTx(ctx, tx, &debit); err != nil {
			return err
		}
	}

	if err := h.Folios.UpdateStatusTx(ctx, tx, folio.ID, model.FolioClosed); err != nil {
		return err
	}
	if res.RoomID != nil {
		if err := h.Rooms.UpdateStatusTx(ctx, tx, *res.RoomID, model.RoomDirty); err != nil {
			return err
		}
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.ResCheckedOut); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

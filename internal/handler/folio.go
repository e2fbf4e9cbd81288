package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

// FolioHandler serves the folio ledger: posting charges and payments,
// voiding and moving lines, closing, reopening and cancelling folios.
// Every mutation locks the folio row first so concurrent postings and
// state changes on one folio serialize; the balance is always computed
// from the transaction log inside the same transaction that needs it.
type FolioHandler struct {
	Folios  *repository.FolioRepo
	Reasons *repository.ReasonCodeRepo
}

func NewFolioHandler(f *repository.FolioRepo, r *repository.ReasonCodeRepo) *FolioHandler {
	if f == nil || r == nil {
		panic("nil repository passed to NewFolioHandler")
	}
	return &FolioHandler{Folios: f, Reasons: r}
}

// Get handles GET /v1/folios/:id — the folio, its transactions, and
// the derived balance.
func (h *FolioHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	ctx := c.Request().Context()
	folio, err := h.Folios.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	txs, err := h.Folios.Transactions(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"folio":        folio,
		"transactions": txs,
		"balance":      model.Balance(txs).Round(2),
	})
}

type chargeReq struct {
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Qty         uint32          `json:"qty"`
	Rate        decimal.Decimal `json:"rate"`
}

// PostCharge handles POST /v1/folios/:id/charges.  Charges post to
// PROVISIONAL and OPEN folios; amount = rate × qty.
func (h *FolioHandler) PostCharge(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	var req chargeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ItemCode = strings.TrimSpace(req.ItemCode)
	if req.ItemCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_code required"})
	}
	if req.Qty == 0 {
		req.Qty = 1
	}
	if req.Rate.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rate must not be negative"})
	}

	ctx := c.Request().Context()
	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.AcceptsCharges(folio.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio does not accept charges"})
	}

	line := model.FolioTransaction{
		FolioID:     folio.ID,
		PostingDate: today(),
		ItemCode:    req.ItemCode,
		Description: req.Description,
		Qty:         req.Qty,
		Rate:        req.Rate,
		Amount:      model.ChargeAmount(req.Rate, req.Qty),
		Reference:   uuid.NewString(),
	}
	if err := h.Folios.InsertTransactionTx(ctx, tx, &line); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post charge failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, line)
}

type paymentReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// PostPayment handles POST /v1/folios/:id/payments.  Payments are
// accepted on OPEN and CLOSED folios (a departed guest can settle
// later) and are stored as negative amounts.
func (h *FolioHandler) PostPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx := c.Request().Context()
	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.AcceptsPayments(folio.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio does not accept payments"})
	}

	desc := req.Description
	if desc == "" {
		desc = "Payment received"
	}
	line := model.FolioTransaction{
		FolioID:     folio.ID,
		PostingDate: today(),
		ItemCode:    model.ItemPayment,
		Description: desc,
		Qty:         1,
		Rate:        req.Amount,
		Amount:      req.Amount.Neg(),
		Reference:   uuid.NewString(),
	}
	if err := h.Folios.InsertTransactionTx(ctx, tx, &line); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post payment failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, line)
}

type voidReq struct {
	ReasonCode string `json:"reason_code"`
}

// Void handles POST /v1/transactions/:id/void.  The reason code is
// mandatory, must exist in the catalog, and codes flagged
// requires_manager are gated on the MANAGER role.  The line's folio is
// locked before the line itself so a void cannot race an invoice run.
func (h *FolioHandler) Void(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	var req voidReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ReasonCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason_code required"})
	}
	reasonCode := strings.ToUpper(strings.TrimSpace(req.ReasonCode))

	ctx := c.Request().Context()
	reason, err := h.Reasons.GetByCode(ctx, reasonCode)
	if err != nil {
		if err == repository.ErrReasonNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown reason code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if reason.RequiresManager && !isManager(c) {
		return ledgerError(c, fmt.Errorf("%w: reason code %s requires manager approval", repository.ErrForbidden, reasonCode))
	}

	// Peek finds the folio to lock; the guards re-run on the locked row.
	peek, err := h.Folios.GetTransaction(ctx, id)
	if err != nil {
		if err == repository.ErrTransactionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Folios.GetByIDForUpdateTx(ctx, tx, peek.FolioID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	line, err := h.Folios.GetTransactionForUpdateTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if line.IsVoid {
		return ledgerError(c, repository.ErrAlreadyVoid)
	}
	if line.IsInvoiced {
		return ledgerError(c, repository.ErrAlreadyInvoiced)
	}
	if err := h.Folios.VoidTransactionTx(ctx, tx, id, reasonCode); err != nil {
		if errors.Is(err, repository.ErrInvalidState) {
			return ledgerError(c, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "void failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id": id,
		"voided":         true,
		"reason_code":    reasonCode,
	})
}

type moveTxnsReq struct {
	TransactionIDs []uint64 `json:"transaction_ids"`
	TargetFolioID  uint64   `json:"target_folio_id"`
}

// Move handles POST /v1/transactions/move.  The whole batch moves to
// the target folio or nothing does: the target must be OPEN, every
// line non-void and non-invoiced.  Source and target folios are locked
// in ascending ID order to avoid deadlock with a concurrent move in
// the opposite direction.
func (h *FolioHandler) Move(c echo.Context) error {
	var req moveTxnsReq
	if err := c.Bind(&req); err != nil || len(req.TransactionIDs) == 0 || req.TargetFolioID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transaction_ids and target_folio_id required"})
	}

	// Deduplicate while keeping order.
	seen := make(map[uint64]struct{}, len(req.TransactionIDs))
	ids := make([]uint64, 0, len(req.TransactionIDs))
	for _, id := range req.TransactionIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid transaction IDs provided"})
	}

	ctx := c.Request().Context()

	// Find the set of source folios to lock alongside the target.
	folioSet := map[uint64]struct{}{req.TargetFolioID: {}}
	for _, id := range ids {
		peek, err := h.Folios.GetTransaction(ctx, id)
		if err != nil {
			if err == repository.ErrTransactionNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		folioSet[peek.FolioID] = struct{}{}
	}
	lockOrder := make([]uint64, 0, len(folioSet))
	for id := range folioSet {
		lockOrder = append(lockOrder, id)
	}
	for i := 0; i < len(lockOrder); i++ {
		for j := i + 1; j < len(lockOrder); j++ {
			if lockOrder[j] < lockOrder[i] {
				lockOrder[i], lockOrder[j] = lockOrder[j], lockOrder[i]
			}
		}
	}

	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var target model.Folio
	for _, fid := range lockOrder {
		folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, fid)
		if err != nil {
			if err == repository.ErrFolioNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if fid == req.TargetFolioID {
			target = folio
		}
	}
	if target.Status != model.FolioOpen {
		return c.JSON(http.StatusConflict, echo.Map{"error": "target folio is not OPEN"})
	}

	for _, id := range ids {
		line, err := h.Folios.GetTransactionForUpdateTx(ctx, tx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !line.CanMove() {
			reason := repository.ErrAlreadyVoid
			if line.IsInvoiced {
				reason = repository.ErrAlreadyInvoiced
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error":          reason.Error(),
				"transaction_id": id,
			})
		}
	}

	if err := h.Folios.MoveTransactionsTx(ctx, tx, ids, req.TargetFolioID); err != nil {
		if err == repository.ErrInvalidState {
			return c.JSON(http.StatusConflict, echo.Map{"error": "transactions changed concurrently"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"moved":           ids,
		"target_folio_id": req.TargetFolioID,
	})
}

// Close handles POST /v1/folios/:id/close.  The folio must be OPEN and
// settled to the cent.
func (h *FolioHandler) Close(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if folio.Status != model.FolioOpen {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio is not OPEN"})
	}
	txs, err := h.Folios.TransactionsTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.Settled(txs) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "folio has outstanding balance",
			"balance": model.Balance(txs).Round(2),
		})
	}
	if err := h.Folios.UpdateStatusTx(ctx, tx, id, model.FolioClosed); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close folio failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"folio_id": id, "status": model.FolioClosed})
}

// Reopen handles POST /v1/folios/:id/reopen (MANAGER only, enforced by
// route middleware).  Reopening clears the close date so a late
// correction can post.
func (h *FolioHandler) Reopen(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanFolioTransition(folio.Status, model.FolioOpen) || folio.Status != model.FolioClosed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio is not CLOSED"})
	}
	if err := h.Folios.UpdateStatusTx(ctx, tx, id, model.FolioOpen); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reopen folio failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	if uid, err := getUserID(c); err == nil {
		log.Printf("folio %d reopened by manager %d", id, uid)
	}
	return c.JSON(http.StatusOK, echo.Map{"folio_id": id, "status": model.FolioOpen})
}

// CancelFolio handles POST /v1/folios/:id/cancel, valid from
// PROVISIONAL and OPEN.
func (h *FolioHandler) CancelFolio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := h.Folios.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrFolioNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "folio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanFolioTransition(folio.Status, model.FolioCancelled) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio cannot be cancelled"})
	}
	if err := h.Folios.UpdateStatusTx(ctx, tx, id, model.FolioCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel folio failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"folio_id": id, "status": model.FolioCancelled})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/model"
	q "github.com/frontdesk/hotel-pms/internal/queue"
	"github.com/frontdesk/hotel-pms/internal/repository"
	"github.com/frontdesk/hotel-pms/internal/service/queue_publisher"
)

// InvoiceHandler bridges folio transactions to the accounting side:
// cutting an invoice selects every non-void, non-invoiced line, records
// an invoice row and flags the lines invoiced in one transaction, so an
// invoice can never exist without its lines marked (or the reverse).
type InvoiceHandler struct {
	Folios   *repository.FolioRepo
	Invoices *repository.InvoiceRepo
}

func NewInvoiceHandler(f *repository.FolioRepo, i *repository.InvoiceRepo) *InvoiceHandler {
	if f == nil || i == nil {
		panic("nil repository passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{Folios: f, Invoices: i}
}

// Create handles POST /v1/folios/:id/invoice.  The folio must be past
// PROVISIONAL; with nothing to bill the call fails rather than cutting
// an empty invoice.  Publishes folio.invoiced on success.
func (h *InvoiceHandler) Create(c echo.Context) error {
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
	if folio.Status == model.FolioProvisional || folio.Status == model.FolioCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "folio cannot be invoiced"})
	}

	lines, err := h.Folios.UnbilledTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(lines) == 0 {
		return ledgerError(c, repository.ErrNothingToInvoice)
	}

	total := model.Balance(lines).Round(2)
	lineIDs := make([]uint64, len(lines))
	for i, l := range lines {
		lineIDs[i] = l.ID
	}

	number := uuid.NewString()
	issued := today()
	invoiceID, err := h.Invoices.CreateTx(ctx, tx, number, id, total, issued)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invoice failed"})
	}
	if err := h.Folios.MarkInvoicedTx(ctx, tx, lineIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "flag transactions failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	event := q.FolioInvoicedEvent{
		InvoiceID:     invoiceID,
		InvoiceNumber: number,
		FolioID:       id,
		GuestID:       folio.GuestID,
		Total:         total.String(),
		LineCount:     len(lines),
		IssuedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishFolioInvoiced(context.Background(), event) }()

	return c.JSON(http.StatusCreated, echo.Map{
		"invoice_id": invoiceID,
		"number":     number,
		"folio_id":   id,
		"total":      total,
		"lines":      len(lines),
	})
}

// Get handles GET /v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	inv, err := h.Invoices.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrInvoiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, inv)
}

// ListByFolio handles GET /v1/folios/:id/invoices.
func (h *InvoiceHandler) ListByFolio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folio id"})
	}
	list, err := h.Invoices.ListByFolio(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": list})
}

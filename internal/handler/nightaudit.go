package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/service"
)

// NightAuditHandler exposes the manual audit trigger for managers.
// The scheduled run uses the same service path.
type NightAuditHandler struct {
	Audit *service.NightAudit
}

func NewNightAuditHandler(audit *service.NightAudit) *NightAuditHandler {
	if audit == nil {
		panic("nil audit service passed to NewNightAuditHandler")
	}
	return &NightAuditHandler{Audit: audit}
}

type runAuditReq struct {
	Date string `json:"date"`
}

// Run handles POST /v1/night-audit/run.  The body may carry a posting
// date; it defaults to today.  Re-running the same date is safe, rooms
// already charged for that date are skipped.
func (h *NightAuditHandler) Run(c echo.Context) error {
	var req runAuditReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date := today()
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		date = d
	}
	result, err := h.Audit.Run(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "night audit failed"})
	}
	return c.JSON(http.StatusOK, result)
}

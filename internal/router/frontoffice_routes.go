package router

import (
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/handler"
	"github.com/frontdesk/hotel-pms/internal/middleware"
	"github.com/frontdesk/hotel-pms/internal/model"
)

// RegisterFrontOffice registers the reservation lifecycle, the folio
// ledger, invoicing and group coordination under /v1.  All routes
// require a valid JWT and the FRONTDESK or MANAGER role; reason codes
// flagged requires_manager are enforced inside the void handler, not
// here, because the route is shared.
func RegisterFrontOffice(e *echo.Echo, r *handler.ReservationHandler, f *handler.FolioHandler, inv *handler.InvoiceHandler, grp *handler.GroupHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFrontDesk, model.RoleManager),
	)

	// ---- Reservations ----
	g.POST("/reservations", r.Create)
	g.GET("/reservations", r.List)
	g.GET("/reservations/:id", r.Get)
	g.POST("/reservations/:id/check-in", r.CheckIn)
	g.POST("/reservations/:id/check-out", r.CheckOut)
	g.POST("/reservations/:id/cancel", r.Cancel)
	g.POST("/reservations/:id/move-room", r.MoveRoom)

	// ---- Folios ----
	g.GET("/folios/:id", f.Get)
	g.POST("/folios/:id/charges", f.PostCharge)
	g.POST("/folios/:id/payments", f.PostPayment)
	g.POST("/folios/:id/close", f.Close)
	g.POST("/folios/:id/cancel", f.CancelFolio)
	g.POST("/transactions/:id/void", f.Void)
	g.POST("/transactions/move", f.Move)

	// ---- Invoices ----
	g.POST("/folios/:id/invoice", inv.Create)
	g.GET("/folios/:id/invoices", inv.ListByFolio)
	g.GET("/invoices/:id", inv.Get)

	// ---- Group bookings ----
	g.POST("/groups", grp.Create)
	g.GET("/groups/:id", grp.Get)
	g.POST("/groups/:id/master-folio", grp.CreateMasterFolio)
	g.POST("/groups/:id/reservations", grp.LinkReservations)
	g.POST("/groups/:id/bulk-reserve", grp.BulkReserve)
	g.POST("/groups/:id/check-in", grp.CheckInAll)
	g.POST("/groups/:id/check-out", grp.CheckOutAll)
}

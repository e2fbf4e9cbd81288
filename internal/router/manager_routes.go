package router

import (
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/handler"
	"github.com/frontdesk/hotel-pms/internal/middleware"
	"github.com/frontdesk/hotel-pms/internal/model"
)

// RegisterManager registers MANAGER-only endpoints under /v1: property
// setup (rooms, room types, rate plans), the folio reopen override and
// the manual night audit trigger.  Guest profile routes live here too
// but additionally accept FRONTDESK, since front desk creates guests
// while taking bookings.
func RegisterManager(e *echo.Echo, p *handler.PropertyHandler, f *handler.FolioHandler, audit *handler.NightAuditHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager),
	)

	// ---- Rooms ----
	g.POST("/rooms", p.CreateRoom)
	g.PATCH("/rooms/:id/enabled", p.SetRoomEnabled)

	// ---- Room types and rate plans ----
	g.POST("/room-types", p.CreateRoomType)
	g.POST("/rate-plans", p.CreateRatePlan)

	// ---- Overrides and end-of-day ----
	g.POST("/folios/:id/reopen", f.Reopen)
	g.POST("/night-audit/run", audit.Run)

	// Shared read/create surface: room and guest lookups are needed at
	// the desk as well.
	shared := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleFrontDesk),
	)
	shared.GET("/rooms", p.ListRooms)
	shared.GET("/room-types", p.ListRoomTypes)
	shared.POST("/guests", p.CreateGuest)
	shared.GET("/guests", p.ListGuests)
	shared.GET("/guests/:id", p.GetGuest)
	shared.GET("/void-reasons", p.ListReasonCodes)
}

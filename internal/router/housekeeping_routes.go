package router

import (
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/handler"
	"github.com/frontdesk/hotel-pms/internal/middleware"
	"github.com/frontdesk/hotel-pms/internal/model"
)

// RegisterHousekeeping registers the room status board and manual
// status updates.  Every staff role can read the board; updates are
// limited to HOUSEKEEPING and MANAGER.
func RegisterHousekeeping(e *echo.Echo, h *handler.HousekeepingHandler, jwtSecret string) {
	read := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleFrontDesk, model.RoleHousekeeping),
	)
	read.GET("/housekeeping/rooms", h.Board)

	write := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleHousekeeping),
	)
	write.POST("/rooms/:id/status", h.SetStatus)
}

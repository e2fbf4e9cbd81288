package router

import (
	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/handler"
	"github.com/frontdesk/hotel-pms/internal/middleware"
	"github.com/frontdesk/hotel-pms/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently that is only the health check,
// which load balancers and monitoring probe to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while /v1/me requires
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new
	// access token while keeping the refresh token valid.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revokes every session for
	// the user) or a refresh_token body (revokes that session only), so
	// it is registered outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAvailability registers the availability board, the search
// endpoints and the tape chart.  Every staff role may read them; the
// cache middleware short-circuits repeated reads of the same range.
func RegisterAvailability(e *echo.Echo, h *handler.AvailabilityHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleFrontDesk, model.RoleHousekeeping),
		cache,
	)
	g.GET("/availability/check", h.Check)
	g.GET("/availability/rooms", h.Rooms)
	g.GET("/availability/counts", h.Counts)
	g.GET("/tape-chart", h.TapeChart)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

// ledgerError translates the repository error catalogue into the HTTP
// responses the folio and invoice handlers share.  State guards map to
// 409, permission guards to 403, bad input to 400; anything else is an
// unexpected database failure.
func ledgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadyVoid),
		errors.Is(err, repository.ErrAlreadyInvoiced),
		errors.Is(err, repository.ErrNothingToInvoice),
		errors.Is(err, repository.ErrOutstandingBalance),
		errors.Is(err, repository.ErrMasterFolioExists),
		errors.Is(err, repository.ErrRoomConflict),
		errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole reads the role claim stored by the JWT middleware.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// isManager reports whether the request carries the MANAGER role.
func isManager(c echo.Context) bool {
	return getRole(c) == model.RoleManager
}

// pathID parses a numeric path parameter; 0 is never a valid ID.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD query or body value into midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return model.DateOnly(t), nil
}

// today returns the current business date (midnight UTC).
func today() time.Time {
	return model.DateOnly(time.Now())
}

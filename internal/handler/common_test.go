package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdesk/hotel-pms/internal/repository"
)

func TestLedgerErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"validation", repository.ErrValidation, http.StatusBadRequest},
		{"already void", repository.ErrAlreadyVoid, http.StatusConflict},
		{"already invoiced", repository.ErrAlreadyInvoiced, http.StatusConflict},
		{"nothing to invoice", repository.ErrNothingToInvoice, http.StatusConflict},
		{"outstanding balance", repository.ErrOutstandingBalance, http.StatusConflict},
		{"invalid state", repository.ErrInvalidState, http.StatusConflict},
		{"wrapped forbidden", fmt.Errorf("%w: manager approval needed", repository.ErrForbidden), http.StatusForbidden},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			require.NoError(t, ledgerError(e.NewContext(req, rec), tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetUserIDConversions(t *testing.T) {
	e := echo.New()
	newCtx := func(v interface{}) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", v)
		return c
	}

	// JWT claims decode numbers as float64; the other shapes cover
	// direct sets from tests and future claim handling.
	for _, v := range []interface{}{uint64(42), int(42), int64(42), float64(42), "42"} {
		id, err := getUserID(newCtx(v))
		require.NoError(t, err)
		assert.Equal(t, uint64(42), id)
	}

	_, err := getUserID(newCtx("not-a-number"))
	assert.Error(t, err)
	_, err = getUserID(newCtx(nil))
	assert.Error(t, err)
}

// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP responses. Single-entity operations that return any of
// these are all-or-nothing: the surrounding transaction is rolled back
// and no state changes.
package repository

import "errors"

// ErrInvalidState is returned when an operation is not valid for the
// entity's current status, such as checking in a cancelled reservation
// or posting a charge to a closed folio. Handlers translate this into
// HTTP 409.
var ErrInvalidState = errors.New("operation not valid for current status")

// ErrRoomConflict is returned when a room fails its availability check:
// another active reservation overlaps the requested dates, or the room
// is disabled or out of order. Handlers translate this into HTTP 409.
var ErrRoomConflict = errors.New("room not available for requested dates")

// ErrValidation is returned for malformed input the engine refuses to
// act on: an arrival on or after the departure, a missing reason code,
// an empty batch selection. Handlers translate this into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrNothingToInvoice is returned when an invoice is requested for a
// folio with no unbilled, non-void transactions.
var ErrNothingToInvoice = errors.New("no unbilled transactions to invoice")

// ErrAlreadyInvoiced is returned on an attempt to void or move a
// transaction that has been placed on an invoice. Invoiced lines are
// immutable.
var ErrAlreadyInvoiced = errors.New("transaction already invoiced")

// ErrAlreadyVoid is returned on an attempt to void a transaction twice
// or to move or invoice a voided transaction.
var ErrAlreadyVoid = errors.New("transaction already void")

// ErrOutstandingBalance is returned when a folio with a non-zero balance
// blocks a close or a check-out.
var ErrOutstandingBalance = errors.New("folio has outstanding balance")

// ErrMasterFolioExists is returned when a master folio is requested for
// a group that already has one. The existing folio is never overwritten.
var ErrMasterFolioExists = errors.New("master folio already exists")

// ErrForbidden is returned when the caller's role does not permit the
// operation, such as a non-manager using an approval-gated void reason.
// Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// Not-found sentinels, one per aggregate. All map to HTTP 404.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrFolioNotFound       = errors.New("folio not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrGroupNotFound       = errors.New("group booking not found")
	ErrReasonNotFound      = errors.New("void reason code not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
)

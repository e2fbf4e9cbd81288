package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Folio statuses.  PROVISIONAL folios exist from the moment a
// reservation is taken; check-in promotes them to OPEN.  CLOSED is not
// strictly terminal – a manager may reopen a folio to take a late
// correction, and that reopening is an explicit, audited action.
const (
	FolioProvisional = "PROVISIONAL"
	FolioOpen        = "OPEN"
	FolioClosed      = "CLOSED"
	FolioCancelled   = "CANCELLED"
)

// Folio is a guest's running bill for a stay.  It deliberately has no
// balance column: the outstanding balance is always recomputed from the
// non-void transactions so a stale cached number can never become the
// source of truth.
type Folio struct {
	ID            uint64     `json:"id"`
	GuestID       uint64     `json:"guest_id"`
	ReservationID *uint64    `json:"reservation_id,omitempty"`
	Status        string     `json:"status"`
	OpenDate      time.Time  `json:"open_date"`
	CloseDate     *time.Time `json:"close_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CanFolioTransition enforces the folio lifecycle:
// PROVISIONAL -> OPEN -> CLOSED, with CANCELLED reachable from
// PROVISIONAL and OPEN, and the audited CLOSED -> OPEN reopen edge.
func CanFolioTransition(from, to string) bool {
	switch from {
	case FolioProvisional:
		return to == FolioOpen || to == FolioCancelled
	case FolioOpen:
		return to == FolioClosed || to == FolioCancelled
	case FolioClosed:
		return to == FolioOpen // manager reopen only
	}
	return false
}

// AcceptsCharges reports whether new charges may be posted.
func AcceptsCharges(status string) bool {
	return status == FolioProvisional || status == FolioOpen
}

// AcceptsPayments reports whether payments may be recorded.  A closed
// folio still takes payments so a departed guest can settle later.
func AcceptsPayments(status string) bool {
	return status == FolioOpen || status == FolioClosed
}

// Balance folds the transaction log into the outstanding balance:
// the signed sum of all non-void amounts.  Charges are positive,
// payments and discounts negative.  Invoicing never changes the result.
func Balance(txs []FolioTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsVoid {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// Settled reports whether the balance is zero to the cent.
func Settled(txs []FolioTransaction) bool {
	return Balance(txs).Round(2).IsZero()
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the local record the invoicing bridge creates when folio
// transactions are handed to the external accounting system.  Number is
// the opaque identifier returned to that system.
type Invoice struct {
	ID         uint64          `json:"id"`
	Number     string          `json:"number"`
	FolioID    uint64          `json:"folio_id"`
	Total      decimal.Decimal `json:"total"`
	IssuedDate time.Time       `json:"issued_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// VoidReasonCode is the mandatory, auditable reason attached to every
// void.  Some codes require a manager at the desk.
type VoidReasonCode struct {
	ID              uint64 `json:"id"`
	Code            string `json:"code"`
	Description     string `json:"description"`
	RequiresManager bool   `json:"requires_manager"`
}

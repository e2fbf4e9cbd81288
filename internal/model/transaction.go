package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item codes posted by the engine itself.  Anything else comes from the
// front desk as a free-form charge item.
const (
	ItemRoomRent      = "ROOM-RENT"
	ItemDiscount      = "DISCOUNT"
	ItemComplimentary = "COMPLIMENTARY"
	ItemPayment       = "PAYMENT"
	ItemRoomMove      = "ROOM-MOVE"
	ItemTransferGroup = "TRANSFER-GROUP"
)

// FolioTransaction is one line of a folio's ledger.  Lines are
// append-mostly: the only mutations ever applied are the void flag (with
// a mandatory reason), the invoiced flag, and a folio reassignment via
// the move operation.  A voided line keeps its amount for the audit
// trail and is excluded from every balance and invoice computation.
//
// Invariants:
//  - once IsInvoiced, the line is immutable: it can be neither voided
//    nor moved;
//  - once IsVoid, the line cannot be invoiced or moved;
//  - a line belongs to exactly one folio at a time.
type FolioTransaction struct {
	ID          uint64          `json:"id"`
	FolioID     uint64          `json:"folio_id"`
	PostingDate time.Time       `json:"posting_date"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Qty         uint32          `json:"qty"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	IsVoid      bool            `json:"is_void"`
	VoidReason  *string         `json:"void_reason,omitempty"`
	IsInvoiced  bool            `json:"is_invoiced"`
	Reference   string          `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CanVoid reports whether the line may still be voided.
func (t *FolioTransaction) CanVoid() bool {
	return !t.IsVoid && !t.IsInvoiced
}

// CanMove reports whether the line may be reassigned to another folio.
// The rule is identical to CanVoid but kept separate because the two
// operations diverge in how they fail (void rejects one line, move
// rejects the whole batch).
func (t *FolioTransaction) CanMove() bool {
	return !t.IsVoid && !t.IsInvoiced
}

// Invoiceable reports whether the line belongs on the next invoice.
func (t *FolioTransaction) Invoiceable() bool {
	return !t.IsVoid && !t.IsInvoiced
}

// ChargeAmount computes the amount of a charge line: rate × qty.
func ChargeAmount(rate decimal.Decimal, qty uint32) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(qty)))
}

// DiscountFor computes the credit to post alongside a room charge.
// Complimentary stays wipe the full nightly amount; percentage and fixed
// discounts reduce it.  The returned value is non-negative and capped at
// the base amount so a misconfigured discount can never flip the charge
// negative.  The second return names the item code to post under.
func DiscountFor(base decimal.Decimal, complimentary bool, discountType string, discountValue decimal.Decimal) (decimal.Decimal, string) {
	switch {
	case complimentary:
		return base, ItemComplimentary
	case discountType == DiscountPercentage:
		d := base.Mul(discountValue).Div(decimal.NewFromInt(100))
		return clampDiscount(d, base), ItemDiscount
	case discountType == DiscountAmount:
		return clampDiscount(discountValue, base), ItemDiscount
	}
	return decimal.Zero, ItemDiscount
}

func clampDiscount(d, base decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(base) {
		return base
	}
	return d
}

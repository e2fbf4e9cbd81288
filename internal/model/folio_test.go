package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBalanceFoldsNonVoidOnly(t *testing.T) {
	txs := []FolioTransaction{
		{Amount: dec("100.00")},                // room charge
		{Amount: dec("35.50")},                 // minibar
		{Amount: dec("-50.00")},                // payment
		{Amount: dec("200.00"), IsVoid: true},  // voided charge, excluded
		{Amount: dec("-10.00"), IsVoid: true},  // voided credit, excluded
	}
	assert.True(t, Balance(txs).Equal(dec("85.50")))
}

func TestBalanceEmptyAndSettled(t *testing.T) {
	assert.True(t, Balance(nil).IsZero())

	txs := []FolioTransaction{
		{Amount: dec("120.00")},
		{Amount: dec("-120.00")},
	}
	assert.True(t, Settled(txs))

	txs = append(txs, FolioTransaction{Amount: dec("0.01")})
	assert.False(t, Settled(txs))
}

func TestInvoicingDoesNotMoveBalance(t *testing.T) {
	txs := []FolioTransaction{
		{Amount: dec("100.00")},
		{Amount: dec("-40.00")},
	}
	before := Balance(txs)
	for i := range txs {
		txs[i].IsInvoiced = true
	}
	assert.True(t, before.Equal(Balance(txs)))
}

func TestVoidAndInvoiceGuards(t *testing.T) {
	fresh := FolioTransaction{Amount: dec("10.00")}
	assert.True(t, fresh.CanVoid())
	assert.True(t, fresh.CanMove())
	assert.True(t, fresh.Invoiceable())

	invoiced := FolioTransaction{Amount: dec("10.00"), IsInvoiced: true}
	assert.False(t, invoiced.CanVoid())
	assert.False(t, invoiced.CanMove())
	assert.False(t, invoiced.Invoiceable())

	void := FolioTransaction{Amount: dec("10.00"), IsVoid: true}
	assert.False(t, void.CanVoid())
	assert.False(t, void.CanMove())
	assert.False(t, void.Invoiceable())
}

func TestCanFolioTransition(t *testing.T) {
	assert.True(t, CanFolioTransition(FolioProvisional, FolioOpen))
	assert.True(t, CanFolioTransition(FolioProvisional, FolioCancelled))
	assert.True(t, CanFolioTransition(FolioOpen, FolioClosed))
	assert.True(t, CanFolioTransition(FolioOpen, FolioCancelled))
	assert.True(t, CanFolioTransition(FolioClosed, FolioOpen)) // manager reopen

	assert.False(t, CanFolioTransition(FolioClosed, FolioCancelled))
	assert.False(t, CanFolioTransition(FolioCancelled, FolioOpen))
	assert.False(t, CanFolioTransition(FolioProvisional, FolioClosed))
}

func TestChargeAmount(t *testing.T) {
	assert.True(t, ChargeAmount(dec("49.99"), 3).Equal(dec("149.97")))
	assert.True(t, ChargeAmount(dec("100.00"), 0).IsZero())
}

func TestDiscountFor(t *testing.T) {
	base := dec("200.00")

	d, item := DiscountFor(base, true, DiscountNone, decimal.Zero)
	assert.True(t, d.Equal(base))
	assert.Equal(t, ItemComplimentary, item)

	d, item = DiscountFor(base, false, DiscountPercentage, dec("15"))
	assert.True(t, d.Equal(dec("30.00")))
	assert.Equal(t, ItemDiscount, item)

	d, _ = DiscountFor(base, false, DiscountAmount, dec("50.00"))
	assert.True(t, d.Equal(dec("50.00")))

	// A fixed discount larger than the charge is capped, never negative.
	d, _ = DiscountFor(base, false, DiscountAmount, dec("999.00"))
	assert.True(t, d.Equal(base))
	d, _ = DiscountFor(base, false, DiscountAmount, dec("-5.00"))
	assert.True(t, d.IsZero())

	d, _ = DiscountFor(base, false, DiscountNone, decimal.Zero)
	assert.True(t, d.IsZero())
}

func TestRateFor(t *testing.T) {
	def := dec("90.00")
	plan := &RatePlan{
		Rate:      dec("75.00"),
		ValidFrom: day("2024-06-01"),
		ValidTo:   day("2024-06-30"),
	}

	require.True(t, RateFor(nil, def, day("2024-06-15")).Equal(def))
	assert.True(t, RateFor(plan, def, day("2024-06-15")).Equal(dec("75.00")))
	assert.True(t, RateFor(plan, def, day("2024-06-01")).Equal(dec("75.00"))) // inclusive ends
	assert.True(t, RateFor(plan, def, day("2024-06-30")).Equal(dec("75.00")))
	assert.True(t, RateFor(plan, def, day("2024-07-01")).Equal(def))
	assert.True(t, RateFor(plan, def, day("2024-05-31")).Equal(def))
}

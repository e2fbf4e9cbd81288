// Package service holds background jobs that run outside the request
// path.  The night audit is the daily batch that posts room charges to
// every in-house folio.
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk/hotel-pms/internal/model"
	"github.com/frontdesk/hotel-pms/internal/repository"
)

// NightAudit posts the daily room charge for every checked-in stay and
// rolls overstayed departures forward.  Charging is idempotent per
// (folio, date): running the audit twice on the same day posts nothing
// the second time, so a manual re-run after a crash is always safe.
type NightAudit struct {
	reservations *repository.ReservationRepo
	roomTypes    *repository.RoomTypeRepo
	folios       *repository.FolioRepo
}

func NewNightAudit(res *repository.ReservationRepo, rt *repository.RoomTypeRepo, f *repository.FolioRepo) *NightAudit {
	return &NightAudit{reservations: res, roomTypes: rt, folios: f}
}

// AuditResult summarizes one audit run.
type AuditResult struct {
	Date     string                 `json:"date"`
	Charged  []uint64               `json:"charged"`
	Extended []uint64               `json:"extended"`
	Skipped  []model.BatchItemError `json:"skipped"`
}

// Run executes the audit for the given business date.  Each stay is
// processed in its own transaction; one failing folio never blocks the
// rest of the house.
func (a *NightAudit) Run(ctx context.Context, date time.Time) (AuditResult, error) {
	date = model.DateOnly(date)
	result := AuditResult{
		Date:     date.Format("2006-01-02"),
		Charged:  []uint64{},
		Extended: []uint64{},
		Skipped:  []model.BatchItemError{},
	}

	stays, err := a.reservations.ListCheckedIn(ctx)
	if err != nil {
		return result, err
	}

	for _, stay := range stays {
		charged, err := a.chargeStay(ctx, stay, date)
		if err != nil {
			result.Skipped = append(result.Skipped, model.BatchItemError{
				ReservationID: stay.ID,
				Reason:        err.Error(),
			})
			continue
		}
		if charged {
			result.Charged = append(result.Charged, stay.ID)
		}

		// A guest still in house on or past the scheduled departure is
		// an overstay; push the departure out one day so the room stays
		// blocked and tomorrow's audit bills the extra night.
		if !model.DateOnly(stay.DepartureDate).After(date) {
			if err := a.reservations.ExtendDeparture(ctx, stay.ID, date.AddDate(0, 0, 1)); err != nil {
				log.Printf("night-audit: extend departure for reservation %d failed: %v", stay.ID, err)
				continue
			}
			result.Extended = append(result.Extended, stay.ID)
		}
	}
	return result, nil
}

// chargeStay posts the ROOM-RENT line (and its discount or complimentary
// credit) for one stay.  Returns false when the folio was already
// charged for the date.
func (a *NightAudit) chargeStay(ctx context.Context, stay model.Reservation, date time.Time) (bool, error) {
	if stay.FolioID == nil {
		return false, repository.ErrFolioNotFound
	}

	rt, err := a.roomTypes.GetByID(ctx, stay.RoomTypeID)
	if err != nil {
		return false, err
	}
	var plan *model.RatePlan
	if stay.RatePlanID != nil {
		plan, err = a.roomTypes.GetRatePlan(ctx, *stay.RatePlanID)
		if err != nil {
			return false, err
		}
	}
	rate := model.RateFor(plan, rt.DefaultRate, date)

	tx, err := a.folios.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	folio, err := a.folios.GetByIDForUpdateTx(ctx, tx, *stay.FolioID)
	if err != nil {
		return false, err
	}
	if !model.AcceptsCharges(folio.Status) {
		return false, repository.ErrInvalidState
	}

	already, err := a.folios.HasItemOnDateTx(ctx, tx, folio.ID, date, model.ItemRoomRent)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	charge := model.FolioTransaction{
		FolioID:     folio.ID,
		PostingDate: date,
		ItemCode:    model.ItemRoomRent,
		Description: "Room charge",
		Qty:         1,
		Rate:        rate,
		Amount:      model.ChargeAmount(rate, 1),
		Reference:   uuid.NewString(),
	}
	if err := a.folios.InsertTransactionTx(ctx, tx, &charge); err != nil {
		return false, err
	}

	if credit, code := model.DiscountFor(charge.Amount, stay.IsComplimentary, stay.DiscountType, stay.DiscountValue); credit.IsPositive() {
		line := model.FolioTransaction{
			FolioID:     folio.ID,
			PostingDate: date,
			ItemCode:    code,
			Description: "Room charge adjustment",
			Qty:         1,
			Rate:        credit,
			Amount:      credit.Neg(),
			Reference:   uuid.NewString(),
		}
		if err := a.folios.InsertTransactionTx(ctx, tx, &line); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// NextRun returns the next wall-clock instant (UTC) at which the audit
// ticker should fire for the configured hour.
func NextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs the audit once a day at the configured hour until ctx is
// cancelled.  Intended to run on its own goroutine from main.
func (a *NightAudit) Start(ctx context.Context, hour int) {
	for {
		next := NextRun(time.Now(), hour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		res, err := a.Run(ctx, next)
		if err != nil {
			log.Printf("night-audit: run failed: %v", err)
			continue
		}
		log.Printf("night-audit: date=%s charged=%d extended=%d skipped=%d",
			res.Date, len(res.Charged), len(res.Extended), len(res.Skipped))
	}
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// RoomTypeRepo provides persistence for room types and their rate plans.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo returns a new RoomTypeRepo bound to the given database.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// Create inserts a room type and returns its generated ID.
func (r *RoomTypeRepo) Create(ctx context.Context, code, name string, defaultRate decimal.Decimal) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO room_types (code, name, default_rate) VALUES (?, ?, ?)`,
		code, name, defaultRate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room type.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (model.RoomType, error) {
	var rt model.RoomType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, default_rate, created_at, updated_at FROM room_types WHERE id = ?`,
		id).Scan(&rt.ID, &rt.Code, &rt.Name, &rt.DefaultRate, &rt.CreatedAt, &rt.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.RoomType{}, ErrRoomTypeNotFound
	}
	return rt, err
}

// List returns all room types ordered by code.
func (r *RoomTypeRepo) List(ctx context.Context) ([]model.RoomType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name, default_rate, created_at, updated_at FROM room_types ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomType, 0)
	for rows.Next() {
		var rt model.RoomType
		if err := rows.Scan(&rt.ID, &rt.Code, &rt.Name, &rt.DefaultRate, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// CreateRatePlan inserts a rate plan for a room type.
func (r *RoomTypeRepo) CreateRatePlan(ctx context.Context, name string, roomTypeID uint64, rate decimal.Decimal, validFrom, validTo time.Time) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rate_plans (name, room_type_id, rate, valid_from, valid_to) VALUES (?, ?, ?, ?, ?)`,
		name, roomTypeID, rate, validFrom.Format(dateLayout), validTo.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetRatePlan fetches a rate plan by ID.  Missing plans return nil so
// the rate lookup can fall through to the room type default.
func (r *RoomTypeRepo) GetRatePlan(ctx context.Context, id uint64) (*model.RatePlan, error) {
	var p model.RatePlan
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, room_type_id, rate, valid_from, valid_to, created_at FROM rate_plans WHERE id = ?`,
		id).Scan(&p.ID, &p.Name, &p.RoomTypeID, &p.Rate, &p.ValidFrom, &p.ValidTo, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

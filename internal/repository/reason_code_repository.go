package repository

import (
	"context"
	"database/sql"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// ReasonCodeRepo reads the void reason code catalog.
type ReasonCodeRepo struct {
	db *sql.DB
}

func NewReasonCodeRepo(db *sql.DB) *ReasonCodeRepo { return &ReasonCodeRepo{db: db} }

// GetByCode looks up a reason code.
func (r *ReasonCodeRepo) GetByCode(ctx context.Context, code string) (model.VoidReasonCode, error) {
	var rc model.VoidReasonCode
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, description, requires_manager FROM void_reason_codes WHERE code = ?`,
		code).Scan(&rc.ID, &rc.Code, &rc.Description, &rc.RequiresManager)
	if err == sql.ErrNoRows {
		return model.VoidReasonCode{}, ErrReasonNotFound
	}
	return rc, err
}

// List returns the full catalog.
func (r *ReasonCodeRepo) List(ctx context.Context) ([]model.VoidReasonCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, description, requires_manager FROM void_reason_codes ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.VoidReasonCode, 0)
	for rows.Next() {
		var rc model.VoidReasonCode
		if err := rows.Scan(&rc.ID, &rc.Code, &rc.Description, &rc.RequiresManager); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

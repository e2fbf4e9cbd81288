package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/frontdesk/hotel-pms/internal/model"
)

// GuestRepo provides persistence for guest master records.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo returns a new GuestRepo bound to the given database.
func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

// Create inserts a guest and returns its generated ID.
func (r *GuestRepo) Create(ctx context.Context, fullName string, email, phone *string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (full_name, email, phone) VALUES (?, ?, ?)`,
		strings.TrimSpace(fullName), email, phone)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a guest.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (model.Guest, error) {
	var g model.Guest
	var email, phone sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, phone, created_at, updated_at FROM guests WHERE id = ?`,
		id).Scan(&g.ID, &g.FullName, &email, &phone, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Guest{}, ErrGuestNotFound
	}
	if err != nil {
		return model.Guest{}, err
	}
	if email.Valid {
		v := email.String
		g.Email = &v
	}
	if phone.Valid {
		v := phone.String
		g.Phone = &v
	}
	return g, nil
}

// List returns all guests, newest first.
func (r *GuestRepo) List(ctx context.Context) ([]model.Guest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, email, phone, created_at, updated_at FROM guests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Guest, 0)
	for rows.Next() {
		var g model.Guest
		var email, phone sql.NullString
		if err := rows.Scan(&g.ID, &g.FullName, &email, &phone, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			v := email.String
			g.Email = &v
		}
		if phone.Valid {
			v := phone.String
			g.Phone = &v
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

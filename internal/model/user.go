package model

import "time"

// Staff roles.  MANAGER unlocks folio reopen, night audit and room
// administration; HOUSEKEEPING may only touch room statuses.
const (
	RoleManager      = "MANAGER"
	RoleFrontDesk    = "FRONTDESK"
	RoleHousekeeping = "HOUSEKEEPING"
)

// User is a front-desk staff account.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidRole reports whether s names a staff role.
func ValidRole(s string) bool {
	switch s {
	case RoleManager, RoleFrontDesk, RoleHousekeeping:
		return true
	}
	return false
}

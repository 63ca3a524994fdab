package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin     = "Admin"
	RoleOrganizer = "EventOrganizer"
	RoleCustomer  = "Customer"
)

// User is maintained by the identity system; this service reads it for
// emails and reports and only mutates role, loyalty points and lockout.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID            string    `bun:"id,pk" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	FirstName     string    `bun:"first_name" json:"first_name"`
	LastName      string    `bun:"last_name" json:"last_name"`
	Role          string    `bun:"role,notnull" json:"role"`
	LoyaltyPoints int       `bun:"loyalty_points" json:"loyalty_points"`
	LockoutEnd    time.Time `bun:"lockout_end,nullzero" json:"lockout_end,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt     time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// IsLockedOut reports whether the account is currently disabled.
func (u *User) IsLockedOut() bool {
	return !u.LockoutEnd.IsZero() && u.LockoutEnd.After(time.Now())
}

type UpdateUserRequest struct {
	Role          string `json:"role" validate:"omitempty,oneof=Admin EventOrganizer Customer"`
	LoyaltyPoints *int   `json:"loyalty_points" validate:"omitempty,gte=0"`
	LockedOut     *bool  `json:"locked_out"`
}

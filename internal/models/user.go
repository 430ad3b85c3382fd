package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a staff member. LegacyRole is the single-string role column that
// predates the role tables; it is only consulted while the user has no role rows.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string    `bun:"id,pk" json:"id"`
	Name             string    `bun:"name,notnull" json:"name"`
	Phone            string    `bun:"phone" json:"phone,omitempty"`
	LegacyRole       string    `bun:"role" json:"role,omitempty"`
	PickupLocationID *string   `bun:"pickup_location_id" json:"pickup_location_id,omitempty"`
	IsActive         bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID string `bun:"user_id,pk"`
	RoleID string `bun:"role_id,pk"`
}

type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	RoleID       string `bun:"role_id,pk"`
	PermissionID string `bun:"permission_id,pk"`
}

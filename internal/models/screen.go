package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ScreenType string

const (
	ScreenWaiter  ScreenType = "waiter"
	ScreenKitchen ScreenType = "kitchen"
	ScreenCashier ScreenType = "cashier"
)

func (t ScreenType) Valid() bool {
	switch t {
	case ScreenWaiter, ScreenKitchen, ScreenCashier:
		return true
	}
	return false
}

// PickupLocation is a physical branch.
type PickupLocation struct {
	bun.BaseModel `bun:"table:pickup_locations,alias:pl"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Address   string    `bun:"address" json:"address,omitempty"`
	IsActive  bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// BranchScreen is a staff display bound to one branch. Menu item routing only
// applies to kitchen screens.
type BranchScreen struct {
	bun.BaseModel `bun:"table:branch_screens,alias:bs"`

	ID               string     `bun:"id,pk" json:"id"`
	PickupLocationID string     `bun:"pickup_location_id,notnull" json:"pickup_location_id"`
	Name             string     `bun:"name,notnull" json:"name"`
	ScreenType       ScreenType `bun:"screen_type,notnull" json:"screen_type"`
	IsActive         bool       `bun:"is_active,notnull" json:"is_active"`
	CreatedAt        time.Time  `bun:"created_at,notnull" json:"created_at"`
}

type BranchScreenUser struct {
	bun.BaseModel `bun:"table:branch_screen_users,alias:bsu"`

	BranchScreenID string `bun:"branch_screen_id,pk" json:"branch_screen_id"`
	UserID         string `bun:"user_id,pk" json:"user_id"`
}

type BranchScreenMenuItem struct {
	bun.BaseModel `bun:"table:branch_screen_menu_items,alias:bsm"`

	BranchScreenID string `bun:"branch_screen_id,pk" json:"branch_screen_id"`
	MenuItemID     string `bun:"menu_item_id,pk" json:"menu_item_id"`
}

type KitchenStatus string

const (
	KitchenPending   KitchenStatus = "pending"
	KitchenPreparing KitchenStatus = "preparing"
	KitchenPrepared  KitchenStatus = "prepared"
)

func (s KitchenStatus) Valid() bool {
	switch s {
	case KitchenPending, KitchenPreparing, KitchenPrepared:
		return true
	}
	return false
}

// OrderScreenStatus is one row per (order, kitchen screen). Version backs the
// optimistic concurrency guard on updates.
type OrderScreenStatus struct {
	bun.BaseModel `bun:"table:order_screen_statuses,alias:oss"`

	ID                 string        `bun:"id,pk" json:"id"`
	OrderID            string        `bun:"order_id,notnull" json:"order_id"`
	BranchScreenID     string        `bun:"branch_screen_id,notnull" json:"branch_screen_id"`
	Status             KitchenStatus `bun:"status,notnull" json:"status"`
	PreparingStartedAt *time.Time    `bun:"preparing_started_at" json:"preparing_started_at,omitempty"`
	PreparedAt         *time.Time    `bun:"prepared_at" json:"prepared_at,omitempty"`
	UpdatedBy          *string       `bun:"updated_by" json:"updated_by,omitempty"`
	Version            int           `bun:"version,notnull" json:"version"`
	CreatedAt          time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID                 string          `bun:"id,pk" json:"id"`
	Name               string          `bun:"name,notnull" json:"name"`
	Description        string          `bun:"description" json:"description,omitempty"`
	Price              decimal.Decimal `bun:"price,type:decimal(12,2),notnull" json:"price"`
	IsAvailable        bool            `bun:"is_available,notnull" json:"is_available"`
	VisibilityChannels []string        `bun:"visibility_channels,type:text" json:"visibility_channels"`
	CreatedAt          time.Time       `bun:"created_at,notnull" json:"created_at"`
}

type DiningTable struct {
	bun.BaseModel `bun:"table:dining_tables,alias:dt"`

	ID               string `bun:"id,pk" json:"id"`
	PickupLocationID string `bun:"pickup_location_id,notnull" json:"pickup_location_id"`
	Label            string `bun:"label,notnull" json:"label"`
	QRToken          string `bun:"qr_token,notnull,unique" json:"qr_token"`
}

// TableSession starts from a QR scan and stays unverified until staff confirm it.
type TableSession struct {
	bun.BaseModel `bun:"table:table_sessions,alias:ts"`

	ID            string     `bun:"id,pk" json:"id"`
	DiningTableID string     `bun:"dining_table_id,notnull" json:"dining_table_id"`
	SessionToken  string     `bun:"session_token,notnull,unique" json:"session_token"`
	StartedAt     time.Time  `bun:"started_at,notnull" json:"started_at"`
	LastSeenAt    time.Time  `bun:"last_seen_at,notnull" json:"last_seen_at"`
	VerifiedAt    *time.Time `bun:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy    *string    `bun:"verified_by" json:"verified_by,omitempty"`
}

func (s TableSession) Verified() bool {
	return s.VerifiedAt != nil
}

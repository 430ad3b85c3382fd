package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type SourceChannel string

const (
	SourceWeb      SourceChannel = "web"
	SourceTelegram SourceChannel = "telegram"
	SourceTable    SourceChannel = "table"
)

func (s SourceChannel) Valid() bool {
	switch s {
	case SourceWeb, SourceTelegram, SourceTable:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPendingConfirmation OrderStatus = "pending_confirmation"
	OrderConfirmed           OrderStatus = "confirmed"
	OrderServed              OrderStatus = "served"
	OrderCompleted           OrderStatus = "completed"
	OrderCancelled           OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingConfirmation, OrderConfirmed, OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type ReceiptStatus string

const (
	ReceiptPending     ReceiptStatus = "pending"
	ReceiptApproved    ReceiptStatus = "approved"
	ReceiptDisapproved ReceiptStatus = "disapproved"
)

func (s ReceiptStatus) Valid() bool {
	switch s {
	case ReceiptPending, ReceiptApproved, ReceiptDisapproved:
		return true
	}
	return false
}

// Order is a customer purchase. Orders are never hard-deleted; cancellation is a status.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                string          `bun:"id,pk" json:"id"`
	CustomerID        string          `bun:"customer_id,notnull" json:"customer_id"`
	PickupDate        time.Time       `bun:"pickup_date,notnull" json:"pickup_date"`
	PickupLocationID  string          `bun:"pickup_location_id,notnull" json:"pickup_location_id"`
	DiningTableID     *string         `bun:"dining_table_id" json:"dining_table_id,omitempty"`
	TableSessionID    *string         `bun:"table_session_id" json:"table_session_id,omitempty"`
	SourceChannel     SourceChannel   `bun:"source_channel,notnull" json:"source_channel"`
	ReceiptURL        string          `bun:"receipt_url" json:"receipt_url,omitempty"`
	ReceiptStatus     ReceiptStatus   `bun:"receipt_status,notnull" json:"receipt_status"`
	OrderStatus       OrderStatus     `bun:"order_status,notnull" json:"order_status"`
	TrackingToken     string          `bun:"tracking_token,notnull,unique" json:"tracking_token"`
	TotalAmount       decimal.Decimal `bun:"total_amount,type:decimal(12,2),notnull" json:"total_amount"`
	DisapprovalReason string          `bun:"disapproval_reason" json:"disapproval_reason,omitempty"`
	NotifyWhenReady   bool            `bun:"notify_when_ready,notnull" json:"notify_when_ready"`
	ReviewedBy        *string         `bun:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time      `bun:"reviewed_at" json:"reviewed_at,omitempty"`
	ConfirmedBy       *string         `bun:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time      `bun:"confirmed_at" json:"confirmed_at,omitempty"`
	ServedBy          *string         `bun:"served_by" json:"served_by,omitempty"`
	ServedAt          *time.Time      `bun:"served_at" json:"served_at,omitempty"`
	ReadyNotifiedAt   *time.Time      `bun:"ready_notified_at" json:"ready_notified_at,omitempty"`
	CreatedAt         time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

// OrderItem snapshots the menu item name and price at checkout.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID         string          `bun:"id,pk" json:"id"`
	OrderID    string          `bun:"order_id,notnull" json:"order_id"`
	MenuItemID string          `bun:"menu_item_id,notnull" json:"menu_item_id"`
	Name       string          `bun:"name,notnull" json:"name"`
	UnitPrice  decimal.Decimal `bun:"unit_price,type:decimal(12,2),notnull" json:"unit_price"`
	Quantity   int             `bun:"quantity,notnull" json:"quantity"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Phone     string    `bun:"phone,notnull" json:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

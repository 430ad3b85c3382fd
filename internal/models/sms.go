package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SmsStatus string

const (
	SmsSent    SmsStatus = "sent"
	SmsFailed  SmsStatus = "failed"
	SmsSkipped SmsStatus = "skipped"
)

// SmsLog records every notification decision, including skipped ones.
type SmsLog struct {
	bun.BaseModel `bun:"table:sms_logs,alias:sl"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderID   *string   `bun:"order_id" json:"order_id,omitempty"`
	Phone     string    `bun:"phone,notnull" json:"phone"`
	Event     string    `bun:"event,notnull" json:"event"`
	Message   string    `bun:"message" json:"message"`
	Status    SmsStatus `bun:"status,notnull" json:"status"`
	Detail    string    `bun:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type BusinessSetting struct {
	bun.BaseModel `bun:"table:business_settings,alias:bset"`

	Key   string `bun:"key,pk" json:"key"`
	Value string `bun:"value" json:"value"`
}

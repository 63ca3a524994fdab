package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WebhookEvent is the durable idempotency ledger: one row per gateway
// event id that has been processed. The primary key doubles as the
// unique constraint that rejects re-deliveries.
type WebhookEvent struct {
	bun.BaseModel `bun:"table:webhook_events"`

	ID         string    `bun:"id,pk" json:"id"`
	EventType  string    `bun:"event_type,notnull" json:"event_type"`
	ReceivedAt time.Time `bun:"received_at,notnull" json:"received_at"`
}

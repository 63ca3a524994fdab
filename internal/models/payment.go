package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodStripe       PaymentMethod = "stripe"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
)

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID                    string        `bun:"id,pk" json:"id"`
	Amount                float64       `bun:"amount,notnull" json:"amount"`
	PaymentDate           time.Time     `bun:"payment_date,notnull" json:"payment_date"`
	Status                PaymentStatus `bun:"status,notnull" json:"status"`
	TransactionID         string        `bun:"transaction_id,notnull" json:"transaction_id"`
	PaymentMethod         PaymentMethod `bun:"payment_method,notnull" json:"payment_method"`
	TicketID              string        `bun:"ticket_id,notnull" json:"ticket_id"`
	CustomerID            string        `bun:"customer_id,notnull" json:"customer_id"`
	StripePaymentIntentID string        `bun:"stripe_payment_intent_id,nullzero" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt             time.Time     `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt             time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// PaymentEvent is the message shape published to Kafka on payment
// lifecycle transitions.
type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	TicketID  string    `json:"ticket_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

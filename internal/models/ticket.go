package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string       `bun:"id,pk" json:"id"`
	QrCode       string       `bun:"qr_code,notnull,unique" json:"qr_code"`
	Price        float64      `bun:"price,notnull" json:"price"`
	SeatNumber   string       `bun:"seat_number" json:"seat_number,omitempty"`
	Status       TicketStatus `bun:"status,notnull" json:"status"`
	PurchaseDate time.Time    `bun:"purchase_date,notnull" json:"purchase_date"`
	EventID      string       `bun:"event_id,notnull" json:"event_id"`
	CustomerID   string       `bun:"customer_id,notnull" json:"customer_id"`
	CreatedAt    time.Time    `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time    `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt    time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

type PurchaseRequest struct {
	EventID       string `json:"event_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0,lte=10"`
	PromotionCode string `json:"promotion_code,omitempty"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// PurchaseResult reports a possibly-partial purchase: Purchased may be less
// than Requested when availability runs out mid-loop.
type PurchaseResult struct {
	Requested   int      `json:"requested"`
	Purchased   int      `json:"purchased"`
	Tickets     []Ticket `json:"tickets"`
	PaymentIDs  []string `json:"payment_ids"`
	UnitPrice   float64  `json:"unit_price"`
	TotalAmount float64  `json:"total_amount"`
	CheckoutURL string   `json:"checkout_url,omitempty"`
}

// AllPurchased reports whether every requested ticket was issued.
func (r *PurchaseResult) AllPurchased() bool {
	return r.Purchased == r.Requested
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Promotion struct {
	bun.BaseModel `bun:"table:promotions"`

	ID                 string    `bun:"id,pk" json:"id"`
	Code               string    `bun:"code,notnull,unique" json:"code"`
	Description        string    `bun:"description" json:"description,omitempty"`
	DiscountPercentage float64   `bun:"discount_percentage,notnull" json:"discount_percentage"`
	StartDate          time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate            time.Time `bun:"end_date,notnull" json:"end_date"`
	IsActive           bool      `bun:"is_active" json:"is_active"`
	EventID            string    `bun:"event_id,notnull" json:"event_id"`
	CreatedAt          time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt          time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// ValidAt reports whether the promotion can be redeemed at the given
// instant: active and inside its [StartDate, EndDate] window.
func (p *Promotion) ValidAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

type CreatePromotionRequest struct {
	Code               string    `json:"code" validate:"required,max=50"`
	Description        string    `json:"description" validate:"max=500"`
	DiscountPercentage float64   `json:"discount_percentage" validate:"gte=0,lte=100"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	EndDate            time.Time `json:"end_date" validate:"required"`
	EventID            string    `json:"event_id" validate:"required"`
}

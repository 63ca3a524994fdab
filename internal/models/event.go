package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID               string    `bun:"id,pk" json:"id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description" json:"description"`
	Date             time.Time `bun:"date,notnull" json:"date"`
	Location         string    `bun:"location,notnull" json:"location"`
	Category         string    `bun:"category,notnull" json:"category"`
	Capacity         int       `bun:"capacity,notnull" json:"capacity"`
	AvailableTickets int       `bun:"available_tickets,notnull" json:"available_tickets"`
	BasePrice        float64   `bun:"base_price,notnull" json:"base_price"`
	ImageURL         string    `bun:"image_url" json:"image_url,omitempty"`
	IsActive         bool      `bun:"is_active" json:"is_active"`
	OrganizerID      string    `bun:"organizer_id,notnull" json:"organizer_id"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt        time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// EventSearchFilter carries the optional search criteria for the public
// event listing. Zero values mean "not filtered".
type EventSearchFilter struct {
	Category   string
	Date       *time.Time
	Location   string
	SearchTerm string
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	Category    string    `json:"category" validate:"required,max=50"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
	BasePrice   float64   `json:"base_price" validate:"gte=0"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url,max=500"`
}

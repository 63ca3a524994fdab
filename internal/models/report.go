package models

// EventRevenue is one row of the revenue report: completed payment
// totals grouped by event.
type EventRevenue struct {
	EventID     string  `bun:"event_id" json:"event_id"`
	Title       string  `bun:"title" json:"title"`
	TicketsSold int     `bun:"tickets_sold" json:"tickets_sold"`
	Revenue     float64 `bun:"revenue" json:"revenue"`
}

// RevenueSummary is the dashboard aggregate.
type RevenueSummary struct {
	TotalRevenue float64        `json:"total_revenue"`
	ByEvent      []EventRevenue `json:"by_event"`
}

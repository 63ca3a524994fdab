package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"event-ticketing/internal/models"

	"github.com/uptrace/bun"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrCapacityExceeded = errors.New("release would exceed event capacity")
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEventByID(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// GetAllEvents returns active, non-deleted events ordered by date.
func (d *DB) GetAllEvents() ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("is_active = ?", true).
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetAllEventsIncludingInactive is the admin listing; soft-deleted rows
// stay hidden.
func (d *DB) GetAllEventsIncludingInactive() ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEventsByOrganizerID(organizerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("organizer_id = ?", organizerID).
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) SearchEvents(filter models.EventSearchFilter) ([]models.Event, error) {
	q := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("is_active = ?", true)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Location != "" {
		q = q.Where("location LIKE ?", "%"+filter.Location+"%")
	}
	if filter.Date != nil {
		dayStart := filter.Date.Truncate(24 * time.Hour)
		q = q.Where("date >= ?", dayStart).Where("date < ?", dayStart.Add(24*time.Hour))
	}
	if filter.SearchTerm != "" {
		term := "%" + filter.SearchTerm + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereOr("title LIKE ?", term).WhereOr("description LIKE ?", term)
		})
	}

	var events []models.Event
	if err := q.Order("date ASC").Scan(context.Background(), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetUpcomingEvents() ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("is_active = ?", true).
		Where("date > ?", time.Now()).
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) CreateEvent(event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(context.Background())
	return err
}

func (d *DB) UpdateEvent(event models.Event) error {
	event.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "description", "date", "location", "category",
			"capacity", "base_price", "image_url", "is_active", "updated_at").
		Where("id = ?", event.ID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent soft-deletes: bun turns this into an UPDATE of deleted_at.
func (d *DB) DeleteEvent(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ReserveTickets decrements available_tickets by count in a single
// conditional UPDATE. Returns false without error when the event is
// missing, inactive or has fewer than count tickets left; the row count
// is the only synchronization needed, so concurrent reservations cannot
// oversell.
func (d *DB) ReserveTickets(eventID string, count int) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_tickets = available_tickets - ?", count).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", eventID).
		Where("is_active = ?", true).
		Where("available_tickets >= ?", count).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ReleaseTickets returns count tickets to the pool, refusing to exceed
// capacity.
func (d *DB) ReleaseTickets(eventID string, count int) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_tickets = available_tickets + ?", count).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", eventID).
		Where("available_tickets + ? <= capacity", count).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

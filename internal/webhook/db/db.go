package db

import (
	"context"
	"time"

	"event-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// HasProcessed reports whether the gateway event id is already in the
// ledger.
func (d *DB) HasProcessed(eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.WebhookEvent)(nil)).
		Where("id = ?", eventID).
		Exists(context.Background())
}

// RecordEvent writes the event id into the ledger. A concurrent insert
// of the same id is not an error; the first writer wins and the return
// value reports whether this call was it.
func (d *DB) RecordEvent(eventID, eventType string) (bool, error) {
	event := models.WebhookEvent{
		ID:         eventID,
		EventType:  eventType,
		ReceivedAt: time.Now(),
	}
	res, err := d.Bun.NewInsert().
		Model(&event).
		On("CONFLICT (id) DO NOTHING").
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

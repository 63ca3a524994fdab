package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"event-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	// Shared-cache sqlite misbehaves with multiple connections.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Ticket)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func seedEvent(t *testing.T, db *DB, id string, available int, active bool) {
	t.Helper()
	now := time.Now()
	event := models.Event{
		ID:               id,
		Title:            "Summer Fest",
		Date:             now.AddDate(0, 1, 0),
		Location:         "Riverside Park",
		Category:         "music",
		Capacity:         100,
		AvailableTickets: available,
		BasePrice:        50,
		IsActive:         active,
		OrganizerID:      "org-1",
		CreatedAt:        now,
	}
	_, err := db.Bun.NewInsert().Model(&event).Exec(context.Background())
	require.NoError(t, err)
}

func sampleTicket(id, eventID string) models.Ticket {
	now := time.Now()
	return models.Ticket{
		ID:           id,
		QrCode:       "TKT-" + id,
		Price:        50,
		Status:       models.TicketActive,
		PurchaseDate: now,
		EventID:      eventID,
		CustomerID:   "cust-1",
		CreatedAt:    now,
	}
}

func eventAvailability(t *testing.T, db *DB, eventID string) int {
	t.Helper()
	var event models.Event
	err := db.Bun.NewSelect().Model(&event).Where("id = ?", eventID).Scan(context.Background())
	require.NoError(t, err)
	return event.AvailableTickets
}

func TestCreateTicketReservingInventory(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 2, true)

	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1")))
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-2", "ev-1")))
	assert.Equal(t, 0, eventAvailability(t, db, "ev-1"))

	// Third insert finds no inventory: transaction rolls back, no ticket
	// row and no counter change.
	err := db.CreateTicketReservingInventory(sampleTicket("tk-3", "ev-1"))
	assert.ErrorIs(t, err, ErrSoldOut)

	_, err = db.GetTicketByID("tk-3")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Equal(t, 0, eventAvailability(t, db, "ev-1"))
}

func TestCreateTicketReservingInventoryInactiveEvent(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 10, false)

	err := db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1"))
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, 10, eventAvailability(t, db, "ev-1"))
}

func TestGetTicketByQrCode(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 5, true)
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1")))

	got, err := db.GetTicketByQrCode("TKT-tk-1")
	require.NoError(t, err)
	assert.Equal(t, "tk-1", got.ID)

	_, err = db.GetTicketByQrCode("TKT-missing")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGetTicketsByCustomerAndEvent(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 5, true)
	seedEvent(t, db, "ev-2", 5, true)

	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1")))
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-2", "ev-1")))
	other := sampleTicket("tk-3", "ev-2")
	other.CustomerID = "cust-2"
	require.NoError(t, db.CreateTicketReservingInventory(other))

	tickets, err := db.GetTicketsByCustomerID("cust-1")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	tickets, err = db.GetTicketsByEventID("ev-2")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "cust-2", tickets[0].CustomerID)
}

func TestUpdateTicketStatus(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 5, true)
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1")))

	require.NoError(t, db.UpdateTicketStatus("tk-1", models.TicketUsed))

	got, err := db.GetTicketByID("tk-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, got.Status)

	assert.ErrorIs(t, db.UpdateTicketStatus("missing", models.TicketUsed), ErrTicketNotFound)
}

func TestCountSoldByEventID(t *testing.T) {
	db := setupTestDB(t)
	seedEvent(t, db, "ev-1", 5, true)

	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-1", "ev-1")))
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-2", "ev-1")))
	require.NoError(t, db.CreateTicketReservingInventory(sampleTicket("tk-3", "ev-1")))

	require.NoError(t, db.UpdateTicketStatus("tk-1", models.TicketUsed))
	require.NoError(t, db.UpdateTicketStatus("tk-2", models.TicketCancelled))

	count, err := db.CountSoldByEventID("ev-1")
	require.NoError(t, err)
	// Active and used occupy inventory; cancelled does not.
	assert.Equal(t, 2, count)
}

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
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Payment)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Ticket)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func samplePayment(id, ticketID string, amount float64, status models.PaymentStatus, at time.Time) models.Payment {
	return models.Payment{
		ID:            id,
		Amount:        amount,
		PaymentDate:   at,
		Status:        status,
		TransactionID: "TXN-" + id,
		PaymentMethod: models.MethodStripe,
		TicketID:      ticketID,
		CustomerID:    "cust-1",
		CreatedAt:     at,
	}
}

func TestCreateAndGetPayment(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().Round(time.Second)

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentPending, now)))

	got, err := db.GetPaymentByID("pay-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Amount)
	assert.Equal(t, models.PaymentPending, got.Status)

	_, err = db.GetPaymentByID("missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	got, err = db.GetPaymentByTransactionID("TXN-pay-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)
}

func TestAttachAndFindByIntent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentPending, now)))

	require.NoError(t, db.AttachPaymentIntent("pay-1", "pi_abc"))

	got, err := db.GetPaymentByIntentID("pi_abc")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)

	_, err = db.GetPaymentByIntentID("pi_missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	assert.ErrorIs(t, db.AttachPaymentIntent("missing", "pi_x"), ErrPaymentNotFound)
}

func TestGetPaymentsByTicketIDOrdering(t *testing.T) {
	db := setupTestDB(t)
	base := time.Now().Add(-time.Hour)

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentRefunded, base)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-2", "tk-1", -50, models.PaymentCompleted, base.Add(time.Minute))))
	require.NoError(t, db.CreatePayment(samplePayment("pay-3", "tk-2", 20, models.PaymentCompleted, base)))

	payments, err := db.GetPaymentsByTicketID("tk-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	// Newest first: refund entry precedes the original.
	assert.Equal(t, "pay-2", payments[0].ID)
	assert.Equal(t, "pay-1", payments[1].ID)
}

func TestUpdatePaymentStatus(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentPending, time.Now())))

	require.NoError(t, db.UpdatePaymentStatus("pay-1", models.PaymentCompleted))
	got, err := db.GetPaymentByID("pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Status)

	assert.ErrorIs(t, db.UpdatePaymentStatus("missing", models.PaymentFailed), ErrPaymentNotFound)
}

func TestTotalRevenueNetsRefunds(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 100, models.PaymentRefunded, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-2", "tk-1", -100, models.PaymentCompleted, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-3", "tk-2", 60, models.PaymentCompleted, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-4", "tk-3", 40, models.PaymentPending, now)))

	total, err := db.TotalRevenue()
	require.NoError(t, err)
	// Only completed rows count: -100 + 60.
	assert.Equal(t, -40.0, total)
}

func TestTotalRevenueEmpty(t *testing.T) {
	db := setupTestDB(t)

	total, err := db.TotalRevenue()
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestRevenueGroupedByEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	events := []models.Event{
		{ID: "ev-1", Title: "Rock Night", Date: now, Location: "Arena", Category: "music", Capacity: 100, AvailableTickets: 97, BasePrice: 50, IsActive: true, OrganizerID: "org-1", CreatedAt: now},
		{ID: "ev-2", Title: "Tech Expo", Date: now, Location: "Hall", Category: "technology", Capacity: 50, AvailableTickets: 49, BasePrice: 20, IsActive: true, OrganizerID: "org-2", CreatedAt: now},
	}
	_, err := db.Bun.NewInsert().Model(&events).Exec(ctx)
	require.NoError(t, err)

	tickets := []models.Ticket{
		{ID: "tk-1", QrCode: "TKT-1", Price: 50, Status: models.TicketActive, PurchaseDate: now, EventID: "ev-1", CustomerID: "cust-1", CreatedAt: now},
		{ID: "tk-2", QrCode: "TKT-2", Price: 50, Status: models.TicketRefunded, PurchaseDate: now, EventID: "ev-1", CustomerID: "cust-1", CreatedAt: now},
		{ID: "tk-3", QrCode: "TKT-3", Price: 20, Status: models.TicketActive, PurchaseDate: now, EventID: "ev-2", CustomerID: "cust-2", CreatedAt: now},
	}
	_, err = db.Bun.NewInsert().Model(&tickets).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentCompleted, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-2", "tk-2", 50, models.PaymentRefunded, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-3", "tk-2", -50, models.PaymentCompleted, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-4", "tk-3", 20, models.PaymentCompleted, now)))

	rows, err := db.RevenueGroupedByEvent()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byEvent := map[string]models.EventRevenue{}
	for _, r := range rows {
		byEvent[r.EventID] = r
	}
	// ev-1 nets to zero after the refund entry.
	assert.Equal(t, 0.0, byEvent["ev-1"].Revenue)
	assert.Equal(t, 1, byEvent["ev-1"].TicketsSold)
	assert.Equal(t, 20.0, byEvent["ev-2"].Revenue)
	assert.Equal(t, 1, byEvent["ev-2"].TicketsSold)
}

func TestRevenueByOrganizer(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	events := []models.Event{
		{ID: "ev-1", Title: "Rock Night", Date: now, Location: "Arena", Category: "music", Capacity: 100, AvailableTickets: 99, BasePrice: 50, IsActive: true, OrganizerID: "org-1", CreatedAt: now},
		{ID: "ev-2", Title: "Tech Expo", Date: now, Location: "Hall", Category: "technology", Capacity: 50, AvailableTickets: 49, BasePrice: 20, IsActive: true, OrganizerID: "org-2", CreatedAt: now},
	}
	_, err := db.Bun.NewInsert().Model(&events).Exec(ctx)
	require.NoError(t, err)

	tickets := []models.Ticket{
		{ID: "tk-1", QrCode: "TKT-1", Price: 50, Status: models.TicketActive, PurchaseDate: now, EventID: "ev-1", CustomerID: "cust-1", CreatedAt: now},
		{ID: "tk-2", QrCode: "TKT-2", Price: 20, Status: models.TicketActive, PurchaseDate: now, EventID: "ev-2", CustomerID: "cust-2", CreatedAt: now},
	}
	_, err = db.Bun.NewInsert().Model(&tickets).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, db.CreatePayment(samplePayment("pay-1", "tk-1", 50, models.PaymentCompleted, now)))
	require.NoError(t, db.CreatePayment(samplePayment("pay-2", "tk-2", 20, models.PaymentCompleted, now)))

	total, err := db.RevenueByOrganizer("org-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)

	total, err = db.RevenueByOrganizer("org-none")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

package event

import (
	"errors"
	"testing"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEventDB struct {
	events       map[string]*models.Event
	shouldFailOn string
}

func newMockEventDB() *mockEventDB {
	return &mockEventDB{events: make(map[string]*models.Event)}
}

func (m *mockEventDB) GetEventByID(id string) (*models.Event, error) {
	if m.shouldFailOn == "GetEventByID" {
		return nil, errors.New("db failure")
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	cp := *ev
	return &cp, nil
}

func (m *mockEventDB) GetAllEvents() ([]models.Event, error)                   { return nil, nil }
func (m *mockEventDB) GetAllEventsIncludingInactive() ([]models.Event, error)  { return nil, nil }
func (m *mockEventDB) GetEventsByOrganizerID(string) ([]models.Event, error)   { return nil, nil }
func (m *mockEventDB) SearchEvents(models.EventSearchFilter) ([]models.Event, error) {
	return nil, nil
}
func (m *mockEventDB) GetUpcomingEvents() ([]models.Event, error) { return nil, nil }

func (m *mockEventDB) CreateEvent(ev models.Event) error {
	if m.shouldFailOn == "CreateEvent" {
		return errors.New("db failure")
	}
	m.events[ev.ID] = &ev
	return nil
}

func (m *mockEventDB) UpdateEvent(ev models.Event) error {
	m.events[ev.ID] = &ev
	return nil
}

func (m *mockEventDB) DeleteEvent(id string) error {
	delete(m.events, id)
	return nil
}

func (m *mockEventDB) ReserveTickets(eventID string, count int) (bool, error) {
	ev, ok := m.events[eventID]
	if !ok || !ev.IsActive || ev.AvailableTickets < count {
		return false, nil
	}
	ev.AvailableTickets -= count
	return true, nil
}

func (m *mockEventDB) ReleaseTickets(eventID string, count int) error {
	if ev, ok := m.events[eventID]; ok {
		ev.AvailableTickets += count
	}
	return nil
}

type mockPromoLookup struct {
	promos map[string]*models.Promotion
}

func (m *mockPromoLookup) GetPromotionForEvent(code, eventID string) (*models.Promotion, error) {
	promo, ok := m.promos[code]
	if !ok || promo.EventID != eventID {
		return nil, errors.New("promotion not found")
	}
	return promo, nil
}

func newTestService(db *mockEventDB, promos *mockPromoLookup) *Service {
	if promos == nil {
		promos = &mockPromoLookup{promos: map[string]*models.Promotion{}}
	}
	return NewService(db, promos, logger.NewLogger())
}

func TestCreateEventSetsDefaults(t *testing.T) {
	db := newMockEventDB()
	svc := newTestService(db, nil)

	ev, err := svc.CreateEvent(models.CreateEventRequest{
		Title:     "Jazz Evening",
		Date:      time.Now().AddDate(0, 0, 14),
		Location:  "Blue Note",
		Category:  "music",
		Capacity:  120,
		BasePrice: 35,
	}, "org-1")
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.True(t, ev.IsActive)
	assert.Equal(t, 120, ev.AvailableTickets)
	assert.Equal(t, "org-1", ev.OrganizerID)
}

func TestCreateEventValidation(t *testing.T) {
	svc := newTestService(newMockEventDB(), nil)

	_, err := svc.CreateEvent(models.CreateEventRequest{
		Title:    "",
		Date:     time.Now(),
		Location: "Somewhere",
		Category: "music",
		Capacity: 10,
	}, "org-1")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.CreateEvent(models.CreateEventRequest{
		Title:    "No Capacity",
		Date:     time.Now(),
		Location: "Somewhere",
		Category: "music",
		Capacity: 0,
	}, "org-1")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestCheckAvailability(t *testing.T) {
	db := newMockEventDB()
	db.events["ev-1"] = &models.Event{ID: "ev-1", IsActive: true, AvailableTickets: 5}
	db.events["ev-2"] = &models.Event{ID: "ev-2", IsActive: false, AvailableTickets: 5}
	svc := newTestService(db, nil)

	ok, err := svc.CheckAvailability("ev-1", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckAvailability("ev-1", 6)
	require.NoError(t, err)
	assert.False(t, ok)

	// Inactive events are never available.
	ok, err = svc.CheckAvailability("ev-2", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCalculatePrice(t *testing.T) {
	now := time.Now()
	db := newMockEventDB()
	db.events["ev-1"] = &models.Event{ID: "ev-1", IsActive: true, BasePrice: 100}

	promos := &mockPromoLookup{promos: map[string]*models.Promotion{
		"SUMMER20": {
			Code:               "SUMMER20",
			EventID:            "ev-1",
			DiscountPercentage: 20,
			IsActive:           true,
			StartDate:          now.AddDate(0, 0, -1),
			EndDate:            now.AddDate(0, 0, 1),
		},
		"EXPIRED": {
			Code:               "EXPIRED",
			EventID:            "ev-1",
			DiscountPercentage: 50,
			IsActive:           true,
			StartDate:          now.AddDate(0, 0, -10),
			EndDate:            now.AddDate(0, 0, -5),
		},
		"DISABLED": {
			Code:               "DISABLED",
			EventID:            "ev-1",
			DiscountPercentage: 50,
			IsActive:           false,
			StartDate:          now.AddDate(0, 0, -1),
			EndDate:            now.AddDate(0, 0, 1),
		},
		"OTHER": {
			Code:               "OTHER",
			EventID:            "ev-2",
			DiscountPercentage: 50,
			IsActive:           true,
			StartDate:          now.AddDate(0, 0, -1),
			EndDate:            now.AddDate(0, 0, 1),
		},
	}}
	svc := newTestService(db, promos)

	price, err := svc.CalculatePrice("ev-1", "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)

	price, err = svc.CalculatePrice("ev-1", "SUMMER20")
	require.NoError(t, err)
	assert.Equal(t, 80.0, price)

	// Expired, disabled or wrong-event codes fall back to base price.
	for _, code := range []string{"EXPIRED", "DISABLED", "OTHER", "UNKNOWN"} {
		price, err = svc.CalculatePrice("ev-1", code)
		require.NoError(t, err)
		assert.Equal(t, 100.0, price, "code %s should not discount", code)
	}
}

func TestReserveTicketsRejectsNonPositiveCount(t *testing.T) {
	svc := newTestService(newMockEventDB(), nil)

	_, err := svc.ReserveTickets("ev-1", 0)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.ReserveTickets("ev-1", -3)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

package event

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidEvent = errors.New("invalid event data")

type DBLayer interface {
	GetEventByID(id string) (*models.Event, error)
	GetAllEvents() ([]models.Event, error)
	GetAllEventsIncludingInactive() ([]models.Event, error)
	GetEventsByOrganizerID(organizerID string) ([]models.Event, error)
	SearchEvents(filter models.EventSearchFilter) ([]models.Event, error)
	GetUpcomingEvents() ([]models.Event, error)
	CreateEvent(event models.Event) error
	UpdateEvent(event models.Event) error
	DeleteEvent(id string) error
	ReserveTickets(eventID string, count int) (bool, error)
	ReleaseTickets(eventID string, count int) error
}

// PromotionLookup is the slice of the promotion store the price
// calculation needs: the code must exist for the given event.
type PromotionLookup interface {
	GetPromotionForEvent(code, eventID string) (*models.Promotion, error)
}

type Service struct {
	DB         DBLayer
	Promotions PromotionLookup
	logger     *logger.Logger
	validate   *validator.Validate
}

func NewService(db DBLayer, promotions PromotionLookup, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Promotions: promotions,
		logger:     log,
		validate:   validator.New(),
	}
}

func (s *Service) GetEvent(id string) (*models.Event, error) {
	return s.DB.GetEventByID(id)
}

func (s *Service) GetAllEvents() ([]models.Event, error) {
	return s.DB.GetAllEvents()
}

func (s *Service) GetAllEventsIncludingInactive() ([]models.Event, error) {
	return s.DB.GetAllEventsIncludingInactive()
}

func (s *Service) GetEventsByOrganizer(organizerID string) ([]models.Event, error) {
	return s.DB.GetEventsByOrganizerID(organizerID)
}

func (s *Service) SearchEvents(filter models.EventSearchFilter) ([]models.Event, error) {
	return s.DB.SearchEvents(filter)
}

func (s *Service) GetUpcomingEvents() ([]models.Event, error) {
	return s.DB.GetUpcomingEvents()
}

func (s *Service) CreateEvent(req models.CreateEventRequest, organizerID string) (*models.Event, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	event := models.Event{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		Location:         req.Location,
		Category:         req.Category,
		Capacity:         req.Capacity,
		AvailableTickets: req.Capacity,
		BasePrice:        req.BasePrice,
		ImageURL:         req.ImageURL,
		IsActive:         true,
		OrganizerID:      organizerID,
		CreatedAt:        time.Now(),
	}

	if err := s.DB.CreateEvent(event); err != nil {
		s.logger.Error("EVENT", fmt.Sprintf("Failed to create event %s: %v", event.ID, err))
		return nil, err
	}

	s.logger.Info("EVENT", fmt.Sprintf("Created event %s (%s) with capacity %d", event.ID, event.Title, event.Capacity))
	return &event, nil
}

func (s *Service) UpdateEvent(event models.Event) error {
	if event.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
	}
	return s.DB.UpdateEvent(event)
}

func (s *Service) DeleteEvent(id string) error {
	s.logger.Info("EVENT", fmt.Sprintf("Soft-deleting event %s", id))
	return s.DB.DeleteEvent(id)
}

// CheckAvailability reports whether the event is active and has at least
// requested tickets left.
func (s *Service) CheckAvailability(eventID string, requested int) (bool, error) {
	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return false, err
	}
	return event.IsActive && event.AvailableTickets >= requested, nil
}

// CalculatePrice returns the per-ticket price, applying the promotion
// code when it exists for this event, is active and its window covers
// now. An unknown or invalid code silently falls back to the base price.
func (s *Service) CalculatePrice(eventID, promotionCode string) (float64, error) {
	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return 0, err
	}

	price := event.BasePrice
	if promotionCode == "" {
		return price, nil
	}

	promo, err := s.Promotions.GetPromotionForEvent(promotionCode, eventID)
	if err != nil || promo == nil {
		return price, nil
	}
	if !promo.ValidAt(time.Now()) {
		return price, nil
	}

	discount := price * (promo.DiscountPercentage / 100)
	s.logger.Info("EVENT", fmt.Sprintf("Promotion %s applied to event %s: %.2f -> %.2f",
		promo.Code, eventID, price, price-discount))
	return price - discount, nil
}

// ReserveTickets atomically decrements availability; false means sold
// out (or inactive/missing event).
func (s *Service) ReserveTickets(eventID string, count int) (bool, error) {
	if count <= 0 {
		return false, fmt.Errorf("%w: reservation count must be positive", ErrInvalidEvent)
	}
	return s.DB.ReserveTickets(eventID, count)
}

// ReleaseTickets returns tickets to the pool after a cancel or refund.
func (s *Service) ReleaseTickets(eventID string, count int) error {
	return s.DB.ReleaseTickets(eventID, count)
}

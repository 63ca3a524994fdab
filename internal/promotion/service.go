package promotion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidPromotion = errors.New("invalid promotion data")
	ErrInvalidWindow    = errors.New("promotion end date must be after start date")
)

type DBLayer interface {
	CreatePromotion(promo models.Promotion) error
	GetPromotionByID(id string) (*models.Promotion, error)
	GetPromotionForEvent(code, eventID string) (*models.Promotion, error)
	GetPromotionsByEventID(eventID string) ([]models.Promotion, error)
	UpdatePromotion(promo models.Promotion) error
	DeletePromotion(id string) error
}

type Service struct {
	DB       DBLayer
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		logger:   log,
		validate: validator.New(),
	}
}

// CreatePromotion stores the code upper cased so redemption is
// case-insensitive.
func (s *Service) CreatePromotion(req models.CreatePromotionRequest) (*models.Promotion, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPromotion, err)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidWindow
	}

	promo := models.Promotion{
		ID:                 uuid.NewString(),
		Code:               strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		IsActive:           true,
		EventID:            req.EventID,
		CreatedAt:          time.Now(),
	}

	if err := s.DB.CreatePromotion(promo); err != nil {
		return nil, err
	}

	s.logger.Info("PROMOTION", fmt.Sprintf("Created promotion %s (%.0f%%) for event %s", promo.Code, promo.DiscountPercentage, promo.EventID))
	return &promo, nil
}

func (s *Service) GetPromotion(id string) (*models.Promotion, error) {
	return s.DB.GetPromotionByID(id)
}

func (s *Service) GetPromotionsByEvent(eventID string) ([]models.Promotion, error) {
	return s.DB.GetPromotionsByEventID(eventID)
}

// GetPromotionForEvent is the lookup the price calculation uses.
func (s *Service) GetPromotionForEvent(code, eventID string) (*models.Promotion, error) {
	return s.DB.GetPromotionForEvent(code, eventID)
}

// ValidateCode reports whether the code can be redeemed for the event
// right now, and the discount it grants.
func (s *Service) ValidateCode(code, eventID string) (bool, float64, error) {
	promo, err := s.DB.GetPromotionForEvent(code, eventID)
	if err != nil {
		return false, 0, err
	}
	if !promo.ValidAt(time.Now()) {
		return false, 0, nil
	}
	return true, promo.DiscountPercentage, nil
}

// CalculateDiscount applies the promotion to a base price; invalid or
// out-of-window codes leave the price unchanged.
func (s *Service) CalculateDiscount(code, eventID string, basePrice float64) (float64, error) {
	valid, pct, err := s.ValidateCode(code, eventID)
	if err != nil || !valid {
		return basePrice, err
	}
	return basePrice - basePrice*(pct/100), nil
}

func (s *Service) UpdatePromotion(promo models.Promotion) error {
	if promo.DiscountPercentage < 0 || promo.DiscountPercentage > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidPromotion)
	}
	if !promo.EndDate.After(promo.StartDate) {
		return ErrInvalidWindow
	}
	return s.DB.UpdatePromotion(promo)
}

func (s *Service) DeletePromotion(id string) error {
	s.logger.Info("PROMOTION", fmt.Sprintf("Soft-deleting promotion %s", id))
	return s.DB.DeletePromotion(id)
}

package user

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidUpdate = errors.New("invalid user update")

type DBLayer interface {
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUser(user models.User) error
}

type Service struct {
	DB       DBLayer
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, logger: log, validate: validator.New()}
}

func (s *Service) GetUser(id string) (*models.User, error) {
	return s.DB.GetUserByID(id)
}

func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	return s.DB.GetUserByEmail(email)
}

func (s *Service) GetAllUsers() ([]models.User, error) {
	return s.DB.GetAllUsers()
}

// UpdateUser applies the administrative fields an admin may change.
// Locking out sets lockout far in the future; unlocking clears it.
func (s *Service) UpdateUser(id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}

	user, err := s.DB.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		user.Role = req.Role
	}
	if req.LoyaltyPoints != nil {
		user.LoyaltyPoints = *req.LoyaltyPoints
	}
	if req.LockedOut != nil {
		if *req.LockedOut {
			user.LockoutEnd = time.Now().AddDate(100, 0, 0)
		} else {
			user.LockoutEnd = time.Time{}
		}
	}

	if err := s.DB.UpdateUser(*user); err != nil {
		return nil, err
	}

	s.logger.Info("USER", fmt.Sprintf("Updated user %s (role=%s, points=%d, locked=%t)",
		user.ID, user.Role, user.LoyaltyPoints, user.IsLockedOut()))
	return user, nil
}

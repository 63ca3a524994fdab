package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"event-ticketing/internal/models"

	"github.com/uptrace/bun"
)

var ErrUserNotFound = errors.New("user not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetAllUsers() ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser writes the administrative fields only; profile data is
// owned by the identity system.
func (d *DB) UpdateUser(user models.User) error {
	user.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&user).
		Column("role", "loyalty_points", "lockout_end", "updated_at").
		Where("id = ?", user.ID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

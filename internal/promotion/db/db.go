package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"event-ticketing/internal/models"

	"github.com/uptrace/bun"
)

var ErrPromotionNotFound = errors.New("promotion not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreatePromotion(promo models.Promotion) error {
	_, err := d.Bun.NewInsert().Model(&promo).Exec(context.Background())
	return err
}

func (d *DB) GetPromotionByID(id string) (*models.Promotion, error) {
	var promo models.Promotion
	err := d.Bun.NewSelect().
		Model(&promo).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return &promo, nil
}

func (d *DB) GetPromotionForEvent(code, eventID string) (*models.Promotion, error) {
	var promo models.Promotion
	err := d.Bun.NewSelect().
		Model(&promo).
		Where("code = ?", strings.ToUpper(code)).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return &promo, nil
}

func (d *DB) GetPromotionsByEventID(eventID string) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := d.Bun.NewSelect().
		Model(&promos).
		Where("event_id = ?", eventID).
		Order("start_date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return promos, nil
}

func (d *DB) UpdatePromotion(promo models.Promotion) error {
	promo.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&promo).
		Column("description", "discount_percentage", "start_date", "end_date", "is_active", "updated_at").
		Where("id = ?", promo.ID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

func (d *DB) DeletePromotion(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Promotion)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

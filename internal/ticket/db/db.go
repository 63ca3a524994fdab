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
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSoldOut        = errors.New("no tickets available")
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetTicketByID(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketByQrCode(qrCode string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("qr_code = ?", qrCode).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByCustomerID(customerID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("customer_id = ?", customerID).
		Order("purchase_date DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByEventID(eventID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("purchase_date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicketReservingInventory inserts the ticket and decrements the
// event's availability in one transaction. The decrement is a
// conditional UPDATE; when it touches no row the event is sold out (or
// inactive) and the whole transaction rolls back with ErrSoldOut, so a
// ticket can never exist without a matching inventory slot.
func (d *DB) CreateTicketReservingInventory(ticket models.Ticket) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("available_tickets = available_tickets - 1").
			Set("updated_at = ?", time.Now()).
			Where("id = ?", ticket.EventID).
			Where("is_active = ?", true).
			Where("available_tickets >= 1").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSoldOut
		}

		_, err = tx.NewInsert().Model(&ticket).Exec(ctx)
		return err
	})
}

func (d *DB) UpdateTicketStatus(id string, status models.TicketStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// CountSoldByEventID counts tickets that still occupy inventory.
func (d *DB) CountSoldByEventID(eventID string) (int, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("status IN (?)", bun.In([]models.TicketStatus{models.TicketActive, models.TicketUsed})).
		Count(context.Background())
	if err != nil {
		return 0, err
	}
	return count, nil
}

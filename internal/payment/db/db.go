package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"event-ticketing/internal/models"

	"github.com/uptrace/bun"
)

var ErrPaymentNotFound = errors.New("payment not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreatePayment(payment models.Payment) error {
	_, err := d.Bun.NewInsert().Model(&payment).Exec(context.Background())
	return err
}

func (d *DB) GetPaymentByID(id string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (d *DB) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where("transaction_id = ?", transactionID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (d *DB) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where("stripe_payment_intent_id = ?", intentID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// GetPaymentsByTicketID returns newest first, so the original purchase
// payment is the last element and refund entries precede it.
func (d *DB) GetPaymentsByTicketID(ticketID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Where("ticket_id = ?", ticketID).
		Order("payment_date DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DB) GetPaymentsByCustomerID(customerID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Where("customer_id = ?", customerID).
		Order("payment_date DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DB) GetAllPayments() ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Order("payment_date DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DB) UpdatePaymentStatus(id string, status models.PaymentStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// AttachPaymentIntent stores the gateway's payment intent id once the
// checkout session resolves, so later webhook events can find the row.
func (d *DB) AttachPaymentIntent(id, intentID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("stripe_payment_intent_id = ?", intentID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// TotalRevenue sums completed payments. Refund entries carry negative
// amounts with completed status, so they net out without special
// casing.
func (d *DB) TotalRevenue() (float64, error) {
	var total sql.NullFloat64
	err := d.Bun.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentCompleted).
		Scan(context.Background(), &total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

// RevenueGroupedByEvent returns completed payment totals per event,
// newest revenue first. Refund entries net out inside the sums.
func (d *DB) RevenueGroupedByEvent() ([]models.EventRevenue, error) {
	var rows []models.EventRevenue
	err := d.Bun.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("e.id AS event_id").
		ColumnExpr("e.title AS title").
		ColumnExpr("COUNT(CASE WHEN payment.amount > 0 THEN 1 END) AS tickets_sold").
		ColumnExpr("COALESCE(SUM(payment.amount), 0) AS revenue").
		Join("JOIN tickets AS t ON t.id = payment.ticket_id").
		Join("JOIN events AS e ON e.id = t.event_id").
		Where("payment.status = ?", models.PaymentCompleted).
		GroupExpr("e.id, e.title").
		OrderExpr("revenue DESC").
		Scan(context.Background(), &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RevenueByOrganizer sums completed payments across every event the
// organizer owns, joining through tickets.
func (d *DB) RevenueByOrganizer(organizerID string) (float64, error) {
	var total sql.NullFloat64
	err := d.Bun.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("COALESCE(SUM(payment.amount), 0)").
		Join("JOIN tickets AS t ON t.id = payment.ticket_id").
		Join("JOIN events AS e ON e.id = t.event_id").
		Where("payment.status = ?", models.PaymentCompleted).
		Where("e.organizer_id = ?", organizerID).
		Scan(context.Background(), &total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

package payment

import (
	"encoding/json"
	"errors"
	"testing"

	"event-ticketing/internal/config"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	paymentdb "event-ticketing/internal/payment/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPaymentDB struct {
	payments     []*models.Payment
	shouldFailOn string
}

func (m *mockPaymentDB) find(id string) *models.Payment {
	for _, p := range m.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *mockPaymentDB) CreatePayment(payment models.Payment) error {
	if m.shouldFailOn == "CreatePayment" {
		return errors.New("db failure")
	}
	m.payments = append(m.payments, &payment)
	return nil
}

func (m *mockPaymentDB) GetPaymentByID(id string) (*models.Payment, error) {
	if p := m.find(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, errors.New("payment not found")
}

func (m *mockPaymentDB) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentdb.ErrPaymentNotFound
}

func (m *mockPaymentDB) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.StripePaymentIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("payment not found")
}

// Newest first, matching the real query ordering.
func (m *mockPaymentDB) GetPaymentsByTicketID(ticketID string) ([]models.Payment, error) {
	var out []models.Payment
	for i := len(m.payments) - 1; i >= 0; i-- {
		if m.payments[i].TicketID == ticketID {
			out = append(out, *m.payments[i])
		}
	}
	return out, nil
}

func (m *mockPaymentDB) GetPaymentsByCustomerID(customerID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentDB) GetAllPayments() ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPaymentDB) UpdatePaymentStatus(id string, status models.PaymentStatus) error {
	p := m.find(id)
	if p == nil {
		return errors.New("payment not found")
	}
	p.Status = status
	return nil
}

func (m *mockPaymentDB) AttachPaymentIntent(id, intentID string) error {
	p := m.find(id)
	if p == nil {
		return errors.New("payment not found")
	}
	p.StripePaymentIntentID = intentID
	return nil
}

func (m *mockPaymentDB) TotalRevenue() (float64, error) {
	var total float64
	for _, p := range m.payments {
		if p.Status == models.PaymentCompleted {
			total += p.Amount
		}
	}
	return total, nil
}

func (m *mockPaymentDB) RevenueGroupedByEvent() ([]models.EventRevenue, error) {
	return nil, nil
}

func (m *mockPaymentDB) RevenueByOrganizer(organizerID string) (float64, error) {
	return 0, nil
}

type mockRefundProvider struct {
	refunds    []string
	shouldFail bool
}

func (m *mockRefundProvider) CreateRefund(paymentIntentID string, amount float64) (string, error) {
	if m.shouldFail {
		return "", errors.New("gateway unavailable")
	}
	m.refunds = append(m.refunds, paymentIntentID)
	return "re_test_123", nil
}

type capturedMessage struct {
	topic string
	key   string
	event models.PaymentEvent
}

type mockPublisher struct {
	messages []capturedMessage
}

func (m *mockPublisher) Publish(topic, key string, value []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	m.messages = append(m.messages, capturedMessage{topic: topic, key: key, event: event})
	return nil
}

func testTopics() config.TopicConfig {
	return config.TopicConfig{
		PaymentCompleted: "payment-completed",
		PaymentFailed:    "payment-failed",
		PaymentRefunded:  "payment-refunded",
	}
}

func newTestService(db *mockPaymentDB, refunds RefundProvider) (*Service, *mockPublisher) {
	pub := &mockPublisher{}
	return NewService(db, refunds, pub, testTopics(), logger.NewLogger()), pub
}

func TestCreatePendingPayment(t *testing.T) {
	db := &mockPaymentDB{}
	svc, _ := newTestService(db, nil)

	ticket := models.Ticket{ID: "tk-1", Price: 42.5, CustomerID: "cust-1"}
	payment, err := svc.CreatePendingPayment(ticket, models.MethodStripe)
	require.NoError(t, err)

	assert.NotEmpty(t, payment.ID)
	assert.NotEmpty(t, payment.TransactionID)
	assert.Equal(t, 42.5, payment.Amount)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, "tk-1", payment.TicketID)
	assert.Equal(t, "cust-1", payment.CustomerID)
	assert.Len(t, db.payments, 1)
}

func TestMarkCompleted(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{ID: "pay-1", Amount: 50, Status: models.PaymentPending, TicketID: "tk-1"})
	svc, pub := newTestService(db, nil)

	require.NoError(t, svc.MarkCompleted("pay-1"))
	assert.Equal(t, models.PaymentCompleted, db.payments[0].Status)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "payment-completed", pub.messages[0].topic)
	assert.Equal(t, "payment.completed", pub.messages[0].event.Type)

	// A second delivery is a no-op: no second publish.
	require.NoError(t, svc.MarkCompleted("pay-1"))
	assert.Len(t, pub.messages, 1)
}

func TestMarkCompletedNeverPromotesTerminalStates(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments,
		&models.Payment{ID: "pay-1", Status: models.PaymentFailed},
		&models.Payment{ID: "pay-2", Status: models.PaymentRefunded},
	)
	svc, pub := newTestService(db, nil)

	// A late checkout settlement after a failure event must not revive
	// the payment.
	require.NoError(t, svc.MarkCompleted("pay-1"))
	assert.Equal(t, models.PaymentFailed, db.payments[0].Status)

	require.NoError(t, svc.MarkCompleted("pay-2"))
	assert.Equal(t, models.PaymentRefunded, db.payments[1].Status)

	assert.Empty(t, pub.messages)
}

func TestValidatePayment(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments,
		&models.Payment{ID: "pay-1", TransactionID: "TXN-COMPLETED", Status: models.PaymentCompleted},
		&models.Payment{ID: "pay-2", TransactionID: "TXN-PENDING", Status: models.PaymentPending},
	)
	svc, _ := newTestService(db, nil)

	valid, err := svc.ValidatePayment("TXN-COMPLETED")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svc.ValidatePayment("TXN-PENDING")
	require.NoError(t, err)
	assert.False(t, valid)

	// An unknown transaction id is invalid, not an error.
	valid, err = svc.ValidatePayment("TXN-MISSING")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMarkFailedOnlyFromPending(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments,
		&models.Payment{ID: "pay-1", Status: models.PaymentPending},
		&models.Payment{ID: "pay-2", Status: models.PaymentCompleted},
	)
	svc, pub := newTestService(db, nil)

	require.NoError(t, svc.MarkFailed("pay-1"))
	assert.Equal(t, models.PaymentFailed, db.payments[0].Status)
	assert.Len(t, pub.messages, 1)

	// Completed payments are never demoted by a late failure event.
	require.NoError(t, svc.MarkFailed("pay-2"))
	assert.Equal(t, models.PaymentCompleted, db.payments[1].Status)
	assert.Len(t, pub.messages, 1)
}

func TestMarkDisputedForcesFailure(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{ID: "pay-1", Status: models.PaymentCompleted})
	svc, pub := newTestService(db, nil)

	require.NoError(t, svc.MarkDisputed("pay-1"))
	assert.Equal(t, models.PaymentFailed, db.payments[0].Status)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "payment.disputed", pub.messages[0].event.Type)
}

func TestProcessRefund(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{
		ID:                    "pay-1",
		Amount:                80,
		Status:                models.PaymentCompleted,
		TicketID:              "tk-1",
		CustomerID:            "cust-1",
		StripePaymentIntentID: "pi_123",
	})
	refunds := &mockRefundProvider{}
	svc, pub := newTestService(db, refunds)

	refund, err := svc.ProcessRefund("tk-1")
	require.NoError(t, err)

	assert.Equal(t, -80.0, refund.Amount)
	assert.Equal(t, models.PaymentCompleted, refund.Status)
	assert.Equal(t, "tk-1", refund.TicketID)
	assert.Equal(t, []string{"pi_123"}, refunds.refunds)

	// Original flipped to refunded, negated row appended, revenue nets out.
	assert.Equal(t, models.PaymentRefunded, db.payments[0].Status)
	total, err := db.TotalRevenue()
	require.NoError(t, err)
	assert.Equal(t, -80.0, total)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "payment-refunded", pub.messages[0].topic)

	// A second refund finds the refunded row first.
	_, err = svc.ProcessRefund("tk-1")
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
}

func TestProcessRefundNoCompletedPayment(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{ID: "pay-1", Amount: 80, Status: models.PaymentPending, TicketID: "tk-1"})
	svc, _ := newTestService(db, nil)

	_, err := svc.ProcessRefund("tk-1")
	assert.ErrorIs(t, err, ErrNoCompletedPayment)
}

func TestProcessRefundSkipsGatewayWithoutIntent(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{ID: "pay-1", Amount: 30, Status: models.PaymentCompleted, TicketID: "tk-1"})
	refunds := &mockRefundProvider{shouldFail: true}
	svc, _ := newTestService(db, refunds)

	// No intent attached, so the failing gateway is never called.
	refund, err := svc.ProcessRefund("tk-1")
	require.NoError(t, err)
	assert.Equal(t, -30.0, refund.Amount)
	assert.Empty(t, refunds.refunds)
}

func TestProcessRefundGatewayFailureAborts(t *testing.T) {
	db := &mockPaymentDB{}
	db.payments = append(db.payments, &models.Payment{
		ID: "pay-1", Amount: 30, Status: models.PaymentCompleted,
		TicketID: "tk-1", StripePaymentIntentID: "pi_123",
	})
	refunds := &mockRefundProvider{shouldFail: true}
	svc, _ := newTestService(db, refunds)

	_, err := svc.ProcessRefund("tk-1")
	require.Error(t, err)
	// Ledger untouched on gateway failure.
	assert.Len(t, db.payments, 1)
	assert.Equal(t, models.PaymentCompleted, db.payments[0].Status)
}

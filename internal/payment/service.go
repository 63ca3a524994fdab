package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/config"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	paymentdb "event-ticketing/internal/payment/db"
	"event-ticketing/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrNoCompletedPayment = errors.New("no completed payment for ticket")
	ErrAlreadyRefunded    = errors.New("payment already refunded")
)

type DBLayer interface {
	CreatePayment(payment models.Payment) error
	GetPaymentByID(id string) (*models.Payment, error)
	GetPaymentByTransactionID(transactionID string) (*models.Payment, error)
	GetPaymentByIntentID(intentID string) (*models.Payment, error)
	GetPaymentsByTicketID(ticketID string) ([]models.Payment, error)
	GetPaymentsByCustomerID(customerID string) ([]models.Payment, error)
	GetAllPayments() ([]models.Payment, error)
	UpdatePaymentStatus(id string, status models.PaymentStatus) error
	AttachPaymentIntent(id, intentID string) error
	TotalRevenue() (float64, error)
	RevenueGroupedByEvent() ([]models.EventRevenue, error)
	RevenueByOrganizer(organizerID string) (float64, error)
}

// RefundProvider pushes the refund to the payment gateway. A nil
// provider means gateway refunds are disabled and only the ledger is
// written.
type RefundProvider interface {
	CreateRefund(paymentIntentID string, amount float64) (string, error)
}

// Publisher emits payment lifecycle events for downstream consumers.
type Publisher interface {
	Publish(topic, key string, value []byte) error
}

type Service struct {
	DB        DBLayer
	Refunds   RefundProvider
	Publisher Publisher
	Topics    config.TopicConfig
	logger    *logger.Logger
}

func NewService(db DBLayer, refunds RefundProvider, publisher Publisher, topics config.TopicConfig, log *logger.Logger) *Service {
	return &Service{
		DB:        db,
		Refunds:   refunds,
		Publisher: publisher,
		Topics:    topics,
		logger:    log,
	}
}

func (s *Service) GetPayment(id string) (*models.Payment, error) {
	return s.DB.GetPaymentByID(id)
}

func (s *Service) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	return s.DB.GetPaymentByTransactionID(transactionID)
}

func (s *Service) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	return s.DB.GetPaymentByIntentID(intentID)
}

// ValidatePayment reports whether the transaction id belongs to a
// completed payment. Unknown ids are simply invalid, not an error.
func (s *Service) ValidatePayment(transactionID string) (bool, error) {
	payment, err := s.DB.GetPaymentByTransactionID(transactionID)
	if err != nil {
		if errors.Is(err, paymentdb.ErrPaymentNotFound) {
			return false, nil
		}
		return false, err
	}
	return payment.Status == models.PaymentCompleted, nil
}

func (s *Service) GetPaymentsByCustomer(customerID string) ([]models.Payment, error) {
	return s.DB.GetPaymentsByCustomerID(customerID)
}

func (s *Service) GetAllPayments() ([]models.Payment, error) {
	return s.DB.GetAllPayments()
}

// CreatePendingPayment records money owed for a freshly issued ticket.
// The payment completes later, when the gateway confirms.
func (s *Service) CreatePendingPayment(ticket models.Ticket, method models.PaymentMethod) (*models.Payment, error) {
	now := time.Now()
	payment := models.Payment{
		ID:            uuid.NewString(),
		Amount:        ticket.Price,
		PaymentDate:   now,
		Status:        models.PaymentPending,
		TransactionID: utils.GenerateTransactionID(),
		PaymentMethod: method,
		TicketID:      ticket.ID,
		CustomerID:    ticket.CustomerID,
		CreatedAt:     now,
	}
	if err := s.DB.CreatePayment(payment); err != nil {
		return nil, err
	}
	s.logger.LogPayment("create", payment.ID, fmt.Sprintf("Pending payment %.2f for ticket %s", payment.Amount, ticket.ID))
	return &payment, nil
}

// MarkCompleted transitions a pending payment to completed and
// publishes the completion event. Already-completed payments are left
// alone so webhook re-deliveries stay harmless; failed and refunded
// payments are never promoted back, whatever order gateway events land
// in.
func (s *Service) MarkCompleted(paymentID string) error {
	payment, err := s.DB.GetPaymentByID(paymentID)
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentCompleted {
		return nil
	}
	if payment.Status != models.PaymentPending {
		s.logger.LogPayment("complete", paymentID, fmt.Sprintf("Payment is %s, leaving untouched", payment.Status))
		return nil
	}
	if err := s.DB.UpdatePaymentStatus(paymentID, models.PaymentCompleted); err != nil {
		return err
	}
	s.logger.LogPayment("complete", paymentID, fmt.Sprintf("Payment completed (%.2f)", payment.Amount))
	s.publishEvent(s.Topics.PaymentCompleted, "payment.completed", payment, models.PaymentCompleted)
	return nil
}

// MarkFailed transitions a pending payment to failed. Completed
// payments are never demoted here; disputes go through MarkDisputed.
func (s *Service) MarkFailed(paymentID string) error {
	payment, err := s.DB.GetPaymentByID(paymentID)
	if err != nil {
		return err
	}
	if payment.Status != models.PaymentPending {
		return nil
	}
	if err := s.DB.UpdatePaymentStatus(paymentID, models.PaymentFailed); err != nil {
		return err
	}
	s.logger.LogPayment("fail", paymentID, "Payment marked failed")
	s.publishEvent(s.Topics.PaymentFailed, "payment.failed", payment, models.PaymentFailed)
	return nil
}

// MarkDisputed forces a payment to failed regardless of its current
// status. Chargebacks arrive after completion.
func (s *Service) MarkDisputed(paymentID string) error {
	payment, err := s.DB.GetPaymentByID(paymentID)
	if err != nil {
		return err
	}
	if err := s.DB.UpdatePaymentStatus(paymentID, models.PaymentFailed); err != nil {
		return err
	}
	s.logger.LogPayment("dispute", paymentID, "Chargeback received, payment marked failed")
	s.publishEvent(s.Topics.PaymentFailed, "payment.disputed", payment, models.PaymentFailed)
	return nil
}

func (s *Service) AttachPaymentIntent(paymentID, intentID string) error {
	return s.DB.AttachPaymentIntent(paymentID, intentID)
}

// ProcessRefund refunds the completed payment behind a ticket. The
// ledger is append-only: the original row flips to refunded and a new
// completed row with the negated amount is inserted, so revenue sums
// net out. When the original was paid through the gateway the refund
// is pushed there too.
func (s *Service) ProcessRefund(ticketID string) (*models.Payment, error) {
	payments, err := s.DB.GetPaymentsByTicketID(ticketID)
	if err != nil {
		return nil, err
	}

	var original *models.Payment
	for i := range payments {
		if payments[i].Status == models.PaymentCompleted && payments[i].Amount > 0 {
			original = &payments[i]
			break
		}
		if payments[i].Status == models.PaymentRefunded {
			return nil, ErrAlreadyRefunded
		}
	}
	if original == nil {
		return nil, ErrNoCompletedPayment
	}

	if s.Refunds != nil && original.StripePaymentIntentID != "" {
		refundID, err := s.Refunds.CreateRefund(original.StripePaymentIntentID, original.Amount)
		if err != nil {
			return nil, fmt.Errorf("gateway refund failed: %w", err)
		}
		s.logger.LogPayment("refund", original.ID, fmt.Sprintf("Gateway refund %s issued", refundID))
	}

	now := time.Now()
	refund := models.Payment{
		ID:            uuid.NewString(),
		Amount:        -original.Amount,
		PaymentDate:   now,
		Status:        models.PaymentCompleted,
		TransactionID: utils.GenerateTransactionID(),
		PaymentMethod: original.PaymentMethod,
		TicketID:      original.TicketID,
		CustomerID:    original.CustomerID,
		CreatedAt:     now,
	}
	if err := s.DB.CreatePayment(refund); err != nil {
		return nil, err
	}
	if err := s.DB.UpdatePaymentStatus(original.ID, models.PaymentRefunded); err != nil {
		return nil, err
	}

	s.logger.LogPayment("refund", original.ID, fmt.Sprintf("Refunded %.2f for ticket %s", original.Amount, ticketID))
	s.publishEvent(s.Topics.PaymentRefunded, "payment.refunded", &refund, models.PaymentCompleted)
	return &refund, nil
}

func (s *Service) TotalRevenue() (float64, error) {
	return s.DB.TotalRevenue()
}

func (s *Service) RevenueByEvent() ([]models.EventRevenue, error) {
	return s.DB.RevenueGroupedByEvent()
}

func (s *Service) RevenueByOrganizer(organizerID string) (float64, error) {
	return s.DB.RevenueByOrganizer(organizerID)
}

func (s *Service) publishEvent(topic, eventType string, payment *models.Payment, status models.PaymentStatus) {
	if s.Publisher == nil || topic == "" {
		return
	}
	event := models.PaymentEvent{
		Type:      eventType,
		PaymentID: payment.ID,
		TicketID:  payment.TicketID,
		Amount:    payment.Amount,
		Status:    string(status),
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to marshal payment event %s: %v", payment.ID, err))
		return
	}
	if err := s.Publisher.Publish(topic, payment.ID, value); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for payment %s: %v", eventType, payment.ID, err))
	}
}

package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	ticketdb "event-ticketing/internal/ticket/db"
	"event-ticketing/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidPurchase  = errors.New("invalid purchase request")
	ErrTicketNotActive  = errors.New("ticket is not active")
	ErrNotTicketOwner   = errors.New("ticket belongs to another customer")
	ErrNothingPurchased = errors.New("no tickets could be purchased")
	ErrEventEnded       = errors.New("event has already taken place")
)

type DBLayer interface {
	GetTicketByID(id string) (*models.Ticket, error)
	GetTicketByQrCode(qrCode string) (*models.Ticket, error)
	GetTicketsByCustomerID(customerID string) ([]models.Ticket, error)
	GetTicketsByEventID(eventID string) ([]models.Ticket, error)
	CreateTicketReservingInventory(ticket models.Ticket) error
	UpdateTicketStatus(id string, status models.TicketStatus) error
	CountSoldByEventID(eventID string) (int, error)
}

// EventLayer is the slice of the event service a purchase needs.
type EventLayer interface {
	GetEvent(id string) (*models.Event, error)
	CalculatePrice(eventID, promotionCode string) (float64, error)
	ReleaseTickets(eventID string, count int) error
}

// PaymentLayer records money movement for issued tickets.
type PaymentLayer interface {
	CreatePendingPayment(ticket models.Ticket, method models.PaymentMethod) (*models.Payment, error)
	ProcessRefund(ticketID string) (*models.Payment, error)
}

// CheckoutProvider builds a hosted payment page for a batch of pending
// payments. Implementations may be disabled and return an empty URL.
type CheckoutProvider interface {
	CreateCheckoutSession(eventTitle string, quantity int, unitPrice float64, customerID string, paymentIDs []string) (string, error)
}

// Mailer sends the purchase notification; implementations deliver
// asynchronously and never block the purchase path.
type Mailer interface {
	SendPurchaseInitiated(customerID string, event *models.Event, result *models.PurchaseResult)
}

type Service struct {
	DB       DBLayer
	Events   EventLayer
	Payments PaymentLayer
	Checkout CheckoutProvider
	Mailer   Mailer
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(db DBLayer, events EventLayer, payments PaymentLayer, checkout CheckoutProvider, mailer Mailer, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Events:   events,
		Payments: payments,
		Checkout: checkout,
		Mailer:   mailer,
		logger:   log,
		validate: validator.New(),
	}
}

func (s *Service) GetTicket(id string) (*models.Ticket, error) {
	return s.DB.GetTicketByID(id)
}

func (s *Service) GetTicketsByCustomer(customerID string) ([]models.Ticket, error) {
	return s.DB.GetTicketsByCustomerID(customerID)
}

func (s *Service) GetTicketsByEvent(eventID string) ([]models.Ticket, error) {
	return s.DB.GetTicketsByEventID(eventID)
}

// CountSoldByEvent counts tickets still occupying inventory, active and
// used alike.
func (s *Service) CountSoldByEvent(eventID string) (int, error) {
	return s.DB.CountSoldByEventID(eventID)
}

// PurchaseTicket issues a single ticket at the given unit price. The
// insert and the inventory decrement commit together, so a sold-out
// event surfaces as ticketdb.ErrSoldOut with nothing written.
func (s *Service) PurchaseTicket(eventID, customerID string, price float64) (*models.Ticket, error) {
	now := time.Now()
	ticket := models.Ticket{
		ID:           uuid.NewString(),
		QrCode:       utils.GenerateQrCode(),
		Price:        price,
		Status:       models.TicketActive,
		PurchaseDate: now,
		EventID:      eventID,
		CustomerID:   customerID,
		CreatedAt:    now,
	}
	if err := s.DB.CreateTicketReservingInventory(ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// PurchaseTickets issues up to req.Quantity tickets, each with a
// pending payment, and returns a checkout URL covering whatever was
// issued. Availability can run out mid-loop; the result then reports a
// partial purchase instead of an error, and the caller keeps the
// tickets that were issued.
func (s *Service) PurchaseTickets(req models.PurchaseRequest, customerID string) (*models.PurchaseResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPurchase, err)
	}

	method := models.PaymentMethod(req.PaymentMethod)

	event, err := s.Events.GetEvent(req.EventID)
	if err != nil {
		return nil, err
	}

	unitPrice, err := s.Events.CalculatePrice(req.EventID, req.PromotionCode)
	if err != nil {
		return nil, err
	}

	result := &models.PurchaseResult{
		Requested: req.Quantity,
		UnitPrice: unitPrice,
	}

	for i := 0; i < req.Quantity; i++ {
		ticket, err := s.PurchaseTicket(req.EventID, customerID, unitPrice)
		if err != nil {
			if errors.Is(err, ticketdb.ErrSoldOut) {
				s.logger.Warn("TICKET", fmt.Sprintf("Event %s sold out after %d of %d tickets for customer %s",
					req.EventID, result.Purchased, req.Quantity, customerID))
				break
			}
			return nil, err
		}

		payment, err := s.Payments.CreatePendingPayment(*ticket, method)
		if err != nil {
			// Undo the ticket we just issued so inventory and money
			// records stay consistent.
			_ = s.DB.UpdateTicketStatus(ticket.ID, models.TicketCancelled)
			_ = s.Events.ReleaseTickets(req.EventID, 1)
			return nil, err
		}

		result.Tickets = append(result.Tickets, *ticket)
		result.PaymentIDs = append(result.PaymentIDs, payment.ID)
		result.Purchased++
	}

	if result.Purchased == 0 {
		return nil, ErrNothingPurchased
	}

	result.TotalAmount = unitPrice * float64(result.Purchased)

	if s.Checkout != nil {
		url, err := s.Checkout.CreateCheckoutSession(event.Title, result.Purchased, unitPrice, customerID, result.PaymentIDs)
		if err != nil {
			s.logger.Error("TICKET", fmt.Sprintf("Checkout session failed for customer %s: %v", customerID, err))
			return nil, err
		}
		result.CheckoutURL = url
	}

	if s.Mailer != nil {
		s.Mailer.SendPurchaseInitiated(customerID, event, result)
	}

	s.logger.Info("TICKET", fmt.Sprintf("Customer %s purchased %d/%d tickets for event %s (total %.2f)",
		customerID, result.Purchased, result.Requested, req.EventID, result.TotalAmount))
	return result, nil
}

// CancelTicket cancels an active ticket owned by the customer and
// returns its seat to the pool.
func (s *Service) CancelTicket(ticketID, customerID string) error {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		return err
	}
	if ticket.CustomerID != customerID {
		return ErrNotTicketOwner
	}
	if ticket.Status != models.TicketActive {
		return ErrTicketNotActive
	}

	if err := s.DB.UpdateTicketStatus(ticketID, models.TicketCancelled); err != nil {
		return err
	}
	if err := s.Events.ReleaseTickets(ticket.EventID, 1); err != nil {
		s.logger.Error("TICKET", fmt.Sprintf("Failed to release inventory for cancelled ticket %s: %v", ticketID, err))
	}

	s.logger.Info("TICKET", fmt.Sprintf("Ticket %s cancelled by customer %s", ticketID, customerID))
	return nil
}

// RefundTicket refunds an active ticket: the payment ledger gets a
// negating entry, the ticket is marked refunded and its seat released.
func (s *Service) RefundTicket(ticketID, customerID string) (*models.Payment, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		return nil, err
	}
	if customerID != "" && ticket.CustomerID != customerID {
		return nil, ErrNotTicketOwner
	}
	if ticket.Status != models.TicketActive {
		return nil, ErrTicketNotActive
	}

	refund, err := s.Payments.ProcessRefund(ticketID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.UpdateTicketStatus(ticketID, models.TicketRefunded); err != nil {
		return nil, err
	}
	if err := s.Events.ReleaseTickets(ticket.EventID, 1); err != nil {
		s.logger.Error("TICKET", fmt.Sprintf("Failed to release inventory for refunded ticket %s: %v", ticketID, err))
	}

	s.logger.Info("TICKET", fmt.Sprintf("Ticket %s refunded (%.2f)", ticketID, refund.Amount))
	return refund, nil
}

// ValidateTicket looks a ticket up by its QR payload and marks it used.
// Only active tickets for events that have not yet taken place pass; a
// second scan of the same code fails.
func (s *Service) ValidateTicket(qrCode string) (*models.Ticket, error) {
	code := strings.TrimSpace(qrCode)
	if code == "" {
		return nil, ticketdb.ErrTicketNotFound
	}

	ticket, err := s.DB.GetTicketByQrCode(code)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketActive {
		return nil, ErrTicketNotActive
	}

	event, err := s.Events.GetEvent(ticket.EventID)
	if err != nil {
		return nil, err
	}
	if !event.Date.After(time.Now()) {
		return nil, ErrEventEnded
	}

	if err := s.DB.UpdateTicketStatus(ticket.ID, models.TicketUsed); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketUsed

	s.logger.Info("TICKET", fmt.Sprintf("Ticket %s validated at entry", ticket.ID))
	return ticket, nil
}

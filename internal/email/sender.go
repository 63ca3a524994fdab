package email

import (
	"fmt"
	"io"

	"event-ticketing/internal/config"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	qrcode "github.com/skip2/go-qrcode"
	"gopkg.in/gomail.v2"
)

type UserLookup interface {
	GetUser(id string) (*models.User, error)
}

type PaymentLookup interface {
	GetPayment(id string) (*models.Payment, error)
}

type TicketLookup interface {
	GetTicket(id string) (*models.Ticket, error)
}

type EventLookup interface {
	GetEvent(id string) (*models.Event, error)
}

// Sender delivers purchase and confirmation emails over SMTP. All
// sends run in goroutines so a slow mail server never delays an API
// response; failures are logged and dropped.
type Sender struct {
	cfg      config.EmailConfig
	users    UserLookup
	payments PaymentLookup
	tickets  TicketLookup
	events   EventLookup
	logger   *logger.Logger
	enabled  bool
}

func NewSender(cfg config.EmailConfig, users UserLookup, payments PaymentLookup, tickets TicketLookup, events EventLookup, log *logger.Logger) *Sender {
	return &Sender{
		cfg:      cfg,
		users:    users,
		payments: payments,
		tickets:  tickets,
		events:   events,
		logger:   log,
		enabled:  cfg.SMTPUsername != "",
	}
}

// SendPurchaseInitiated tells the customer their tickets are held and
// payment is awaited.
func (s *Sender) SendPurchaseInitiated(customerID string, event *models.Event, result *models.PurchaseResult) {
	if !s.enabled {
		return
	}
	go func() {
		user, err := s.users.GetUser(customerID)
		if err != nil {
			s.logger.Error("EMAIL", fmt.Sprintf("Purchase email skipped, user %s not found: %v", customerID, err))
			return
		}

		body := fmt.Sprintf(
			"<h2>Your order for %s</h2>"+
				"<p>Hi %s,</p>"+
				"<p>We are holding %d ticket(s) for <b>%s</b> on %s at %s.</p>"+
				"<p>Total: <b>%.2f</b>. Complete the payment to receive your tickets.</p>",
			event.Title, user.FirstName, result.Purchased, event.Title,
			event.Date.Format("Mon, 02 Jan 2006 15:04"), event.Location, result.TotalAmount)

		m := gomail.NewMessage()
		m.SetHeader("From", m.FormatAddress(s.cfg.FromAddress, s.cfg.FromName))
		m.SetHeader("To", user.Email)
		m.SetHeader("Subject", fmt.Sprintf("Your order for %s", event.Title))
		m.SetBody("text/html", body)

		s.send(m, user.Email)
	}()
}

// SendTicketConfirmations mails one confirmation per settled payment,
// with the ticket's QR code attached as a PNG.
func (s *Sender) SendTicketConfirmations(paymentIDs []string) {
	if !s.enabled {
		return
	}
	go func() {
		for _, paymentID := range paymentIDs {
			if paymentID == "" {
				continue
			}
			if err := s.sendConfirmation(paymentID); err != nil {
				s.logger.Error("EMAIL", fmt.Sprintf("Confirmation for payment %s failed: %v", paymentID, err))
			}
		}
	}()
}

func (s *Sender) sendConfirmation(paymentID string) error {
	payment, err := s.payments.GetPayment(paymentID)
	if err != nil {
		return err
	}
	ticket, err := s.tickets.GetTicket(payment.TicketID)
	if err != nil {
		return err
	}
	event, err := s.events.GetEvent(ticket.EventID)
	if err != nil {
		return err
	}
	user, err := s.users.GetUser(ticket.CustomerID)
	if err != nil {
		return err
	}

	png, err := qrcode.Encode(ticket.QrCode, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	body := fmt.Sprintf(
		"<h2>Your ticket for %s</h2>"+
			"<p>Hi %s,</p>"+
			"<p>Payment received. Your ticket for <b>%s</b> on %s at %s is confirmed.</p>"+
			"<p>Ticket code: <b>%s</b></p>"+
			"<p>Show the attached QR code at the entrance.</p>",
		event.Title, user.FirstName, event.Title,
		event.Date.Format("Mon, 02 Jan 2006 15:04"), event.Location, ticket.QrCode)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.FromAddress, s.cfg.FromName))
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", fmt.Sprintf("Ticket confirmed: %s", event.Title))
	m.SetBody("text/html", body)
	m.Attach("ticket-qr.png", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	}))

	s.send(m, user.Email)
	return nil
}

func (s *Sender) send(m *gomail.Message, to string) {
	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUsername, s.cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		s.logger.Error("EMAIL", fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return
	}
	s.logger.Info("EMAIL", "Email sent to "+to)
}

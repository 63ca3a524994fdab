package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
)

// PaymentSource feeds the sales and revenue reports.
type PaymentSource interface {
	GetAllPayments() ([]models.Payment, error)
	TotalRevenue() (float64, error)
	RevenueByEvent() ([]models.EventRevenue, error)
}

type UserSource interface {
	GetAllUsers() ([]models.User, error)
}

type EventSource interface {
	GetAllEventsIncludingInactive() ([]models.Event, error)
}

// TicketSource supplies sold counts straight from the ticket table.
type TicketSource interface {
	CountSoldByEvent(eventID string) (int, error)
}

// Service builds the admin CSV exports and the revenue summary.
type Service struct {
	Payments PaymentSource
	Users    UserSource
	Events   EventSource
	Tickets  TicketSource
	logger   *logger.Logger
}

func NewService(payments PaymentSource, users UserSource, events EventSource, tickets TicketSource, log *logger.Logger) *Service {
	return &Service{Payments: payments, Users: users, Events: events, Tickets: tickets, logger: log}
}

// RevenueSummary returns the total and the per-event breakdown.
func (s *Service) RevenueSummary() (*models.RevenueSummary, error) {
	total, err := s.Payments.TotalRevenue()
	if err != nil {
		return nil, err
	}
	byEvent, err := s.Payments.RevenueByEvent()
	if err != nil {
		return nil, err
	}
	return &models.RevenueSummary{TotalRevenue: total, ByEvent: byEvent}, nil
}

// SalesReportCSV exports every payment ledger row.
func (s *Service) SalesReportCSV() ([]byte, error) {
	payments, err := s.Payments.GetAllPayments()
	if err != nil {
		return nil, err
	}

	records := [][]string{
		{"TransactionId", "PaymentDate", "Amount", "Status", "PaymentMethod", "TicketId", "CustomerId"},
	}
	for _, p := range payments {
		records = append(records, []string{
			p.TransactionID,
			p.PaymentDate.Format("2006-01-02 15:04:05"),
			formatAmount(p.Amount),
			string(p.Status),
			string(p.PaymentMethod),
			p.TicketID,
			p.CustomerID,
		})
	}

	s.logger.Info("REPORT", fmt.Sprintf("Sales report generated (%d rows)", len(payments)))
	return writeCSV(records)
}

// UsersReportCSV exports the user directory.
func (s *Service) UsersReportCSV() ([]byte, error) {
	users, err := s.Users.GetAllUsers()
	if err != nil {
		return nil, err
	}

	records := [][]string{
		{"Id", "Email", "FirstName", "LastName", "Role", "LoyaltyPoints", "Registered", "LockedOut"},
	}
	for _, u := range users {
		records = append(records, []string{
			u.ID,
			u.Email,
			u.FirstName,
			u.LastName,
			u.Role,
			strconv.Itoa(u.LoyaltyPoints),
			u.CreatedAt.Format("2006-01-02"),
			strconv.FormatBool(u.IsLockedOut()),
		})
	}

	s.logger.Info("REPORT", fmt.Sprintf("Users report generated (%d rows)", len(users)))
	return writeCSV(records)
}

// EventsReportCSV exports every event with its sold count. Sold comes
// from the ticket table, so cancelled and refunded tickets drop out
// even when the inventory counter was adjusted by hand.
func (s *Service) EventsReportCSV() ([]byte, error) {
	events, err := s.Events.GetAllEventsIncludingInactive()
	if err != nil {
		return nil, err
	}

	records := [][]string{
		{"Id", "Title", "Date", "Location", "Category", "Capacity", "TicketsSold", "BasePrice", "IsActive", "OrganizerId"},
	}
	for _, e := range events {
		sold, err := s.Tickets.CountSoldByEvent(e.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, []string{
			e.ID,
			e.Title,
			e.Date.Format("2006-01-02 15:04:05"),
			e.Location,
			e.Category,
			strconv.Itoa(e.Capacity),
			strconv.Itoa(sold),
			formatAmount(e.BasePrice),
			strconv.FormatBool(e.IsActive),
			e.OrganizerID,
		})
	}

	s.logger.Info("REPORT", fmt.Sprintf("Events report generated (%d rows)", len(events)))
	return writeCSV(records)
}

// RevenueReportCSV exports per-event revenue with a trailing total row.
func (s *Service) RevenueReportCSV() ([]byte, error) {
	summary, err := s.RevenueSummary()
	if err != nil {
		return nil, err
	}

	records := [][]string{
		{"EventId", "Title", "TicketsSold", "Revenue"},
	}
	for _, row := range summary.ByEvent {
		records = append(records, []string{
			row.EventID,
			row.Title,
			strconv.Itoa(row.TicketsSold),
			formatAmount(row.Revenue),
		})
	}
	records = append(records, []string{"", "TOTAL", "", formatAmount(summary.TotalRevenue)})

	s.logger.Info("REPORT", fmt.Sprintf("Revenue report generated (%d events)", len(summary.ByEvent)))
	return writeCSV(records)
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

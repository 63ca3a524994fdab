package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"event-ticketing/internal/auth"
	eventdb "event-ticketing/internal/event/db"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/ticket"
	ticketdb "event-ticketing/internal/ticket/db"
	"event-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *ticket.Service
	Logger  *logger.Logger
}

func NewHandler(service *ticket.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// PurchaseTickets issues tickets and returns the checkout URL. A 207 is
// returned when only part of the requested quantity could be issued.
func (h *Handler) PurchaseTickets(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	customerID := auth.UserID(r.Context())
	result, err := h.Service.PurchaseTickets(req, customerID)
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrInvalidPurchase):
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid purchase request", err.Error()))
		case errors.Is(err, eventdb.ErrEventNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
		case errors.Is(err, ticket.ErrNothingPurchased):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Event sold out", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("PurchaseTickets: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Purchase failed", err.Error()))
		}
		return
	}

	status := http.StatusCreated
	message := "Tickets purchased"
	if !result.AllPurchased() {
		status = http.StatusMultiStatus
		message = fmt.Sprintf("Only %d of %d tickets available", result.Purchased, result.Requested)
	}
	utils.WriteJSON(w, status, utils.SuccessResponse(message, result))
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	customerID := auth.UserID(r.Context())
	tickets, err := h.Service.GetTicketsByCustomer(customerID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list tickets", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tickets retrieved", tickets))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	t, err := h.Service.GetTicket(ticketID)
	if err != nil {
		if errors.Is(err, ticketdb.ErrTicketNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get ticket", err.Error()))
		return
	}

	caller := auth.UserID(r.Context())
	role := auth.Role(r.Context())
	if role == models.RoleCustomer && t.CustomerID != caller {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "ticket belongs to another customer"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket retrieved", t))
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	customerID := auth.UserID(r.Context())

	if err := h.Service.CancelTicket(ticketID, customerID); err != nil {
		switch {
		case errors.Is(err, ticketdb.ErrTicketNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
		case errors.Is(err, ticket.ErrNotTicketOwner):
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", err.Error()))
		case errors.Is(err, ticket.ErrTicketNotActive):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Ticket not active", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("CancelTicket %s: %v", ticketID, err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Cancel failed", err.Error()))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket cancelled", nil))
}

func (h *Handler) RefundTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	// Admins refund on behalf of anyone; customers only their own.
	customerID := auth.UserID(r.Context())
	if auth.Role(r.Context()) == models.RoleAdmin {
		customerID = ""
	}

	refund, err := h.Service.RefundTicket(ticketID, customerID)
	if err != nil {
		switch {
		case errors.Is(err, ticketdb.ErrTicketNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
		case errors.Is(err, ticket.ErrNotTicketOwner):
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", err.Error()))
		case errors.Is(err, ticket.ErrTicketNotActive):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Ticket not active", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("RefundTicket %s: %v", ticketID, err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Refund failed", err.Error()))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket refunded", refund))
}

// ValidateTicket is the entrance scan: marks an active ticket used.
func (h *Handler) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QrCode string `json:"qr_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	t, err := h.Service.ValidateTicket(req.QrCode)
	if err != nil {
		switch {
		case errors.Is(err, ticketdb.ErrTicketNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
		case errors.Is(err, ticket.ErrTicketNotActive):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Ticket not valid for entry", err.Error()))
		case errors.Is(err, ticket.ErrEventEnded):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Event already took place", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("ValidateTicket: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Validation failed", err.Error()))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket valid", t))
}

// EventTickets lists tickets sold for one event (organizer view).
func (h *Handler) EventTickets(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	tickets, err := h.Service.GetTicketsByEvent(eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list tickets", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tickets retrieved", tickets))
}

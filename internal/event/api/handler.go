package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"event-ticketing/internal/auth"
	"event-ticketing/internal/event"
	eventdb "event-ticketing/internal/event/db"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *event.Service
	Logger  *logger.Logger
}

func NewHandler(service *event.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := models.EventSearchFilter{
		Category:   r.URL.Query().Get("category"),
		Location:   r.URL.Query().Get("location"),
		SearchTerm: r.URL.Query().Get("search"),
	}
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid date filter", "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}

	events, err := h.Service.SearchEvents(filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", events))
}

func (h *Handler) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.GetUpcomingEvents()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpcomingEvents: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Upcoming events retrieved", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	ev, err := h.Service.GetEvent(eventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetEvent %s: %v", eventID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event retrieved", ev))
}

// CheckAvailability answers "can I buy N tickets right now".
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	quantity := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		if _, err := fmt.Sscanf(q, "%d", &quantity); err != nil || quantity <= 0 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid quantity", "quantity must be a positive integer"))
			return
		}
	}

	available, err := h.Service.CheckAvailability(eventID, quantity)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to check availability", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Availability checked", map[string]interface{}{
		"event_id":  eventID,
		"quantity":  quantity,
		"available": available,
	}))
}

// QuotePrice returns the per-ticket price with an optional promotion
// code applied.
func (h *Handler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	promoCode := r.URL.Query().Get("promotion_code")

	price, err := h.Service.CalculatePrice(eventID, promoCode)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to quote price", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Price quoted", map[string]interface{}{
		"event_id":       eventID,
		"promotion_code": promoCode,
		"unit_price":     price,
	}))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	organizerID := auth.UserID(r.Context())
	ev, err := h.Service.CreateEvent(req, organizerID)
	if err != nil {
		if errors.Is(err, event.ErrInvalidEvent) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid event data", err.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to create event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created", ev))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	existing, err := h.Service.GetEvent(eventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to update event", err.Error()))
		return
	}

	// Organizers may only touch their own events; admins touch any.
	caller := auth.UserID(r.Context())
	if auth.Role(r.Context()) != models.RoleAdmin && existing.OrganizerID != caller {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "event belongs to another organizer"))
		return
	}

	var updated models.Event
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	updated.ID = eventID
	updated.OrganizerID = existing.OrganizerID

	if err := h.Service.UpdateEvent(updated); err != nil {
		if errors.Is(err, event.ErrInvalidEvent) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid event data", err.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent %s: %v", eventID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to update event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event updated", nil))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	existing, err := h.Service.GetEvent(eventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to delete event", err.Error()))
		return
	}

	caller := auth.UserID(r.Context())
	if auth.Role(r.Context()) != models.RoleAdmin && existing.OrganizerID != caller {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "event belongs to another organizer"))
		return
	}

	if err := h.Service.DeleteEvent(eventID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent %s: %v", eventID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to delete event", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyEvents lists the calling organizer's events.
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	organizerID := auth.UserID(r.Context())
	events, err := h.Service.GetEventsByOrganizer(organizerID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", events))
}

// AdminListEvents includes inactive events.
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.GetAllEventsIncludingInactive()
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", events))
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"event-ticketing/internal/auth"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/payment"
	paymentdb "event-ticketing/internal/payment/db"
	"event-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *payment.Service
	Logger  *logger.Logger
}

func NewHandler(service *payment.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) MyPayments(w http.ResponseWriter, r *http.Request) {
	customerID := auth.UserID(r.Context())
	payments, err := h.Service.GetPaymentsByCustomer(customerID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payments retrieved", payments))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	p, err := h.Service.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, paymentdb.ErrPaymentNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetPayment %s: %v", paymentID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get payment", err.Error()))
		return
	}

	caller := auth.UserID(r.Context())
	if auth.Role(r.Context()) == models.RoleCustomer && p.CustomerID != caller {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "payment belongs to another customer"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment retrieved", p))
}

// ValidatePayment checks whether a transaction id belongs to a
// completed payment. Unknown ids come back valid=false, not 404.
func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	transactionID := r.URL.Query().Get("transaction_id")
	if transactionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Missing transaction id", "transaction_id query parameter is required"))
		return
	}

	valid, err := h.Service.ValidatePayment(transactionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidatePayment %s: %v", transactionID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to validate payment", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment validated", map[string]interface{}{
		"transaction_id": transactionID,
		"valid":          valid,
	}))
}

// AdminListPayments returns the whole ledger.
func (h *Handler) AdminListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.GetAllPayments()
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payments retrieved", payments))
}

// OrganizerRevenue reports completed payment totals across the calling
// organizer's events.
func (h *Handler) OrganizerRevenue(w http.ResponseWriter, r *http.Request) {
	organizerID := auth.UserID(r.Context())
	revenue, err := h.Service.RevenueByOrganizer(organizerID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to compute revenue", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Revenue computed", map[string]interface{}{
		"organizer_id": organizerID,
		"revenue":      revenue,
	}))
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/utils"
	"event-ticketing/internal/webhook"
)

type Handler struct {
	Service *webhook.Service
	Logger  *logger.Logger
}

func NewHandler(service *webhook.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// StripeWebhook is the single endpoint Stripe delivers to. The response
// body stays minimal; Stripe only cares about the status code.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.HandleStripeWebhook(r); err != nil {
		var whErr *webhook.WebhookError
		if errors.As(err, &whErr) {
			utils.WriteJSON(w, whErr.StatusCode, utils.ErrorResponse(whErr.PublicError, whErr.Category))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Webhook processing error", "internal"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/promotion"
	promodb "event-ticketing/internal/promotion/db"
	"event-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *promotion.Service
	Logger  *logger.Logger
}

func NewHandler(service *promotion.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	promo, err := h.Service.CreatePromotion(req)
	if err != nil {
		if errors.Is(err, promotion.ErrInvalidPromotion) || errors.Is(err, promotion.ErrInvalidWindow) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid promotion data", err.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreatePromotion: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to create promotion", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Promotion created", promo))
}

func (h *Handler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promotionId")

	promo, err := h.Service.GetPromotion(promoID)
	if err != nil {
		if errors.Is(err, promodb.ErrPromotionNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Promotion not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get promotion", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotion retrieved", promo))
}

func (h *Handler) EventPromotions(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	promos, err := h.Service.GetPromotionsByEvent(eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list promotions", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotions retrieved", promos))
}

// ValidateCode lets the storefront check a code before checkout.
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	eventID := r.URL.Query().Get("event_id")
	if code == "" || eventID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "code and event_id are required"))
		return
	}

	valid, discount, err := h.Service.ValidateCode(code, eventID)
	if err != nil {
		if errors.Is(err, promodb.ErrPromotionNotFound) {
			utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Code checked", map[string]interface{}{
				"valid": false,
			}))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to validate code", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Code checked", map[string]interface{}{
		"valid":               valid,
		"discount_percentage": discount,
	}))
}

func (h *Handler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promotionId")

	var promo models.Promotion
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	promo.ID = promoID

	if err := h.Service.UpdatePromotion(promo); err != nil {
		switch {
		case errors.Is(err, promodb.ErrPromotionNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Promotion not found", err.Error()))
		case errors.Is(err, promotion.ErrInvalidPromotion), errors.Is(err, promotion.ErrInvalidWindow):
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid promotion data", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("UpdatePromotion %s: %v", promoID, err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to update promotion", err.Error()))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotion updated", nil))
}

func (h *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promotionId")

	if err := h.Service.DeletePromotion(promoID); err != nil {
		if errors.Is(err, promodb.ErrPromotionNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Promotion not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to delete promotion", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

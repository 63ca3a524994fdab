package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"event-ticketing/internal/auth"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/user"
	userdb "event-ticketing/internal/user/db"
	"event-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *user.Service
	Logger  *logger.Logger
}

func NewHandler(service *user.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Me returns the calling user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetUser(auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("User not found", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get user", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("User retrieved", u))
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAllUsers()
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list users", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Users retrieved", users))
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	updated, err := h.Service.UpdateUser(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, userdb.ErrUserNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("User not found", err.Error()))
		case errors.Is(err, user.ErrInvalidUpdate):
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user update", err.Error()))
		default:
			h.Logger.Error("API", fmt.Sprintf("AdminUpdateUser %s: %v", userID, err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to update user", err.Error()))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("User updated", updated))
}

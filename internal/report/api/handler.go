package api

import (
	"fmt"
	"net/http"

	"event-ticketing/internal/logger"
	"event-ticketing/internal/report"
	"event-ticketing/internal/utils"
)

type Handler struct {
	Service *report.Service
	Logger  *logger.Logger
}

func NewHandler(service *report.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RevenueSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.RevenueSummary()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RevenueSummary: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to build summary", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Revenue summary", summary))
}

func (h *Handler) SalesCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, "sales-report.csv", h.Service.SalesReportCSV)
}

func (h *Handler) UsersCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, "users-report.csv", h.Service.UsersReportCSV)
}

func (h *Handler) EventsCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, "events-report.csv", h.Service.EventsReportCSV)
}

func (h *Handler) RevenueCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, "revenue-report.csv", h.Service.RevenueReportCSV)
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, build func() ([]byte, error)) {
	data, err := build()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Report %s failed: %v", filename, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to build report", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

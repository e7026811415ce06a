package handlers

import (
	"net/http"

	"milesync-backend/internal/middleware"
	"milesync-backend/internal/services"
)

type DashboardHandler struct {
	goalService   *services.GoalService
	geminiService *services.GeminiService
}

func NewDashboardHandler(goalService *services.GoalService, geminiService *services.GeminiService) *DashboardHandler {
	return &DashboardHandler{goalService: goalService, geminiService: geminiService}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.goalService.DashboardStats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Quota(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	quota, err := h.geminiService.QuotaStatus(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quota)
}

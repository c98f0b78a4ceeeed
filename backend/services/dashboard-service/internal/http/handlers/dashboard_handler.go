package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ampera/backend/services/dashboard-service/internal/service"
)

// DashboardHandler serves GET /api/live-dashboard.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *zap.Logger
}

// NewDashboardHandler returns handler.
func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.BuildSnapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, payload)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ampera/backend/services/triage-service/internal/models"
	"ampera/backend/services/triage-service/internal/service"
)

// TriageHandler serves POST /api/ai-triage.
type TriageHandler struct {
	service *service.TriageService
	logger  *zap.Logger
}

// NewTriageHandler returns handler.
func NewTriageHandler(service *service.TriageService, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{service: service, logger: logger}
}

func (h *TriageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	resp, err := h.service.Triage(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNoUserMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("triage request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewHealthHandler(storage interfaces.StorageManager, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	dbConnected := true
	if err := h.storage.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Database ping failed")
		dbConnected = false
	}

	status := "ok"
	code := http.StatusOK
	if !dbConnected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, map[string]interface{}{
		"status":   status,
		"version":  common.GetVersion(),
		"database": dbConnected,
	})
}

// NotFoundHandler is the fallthrough for unmatched /api routes.
func (h *HealthHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

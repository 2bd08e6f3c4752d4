package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// ETLHandler exposes manual pipeline runs and run history.
type ETLHandler struct {
	etl       interfaces.ETLService
	scheduler interfaces.SchedulerService
	storage   interfaces.StorageManager
	logger    arbor.ILogger
}

func NewETLHandler(etl interfaces.ETLService, scheduler interfaces.SchedulerService, storage interfaces.StorageManager, logger arbor.ILogger) *ETLHandler {
	return &ETLHandler{
		etl:       etl,
		scheduler: scheduler,
		storage:   storage,
		logger:    logger,
	}
}

// TriggerHandler handles POST /api/etl/trigger. The run happens in the
// background; progress streams over the websocket.
func (h *ETLHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.etl.IsRunning() {
		WriteError(w, http.StatusConflict, "An ETL run is already in progress")
		return
	}

	user := UserFrom(r)
	userID := user.ID
	// Superusers trigger the full run across all active users.
	runAll := user.Role == "service_role" || r.URL.Query().Get("all") == "true"

	common.SafeGo(h.logger, "manual-etl", func() {
		// Detached from the request so the run survives the response.
		ctx := context.Background()
		var err error
		if runAll {
			_, err = h.etl.RunAll(ctx, models.TriggerManual)
		} else {
			_, err = h.etl.RunUser(ctx, userID, models.TriggerManual)
		}
		if err != nil {
			h.logger.Warn().Err(err).Msg("Manual ETL run failed")
		}
	})

	WriteStarted(w, "ETL run started")
}

// RunsHandler handles GET /api/etl/runs.
func (h *ETLHandler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := GetLimitParam(r, 20, 100)
	runs, err := h.storage.ETLRunStorage().ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list ETL runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// StatusHandler handles GET /api/etl/status: running flag plus the
// scheduler's job table.
func (h *ETLHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var jobs map[string]*interfaces.JobStatus
	if h.scheduler != nil {
		jobs = h.scheduler.GetAllJobStatuses()
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.etl.IsRunning(),
		"jobs":    jobs,
	})
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
)

// ReportHandler lists and serves generated weekly report PDFs.
type ReportHandler struct {
	reports interfaces.ReportService
	logger  arbor.ILogger
}

func NewReportHandler(reports interfaces.ReportService, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// ListHandler handles GET /api/reports. Only the caller's own report
// files are listed.
func (h *ReportHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user := UserFrom(r)
	reports, err := h.reports.ListReports(user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// DownloadHandler handles GET /api/reports/{name}. Another user's
// report name is a 404 just like a missing one.
func (h *ReportHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user := UserFrom(r)
	name := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	path, err := h.reports.ReportPath(user.ID, name)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Report not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

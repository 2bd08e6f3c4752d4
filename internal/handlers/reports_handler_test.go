package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/services/report"
)

func newReportHandler(t *testing.T) (*ReportHandler, string) {
	t.Helper()
	dir := t.TempDir()
	config := common.NewDefaultConfig()
	config.ETL.OutputDir = dir
	service := report.NewService(nil, nil, nil, nil, config, common.GetLogger())
	return NewReportHandler(service, common.GetLogger()), dir
}

func seedReport(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestListReportsScopedToCaller(t *testing.T) {
	handler, dir := newReportHandler(t)
	seedReport(t, dir, "golfstats_weekly_user-1_2026-08-20.pdf", "%PDF mine")
	seedReport(t, dir, "golfstats_weekly_someone-else_2026-08-20.pdf", "%PDF theirs")

	w := httptest.NewRecorder()
	handler.ListHandler(w, authedRequest(http.MethodGet, "/api/reports", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "golfstats_weekly_user-1_2026-08-20.pdf")
	assert.NotContains(t, w.Body.String(), "someone-else")
}

func TestDownloadReportOwnership(t *testing.T) {
	handler, dir := newReportHandler(t)
	seedReport(t, dir, "golfstats_weekly_user-1_2026-08-20.pdf", "%PDF mine")
	seedReport(t, dir, "golfstats_weekly_someone-else_2026-08-20.pdf", "%PDF theirs")

	w := httptest.NewRecorder()
	handler.DownloadHandler(w, authedRequest(http.MethodGet, "/api/reports/golfstats_weekly_user-1_2026-08-20.pdf", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF mine", w.Body.String())

	// Foreign report names read as missing, not forbidden.
	w = httptest.NewRecorder()
	handler.DownloadHandler(w, authedRequest(http.MethodGet, "/api/reports/golfstats_weekly_someone-else_2026-08-20.pdf", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "theirs")
}

package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/golfstats/internal/interfaces"
)

// SnapshotHandler exposes the scrape spool: listing captures and
// rendering their markdown rendition for the dashboard preview.
type SnapshotHandler struct {
	snapshots interfaces.SnapshotStore
	markdown  goldmark.Markdown
	logger    arbor.ILogger
}

func NewSnapshotHandler(snapshots interfaces.SnapshotStore, logger arbor.ILogger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
		logger:    logger,
	}
}

// snapshotSummary is the listing shape; page bodies and screenshots stay
// out of the list payload.
type snapshotSummary struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	ExternalID string `json:"external_id,omitempty"`
	Kind       string `json:"kind"`
	CapturedAt int64  `json:"captured_at"`
	URL        string `json:"url,omitempty"`
	Note       string `json:"note,omitempty"`
}

// ListHandler handles GET /api/snapshots?source=&kind=&limit=.
func (h *SnapshotHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user := UserFrom(r)
	opts := &interfaces.SnapshotListOptions{
		UserID: user.ID,
		Source: r.URL.Query().Get("source"),
		Kind:   r.URL.Query().Get("kind"),
		Limit:  GetLimitParam(r, 50, 200),
	}

	snapshots, err := h.snapshots.ListSnapshots(opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list snapshots")
		WriteError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	summaries := make([]snapshotSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		summaries = append(summaries, snapshotSummary{
			ID:         snap.ID,
			Source:     snap.Source,
			ExternalID: snap.ExternalID,
			Kind:       snap.Kind,
			CapturedAt: snap.CapturedAt.Unix(),
			URL:        snap.URL,
			Note:       snap.Note,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"snapshots": summaries})
}

// PreviewHandler handles GET /api/snapshots/{id}/preview: the snapshot's
// markdown rendered to HTML.
func (h *SnapshotHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" || tail != "preview" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	snap, err := h.snapshots.GetSnapshot(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Snapshot not found")
		return
	}

	// Spool entries are per-user; a foreign snapshot id is a 404 just
	// like a missing one.
	user := UserFrom(r)
	if snap.UserID != "" && snap.UserID != user.ID {
		WriteError(w, http.StatusNotFound, "Snapshot not found")
		return
	}

	if snap.Markdown == "" {
		WriteError(w, http.StatusNotFound, "Snapshot has no preview")
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(snap.Markdown), &buf); err != nil {
		h.logger.Error().Err(err).Str("snapshot_id", id).Msg("Failed to render preview")
		WriteError(w, http.StatusInternalServerError, "Failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

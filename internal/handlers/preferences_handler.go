package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// PreferencesHandler serves GET and PUT /api/preferences.
type PreferencesHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewPreferencesHandler(storage interfaces.StorageManager, logger arbor.ILogger) *PreferencesHandler {
	return &PreferencesHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *PreferencesHandler) Handler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.upsert(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *PreferencesHandler) get(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r)
	prefs, err := h.storage.PreferenceStorage().GetPreferences(r.Context(), user.ID)
	if err != nil {
		// Users who never saved preferences get the defaults.
		prefs = models.DefaultPreferences(user.ID)
	}
	WriteJSON(w, http.StatusOK, prefs)
}

func (h *PreferencesHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := DecodeJSON(r, &prefs); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := UserFrom(r)
	prefs.UserID = user.ID
	switch prefs.PreferredUnits {
	case "", models.UnitsYards, models.UnitsMeters:
	default:
		WriteError(w, http.StatusBadRequest, "preferred_units must be yards or meters")
		return
	}
	if prefs.PreferredUnits == "" {
		prefs.PreferredUnits = models.UnitsYards
	}
	prefs.UpdatedAt = time.Now().UTC()

	if err := h.storage.PreferenceStorage().UpsertPreferences(r.Context(), &prefs); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to save preferences")
		WriteError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}
	WriteJSON(w, http.StatusOK, &prefs)
}

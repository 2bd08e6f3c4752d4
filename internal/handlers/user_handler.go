package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// UserHandler serves the current user's profile and tracker credentials.
type UserHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewUserHandler(storage interfaces.StorageManager, logger arbor.ILogger) *UserHandler {
	return &UserHandler{
		storage: storage,
		logger:  logger,
	}
}

// ProfileHandler handles GET and PUT /api/user.
func (h *UserHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	auth := UserFrom(r)
	user, err := h.storage.UserStorage().GetUser(r.Context(), auth.ID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, profileResponse(user))
}

type profileUpdateRequest struct {
	FullName       *string  `json:"full_name"`
	Handicap       *float64 `json:"handicap"`
	PreferredUnits *string  `json:"preferred_units"`
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth := UserFrom(r)
	user, err := h.storage.UserStorage().GetUser(r.Context(), auth.ID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Handicap != nil {
		user.Handicap = req.Handicap
	}
	if req.PreferredUnits != nil {
		switch *req.PreferredUnits {
		case models.UnitsYards, models.UnitsMeters:
			user.PreferredUnits = *req.PreferredUnits
		default:
			WriteError(w, http.StatusBadRequest, "preferred_units must be yards or meters")
			return
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.storage.UserStorage().UpdateUser(r.Context(), user); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		WriteError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	WriteJSON(w, http.StatusOK, profileResponse(user))
}

type credentialsUpdateRequest struct {
	TrackmanUsername *string `json:"trackman_username"`
	TrackmanPassword *string `json:"trackman_password"`
	ArccosEmail      *string `json:"arccos_email"`
	ArccosPassword   *string `json:"arccos_password"`
	SkyTrakUsername  *string `json:"skytrak_username"`
	SkyTrakPassword  *string `json:"skytrak_password"`
}

// CredentialsHandler handles PUT /api/user/credentials. Secrets are
// write-only: the response reports presence per vendor, never values.
func (h *UserHandler) CredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req credentialsUpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth := UserFrom(r)
	user, err := h.storage.UserStorage().GetUser(r.Context(), auth.ID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&user.TrackmanUsername, req.TrackmanUsername)
	apply(&user.TrackmanPassword, req.TrackmanPassword)
	apply(&user.ArccosEmail, req.ArccosEmail)
	apply(&user.ArccosPassword, req.ArccosPassword)
	apply(&user.SkyTrakUsername, req.SkyTrakUsername)
	apply(&user.SkyTrakPassword, req.SkyTrakPassword)
	user.UpdatedAt = time.Now().UTC()

	if err := h.storage.UserStorage().UpdateUser(r.Context(), user); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update credentials")
		WriteError(w, http.StatusInternalServerError, "Failed to update credentials")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{
		"trackman": user.HasTrackmanCredentials(),
		"arccos":   user.HasArccosCredentials(),
		"skytrak":  user.HasSkyTrakCredentials(),
	})
}

// profileResponse augments the user JSON with credential presence flags
// so the dashboard can show which trackers are linked.
func profileResponse(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"user": user,
		"credentials": map[string]bool{
			"trackman": user.HasTrackmanCredentials(),
			"arccos":   user.HasArccosCredentials(),
			"skytrak":  user.HasSkyTrakCredentials(),
		},
	}
}

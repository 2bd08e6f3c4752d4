package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// ClubHandler serves the user's bag.
type ClubHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewClubHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ClubHandler {
	return &ClubHandler{
		storage: storage,
		logger:  logger,
	}
}

// CollectionHandler handles GET and POST /api/clubs.
func (h *ClubHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// ItemHandler handles PUT and DELETE /api/clubs/{id}.
func (h *ClubHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	idPart := strings.TrimPrefix(r.URL.Path, "/api/clubs/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "Invalid club id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ClubHandler) list(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r)
	clubs, err := h.storage.ClubStorage().ListClubs(r.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list clubs")
		WriteError(w, http.StatusInternalServerError, "Failed to list clubs")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"clubs": clubs})
}

func (h *ClubHandler) create(w http.ResponseWriter, r *http.Request) {
	var club models.Club
	if err := DecodeJSON(r, &club); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := UserFrom(r)
	club.ID = 0
	club.UserID = user.ID
	club.IsActive = true
	if err := club.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.ClubStorage().CreateClub(r.Context(), &club); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create club")
		WriteError(w, http.StatusInternalServerError, "Failed to create club")
		return
	}
	WriteJSON(w, http.StatusCreated, &club)
}

func (h *ClubHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)
	if _, err := h.storage.ClubStorage().GetClub(r.Context(), user.ID, id); err != nil {
		WriteError(w, http.StatusNotFound, "Club not found")
		return
	}

	var club models.Club
	if err := DecodeJSON(r, &club); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	club.ID = id
	club.UserID = user.ID
	if err := club.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.ClubStorage().UpdateClub(r.Context(), &club); err != nil {
		h.logger.Error().Err(err).Int64("club_id", id).Msg("Failed to update club")
		WriteError(w, http.StatusInternalServerError, "Failed to update club")
		return
	}
	WriteJSON(w, http.StatusOK, &club)
}

func (h *ClubHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)
	if err := h.storage.ClubStorage().DeleteClub(r.Context(), user.ID, id); err != nil {
		WriteError(w, http.StatusNotFound, "Club not found")
		return
	}
	WriteSuccess(w, "Club deleted")
}

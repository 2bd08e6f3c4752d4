package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// RoundHandler serves round CRUD and shot append. Every storage call is
// scoped by the authenticated user; rows belonging to someone else look
// identical to rows that do not exist, so violations return 404.
type RoundHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewRoundHandler(storage interfaces.StorageManager, logger arbor.ILogger) *RoundHandler {
	return &RoundHandler{
		storage: storage,
		logger:  logger,
	}
}

// CollectionHandler handles GET and POST /api/rounds.
func (h *RoundHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// ItemHandler handles /api/rounds/{id} and /api/rounds/{id}/shots.
func (h *RoundHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rounds/")
	idPart, tail, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "Invalid round id")
		return
	}

	if tail == "shots" {
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		h.addShot(w, r, id)
		return
	}
	if tail != "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *RoundHandler) list(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r)
	opts := &interfaces.RoundListOptions{
		Limit:  GetLimitParam(r, 20, 100),
		Offset: GetOffsetParam(r),
		Source: r.URL.Query().Get("source"),
	}

	rounds, err := h.storage.RoundStorage().ListRounds(r.Context(), user.ID, opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list rounds")
		WriteError(w, http.StatusInternalServerError, "Failed to list rounds")
		return
	}

	total, err := h.storage.RoundStorage().CountRounds(r.Context(), user.ID)
	if err != nil {
		total = len(rounds)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": rounds,
		"total":  total,
	})
}

func (h *RoundHandler) create(w http.ResponseWriter, r *http.Request) {
	var round models.Round
	if err := DecodeJSON(r, &round); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := UserFrom(r)
	round.ID = 0
	round.UserID = user.ID
	if round.SourceSystem == "" {
		round.SourceSystem = models.SourceManual
	}
	if err := round.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.RoundStorage().CreateRound(r.Context(), &round); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create round")
		WriteError(w, http.StatusInternalServerError, "Failed to create round")
		return
	}
	WriteJSON(w, http.StatusCreated, &round)
}

func (h *RoundHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)
	round, err := h.storage.RoundStorage().GetRound(r.Context(), user.ID, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Round not found")
		return
	}
	WriteJSON(w, http.StatusOK, round)
}

func (h *RoundHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)

	existing, err := h.storage.RoundStorage().GetRound(r.Context(), user.ID, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Round not found")
		return
	}

	var round models.Round
	if err := DecodeJSON(r, &round); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	round.ID = existing.ID
	round.UserID = user.ID
	if round.SourceSystem == "" {
		round.SourceSystem = existing.SourceSystem
	}
	if err := round.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.RoundStorage().UpdateRound(r.Context(), &round); err != nil {
		h.logger.Error().Err(err).Int64("round_id", id).Msg("Failed to update round")
		WriteError(w, http.StatusInternalServerError, "Failed to update round")
		return
	}
	WriteJSON(w, http.StatusOK, &round)
}

func (h *RoundHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)
	if err := h.storage.RoundStorage().DeleteRound(r.Context(), user.ID, id); err != nil {
		WriteError(w, http.StatusNotFound, "Round not found")
		return
	}
	WriteSuccess(w, "Round deleted")
}

func (h *RoundHandler) addShot(w http.ResponseWriter, r *http.Request, id int64) {
	user := UserFrom(r)

	// Ownership check before touching shots.
	if _, err := h.storage.RoundStorage().GetRound(r.Context(), user.ID, id); err != nil {
		WriteError(w, http.StatusNotFound, "Round not found")
		return
	}

	var shot models.Shot
	if err := DecodeJSON(r, &shot); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	shot.RoundID = id

	if err := h.storage.RoundStorage().AddShot(r.Context(), user.ID, id, &shot); err != nil {
		h.logger.Error().Err(err).Int64("round_id", id).Msg("Failed to add shot")
		WriteError(w, http.StatusInternalServerError, "Failed to add shot")
		return
	}
	WriteJSON(w, http.StatusCreated, &shot)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// fakeStorageManager backs handler tests with an in-memory round store.
type fakeStorageManager struct {
	interfaces.StorageManager
	rounds *fakeRoundStorage
}

func (f *fakeStorageManager) RoundStorage() interfaces.RoundStorage { return f.rounds }

type fakeRoundStorage struct {
	interfaces.RoundStorage
	rounds map[int64]*models.Round
	nextID int64
}

func newFakeRoundStorage() *fakeRoundStorage {
	return &fakeRoundStorage{rounds: make(map[int64]*models.Round), nextID: 1}
}

func (f *fakeRoundStorage) CreateRound(ctx context.Context, round *models.Round) error {
	round.ID = f.nextID
	f.nextID++
	f.rounds[round.ID] = round
	return nil
}

func (f *fakeRoundStorage) GetRound(ctx context.Context, userID string, id int64) (*models.Round, error) {
	round, ok := f.rounds[id]
	if !ok || round.UserID != userID {
		return nil, fmt.Errorf("round not found")
	}
	return round, nil
}

func (f *fakeRoundStorage) ListRounds(ctx context.Context, userID string, opts *interfaces.RoundListOptions) ([]*models.Round, error) {
	var out []*models.Round
	for _, round := range f.rounds {
		if round.UserID != userID {
			continue
		}
		if opts.Source != "" && round.SourceSystem != opts.Source {
			continue
		}
		out = append(out, round)
	}
	return out, nil
}

func (f *fakeRoundStorage) CountRounds(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, round := range f.rounds {
		if round.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRoundStorage) DeleteRound(ctx context.Context, userID string, id int64) error {
	round, ok := f.rounds[id]
	if !ok || round.UserID != userID {
		return fmt.Errorf("round not found")
	}
	delete(f.rounds, id)
	return nil
}

func (f *fakeRoundStorage) AddShot(ctx context.Context, userID string, roundID int64, shot *models.Shot) error {
	shot.ID = f.nextID
	f.nextID++
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	user := &interfaces.AuthUser{ID: "user-1", Email: "golfer@example.com", Provider: models.AuthProviderLocal}
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func seedRound(storage *fakeRoundStorage, userID string) *models.Round {
	round := &models.Round{
		UserID:       userID,
		Date:         time.Now().UTC(),
		CourseName:   "Pebble Creek",
		SourceSystem: models.SourceManual,
	}
	storage.CreateRound(context.Background(), round)
	return round
}

func newRoundHandler() (*RoundHandler, *fakeRoundStorage) {
	rounds := newFakeRoundStorage()
	handler := NewRoundHandler(&fakeStorageManager{rounds: rounds}, common.GetLogger())
	return handler, rounds
}

func TestCreateAndGetRound(t *testing.T) {
	handler, _ := newRoundHandler()

	body := `{"date":"2026-08-20T00:00:00Z","course_name":"Pebble Creek","total_score":84,"total_par":72}`
	w := httptest.NewRecorder()
	handler.CollectionHandler(w, authedRequest(http.MethodPost, "/api/rounds", body))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Pebble Creek")
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)

	w = httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodGet, "/api/rounds/1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRoundValidation(t *testing.T) {
	handler, _ := newRoundHandler()

	// Missing course name.
	w := httptest.NewRecorder()
	handler.CollectionHandler(w, authedRequest(http.MethodPost, "/api/rounds", `{"date":"2026-08-20T00:00:00Z"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Garbage body.
	w = httptest.NewRecorder()
	handler.CollectionHandler(w, authedRequest(http.MethodPost, "/api/rounds", `{nope`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRoundOwnership(t *testing.T) {
	handler, rounds := newRoundHandler()
	seedRound(rounds, "someone-else")

	// Foreign rows read as missing, not forbidden.
	w := httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodGet, "/api/rounds/1", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodDelete, "/api/rounds/1", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRoundsScopedToUser(t *testing.T) {
	handler, rounds := newRoundHandler()
	seedRound(rounds, "user-1")
	seedRound(rounds, "user-1")
	seedRound(rounds, "someone-else")

	w := httptest.NewRecorder()
	handler.CollectionHandler(w, authedRequest(http.MethodGet, "/api/rounds?limit=10", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestAddShot(t *testing.T) {
	handler, rounds := newRoundHandler()
	seedRound(rounds, "user-1")

	w := httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodPost, "/api/rounds/1/shots", `{"shot_number":1,"club":"Driver","distance":255}`))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Shots on a foreign round are a 404.
	seedRound(rounds, "someone-else")
	w = httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodPost, "/api/rounds/2/shots", `{"shot_number":1}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidRoundID(t *testing.T) {
	handler, _ := newRoundHandler()

	w := httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodGet, "/api/rounds/abc", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.ItemHandler(w, authedRequest(http.MethodGet, "/api/rounds/1/unknown", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// fakeAuthService accepts a single token.
type fakeAuthService struct {
	interfaces.AuthService
	token string
	user  *interfaces.AuthUser
}

func (f *fakeAuthService) VerifyToken(ctx context.Context, token string) (*interfaces.AuthUser, error) {
	if token == f.token {
		return f.user, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func TestRequireUser(t *testing.T) {
	auth := &fakeAuthService{
		token: "valid-token",
		user:  &interfaces.AuthUser{ID: "user-1", Provider: models.AuthProviderLocal},
	}
	middleware := NewAuthMiddleware(auth, common.GetLogger())

	var seen *interfaces.AuthUser
	protected := middleware.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r)
		w.WriteHeader(http.StatusOK)
	})

	// No token.
	w := httptest.NewRecorder()
	protected(w, httptest.NewRequest(http.MethodGet, "/api/rounds", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Bad token.
	r := httptest.NewRequest(http.MethodGet, "/api/rounds", nil)
	r.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	protected(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token puts the identity in context.
	r = httptest.NewRequest(http.MethodGet, "/api/rounds", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	w = httptest.NewRecorder()
	protected(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", seen.ID)

	// Token can ride the query string for websocket clients.
	r = httptest.NewRequest(http.MethodGet, "/ws?token=valid-token", nil)
	w = httptest.NewRecorder()
	protected(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetLimitParamBounds(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/rounds?limit=5", nil)
	assert.Equal(t, 5, GetLimitParam(r, 20, 100))

	r = httptest.NewRequest(http.MethodGet, "/api/rounds", nil)
	assert.Equal(t, 20, GetLimitParam(r, 20, 100))

	r = httptest.NewRequest(http.MethodGet, "/api/rounds?limit=500", nil)
	assert.Equal(t, 100, GetLimitParam(r, 20, 100))

	r = httptest.NewRequest(http.MethodGet, "/api/rounds?limit=bogus", nil)
	assert.Equal(t, 20, GetLimitParam(r, 20, 100))
}

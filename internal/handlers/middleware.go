package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// AuthMiddleware resolves bearer tokens into the request context. Every
// /api route goes through RequireUser so storage calls can be scoped by
// user id, mirroring what RLS enforces on the database side.
type AuthMiddleware struct {
	auth   interfaces.AuthService
	logger arbor.ILogger
}

func NewAuthMiddleware(auth interfaces.AuthService, logger arbor.ILogger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: logger,
	}
}

// RequireUser rejects requests without a valid bearer token and stores
// the resolved identity in the request context.
func (m *AuthMiddleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			WriteError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		user, err := m.auth.VerifyToken(r.Context(), token)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Token rejected")
			WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// UserFrom returns the authenticated user stored by RequireUser, or nil.
func UserFrom(r *http.Request) *interfaces.AuthUser {
	user, _ := r.Context().Value(userContextKey).(*interfaces.AuthUser)
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Websocket clients cannot set headers from the browser, so the
		// token may arrive as a query parameter instead.
		return r.URL.Query().Get("token")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
)

const oauthStateCookie = "oauth_state"

// GoogleHandler drives the browser-facing Google OAuth flow.
type GoogleHandler struct {
	google interfaces.GoogleAuthService
	logger arbor.ILogger
}

func NewGoogleHandler(google interfaces.GoogleAuthService, logger arbor.ILogger) *GoogleHandler {
	return &GoogleHandler{
		google: google,
		logger: logger,
	}
}

// LoginHandler handles GET /auth/google/login: sets the state cookie and
// redirects to the Google consent page.
func (h *GoogleHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.google.Enabled() {
		WriteError(w, http.StatusNotImplemented, "Google login is not configured")
		return
	}

	state, err := randomState()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to start login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusFound)
}

// CallbackHandler handles GET /auth/google/callback: verifies state,
// exchanges the code and redirects to the dashboard with the session
// token in the URL fragment where the frontend picks it up.
func (h *GoogleHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.google.Enabled() {
		WriteError(w, http.StatusNotImplemented, "Google login is not configured")
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		WriteError(w, http.StatusUnauthorized, fmt.Sprintf("Google login failed: %s", errMsg))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		WriteError(w, http.StatusUnauthorized, "Invalid OAuth state")
		return
	}
	// Burn the state cookie.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	session, err := h.google.HandleCallback(r.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Google callback failed")
		WriteError(w, http.StatusUnauthorized, "Google login failed")
		return
	}

	http.Redirect(w, r, "/#access_token="+session.AccessToken, http.StatusFound)
}

// LogoutHandler handles GET /auth/google/logout. Google sessions are
// plain local JWTs, so logout is client-side token disposal.
func (h *GoogleHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

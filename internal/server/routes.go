// -----------------------------------------------------------------------
// HTTP route table
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := s.app.AuthMiddleware

	// Dashboard page and static assets (no auth; the page itself asks
	// for a token before loading data)
	mux.HandleFunc("/", s.app.UIHandler.IndexHandler)
	mux.HandleFunc("/static/", s.app.UIHandler.StaticFileHandler)
	mux.HandleFunc("/favicon.ico", s.app.UIHandler.StaticFileHandler)

	// Health (no auth)
	mux.HandleFunc("/health", s.app.HealthHandler.HealthHandler)

	// WebSocket event stream
	mux.HandleFunc("/ws", auth.RequireUser(s.app.WSHandler.HandleWebSocket))

	// Supabase auth flows
	mux.HandleFunc("/auth/login", s.app.AuthHandler.LoginHandler)
	mux.HandleFunc("/auth/signup", s.app.AuthHandler.SignupHandler)
	mux.HandleFunc("/auth/logout", s.app.AuthHandler.LogoutHandler)
	mux.HandleFunc("/auth/me", auth.RequireUser(s.app.AuthHandler.MeHandler))

	// Local account flows
	mux.HandleFunc("/auth/local/register", s.app.AuthHandler.RegisterHandler)
	mux.HandleFunc("/auth/local/login", s.app.AuthHandler.LocalLoginHandler)
	mux.HandleFunc("/auth/local/change-password", auth.RequireUser(s.app.AuthHandler.ChangePasswordHandler))
	mux.HandleFunc("/auth/local/password-reset-request", s.app.AuthHandler.PasswordResetRequestHandler)
	mux.HandleFunc("/auth/local/password-reset", s.app.AuthHandler.PasswordResetHandler)

	// Google OAuth
	mux.HandleFunc("/auth/google/login", s.app.GoogleHandler.LoginHandler)
	mux.HandleFunc("/auth/google/callback", s.app.GoogleHandler.CallbackHandler)
	mux.HandleFunc("/auth/google/logout", s.app.GoogleHandler.LogoutHandler)

	// API routes - profile and tracker credentials
	mux.HandleFunc("/api/user", auth.RequireUser(s.app.UserHandler.ProfileHandler))
	mux.HandleFunc("/api/user/credentials", auth.RequireUser(s.app.UserHandler.CredentialsHandler))

	// API routes - rounds, shots
	mux.HandleFunc("/api/rounds", auth.RequireUser(s.app.RoundHandler.CollectionHandler))
	mux.HandleFunc("/api/rounds/", auth.RequireUser(s.app.RoundHandler.ItemHandler))

	// API routes - bag
	mux.HandleFunc("/api/clubs", auth.RequireUser(s.app.ClubHandler.CollectionHandler))
	mux.HandleFunc("/api/clubs/", auth.RequireUser(s.app.ClubHandler.ItemHandler))

	// API routes - preferences
	mux.HandleFunc("/api/preferences", auth.RequireUser(s.app.PreferencesHandler.Handler))

	// API routes - ETL
	mux.HandleFunc("/api/etl/trigger", auth.RequireUser(s.app.ETLHandler.TriggerHandler))
	mux.HandleFunc("/api/etl/runs", auth.RequireUser(s.app.ETLHandler.RunsHandler))
	mux.HandleFunc("/api/etl/status", auth.RequireUser(s.app.ETLHandler.StatusHandler))

	// API routes - reports
	mux.HandleFunc("/api/reports", auth.RequireUser(s.app.ReportHandler.ListHandler))
	mux.HandleFunc("/api/reports/", auth.RequireUser(s.app.ReportHandler.DownloadHandler))

	// API routes - scrape spool
	mux.HandleFunc("/api/snapshots", auth.RequireUser(s.app.SnapshotHandler.ListHandler))
	mux.HandleFunc("/api/snapshots/", auth.RequireUser(s.handleSnapshotRoutes))

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.HealthHandler.NotFoundHandler)

	return mux
}

// handleSnapshotRoutes routes /api/snapshots/{id}/preview
func (s *Server) handleSnapshotRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/preview") {
		s.app.SnapshotHandler.PreviewHandler(w, r)
		return
	}
	s.app.HealthHandler.NotFoundHandler(w, r)
}

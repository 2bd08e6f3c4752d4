// -----------------------------------------------------------------------
// Last Modified: Tuesday, 18th August 2026 9:43:02 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/golfstats/internal/models"
)

// AuthUser is the authenticated identity resolved from a bearer token.
// ID matches auth.uid() for Supabase tokens so storage scoping mirrors RLS.
type AuthUser struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Role     string                 `json:"role,omitempty"`
	Provider string                 `json:"provider"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Session is an issued login session in GoTrue's response shape; locally
// issued tokens use the same shape so the frontend handles one format.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         *models.User `json:"user,omitempty"`
}

// AuthService verifies bearer tokens and brokers Supabase (GoTrue) and
// local-account auth flows.
type AuthService interface {
	// VerifyToken validates an access token and returns the identity.
	// Supabase HS256, locally issued HS256 and GoTrue introspection are
	// all accepted; the user row is created on first sight.
	VerifyToken(ctx context.Context, token string) (*AuthUser, error)

	// Supabase (GoTrue) flows
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error

	// Local account flows
	Register(ctx context.Context, email, username, password, fullName string) (*models.User, error)
	LoginLocal(ctx context.Context, identifier, password string) (*Session, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// GoogleAuthService drives the Google OAuth login flow.
type GoogleAuthService interface {
	// Enabled reports whether OAuth client credentials are configured.
	Enabled() bool

	// AuthURL returns the consent page URL for the given state value.
	AuthURL(state string) string

	// HandleCallback exchanges the code, fetches userinfo, upserts the
	// user and issues a session.
	HandleCallback(ctx context.Context, code string) (*Session, error)

	// RefreshUserToken refreshes a stored OAuth token when expired.
	RefreshUserToken(ctx context.Context, user *models.User) error
}

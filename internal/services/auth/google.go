package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleService implements the Google OAuth login flow: consent URL,
// code exchange, userinfo fetch, account upsert, session issue.
type GoogleService struct {
	oauth    *oauth2.Config
	users    interfaces.UserStorage
	sessions *Service
	logger   arbor.ILogger
}

var _ interfaces.GoogleAuthService = (*GoogleService)(nil)

type googleUserinfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// NewGoogleService creates the Google OAuth service. With no client ID
// configured the service stays disabled and the routes 404.
func NewGoogleService(users interfaces.UserStorage, sessions *Service, config *common.GoogleConfig, logger arbor.ILogger) *GoogleService {
	var oauthConfig *oauth2.Config
	if config.OAuth.ClientID != "" && config.OAuth.ClientSecret != "" {
		scopes := []string{"openid", "email", "profile"}
		if config.Sheets.SpreadsheetID != "" {
			scopes = append(scopes, "https://www.googleapis.com/auth/spreadsheets.readonly")
		}
		oauthConfig = &oauth2.Config{
			ClientID:     config.OAuth.ClientID,
			ClientSecret: config.OAuth.ClientSecret,
			RedirectURL:  config.OAuth.RedirectURI,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		}
	}
	return &GoogleService{
		oauth:    oauthConfig,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Enabled reports whether OAuth client credentials are configured.
func (g *GoogleService) Enabled() bool {
	return g.oauth != nil
}

// AuthURL returns the consent page URL for the given state value.
func (g *GoogleService) AuthURL(state string) string {
	if g.oauth == nil {
		return ""
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code, fetches the Google
// profile, upserts the account and issues a local session.
func (g *GoogleService) HandleCallback(ctx context.Context, code string) (*interfaces.Session, error) {
	if g.oauth == nil {
		return nil, fmt.Errorf("google oauth is not configured")
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	info, err := g.fetchUserinfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google profile has no email")
	}

	user, err := g.upsertUser(ctx, info, token)
	if err != nil {
		return nil, err
	}

	return g.sessions.IssueSession(user)
}

// RefreshUserToken refreshes a stored OAuth token when expired.
func (g *GoogleService) RefreshUserToken(ctx context.Context, user *models.User) error {
	if g.oauth == nil {
		return fmt.Errorf("google oauth is not configured")
	}
	if user.OAuthRefreshToken == "" {
		return fmt.Errorf("user has no refresh token")
	}
	if user.OAuthTokenExpiry != nil && time.Now().Before(*user.OAuthTokenExpiry) {
		return nil
	}

	source := g.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: user.OAuthRefreshToken,
	})
	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("failed to refresh google token: %w", err)
	}

	user.OAuthAccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.OAuthRefreshToken = token.RefreshToken
	}
	expiry := token.Expiry
	user.OAuthTokenExpiry = &expiry

	return g.users.UpdateUser(ctx, user)
}

func (g *GoogleService) fetchUserinfo(ctx context.Context, token *oauth2.Token) (*googleUserinfo, error) {
	client := g.oauth.Client(ctx, token)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode google userinfo: %w", err)
	}
	return &info, nil
}

// upsertUser finds the account by OAuth ID, then by email (linking an
// existing account), and creates one otherwise.
func (g *GoogleService) upsertUser(ctx context.Context, info *googleUserinfo, token *oauth2.Token) (*models.User, error) {
	user, err := g.users.GetUserByOAuthID(ctx, info.ID)
	if err != nil {
		user, err = g.users.GetUserByEmail(ctx, info.Email)
	}

	expiry := token.Expiry
	if err != nil {
		user = &models.User{
			ID:             common.NewUserID(),
			Email:          info.Email,
			FullName:       info.Name,
			IsActive:       true,
			AuthProvider:   models.AuthProviderGoogle,
			OAuthID:        info.ID,
			ProfilePicture: info.Picture,
			PreferredUnits: models.UnitsYards,
		}
		user.OAuthAccessToken = token.AccessToken
		user.OAuthRefreshToken = token.RefreshToken
		user.OAuthTokenExpiry = &expiry

		if err := g.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create google user: %w", err)
		}
		g.logger.Info().Str("user_id", user.ID).Msg("User created from Google login")
		return user, nil
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	user.OAuthID = info.ID
	user.OAuthAccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.OAuthRefreshToken = token.RefreshToken
	}
	user.OAuthTokenExpiry = &expiry
	if user.ProfilePicture == "" {
		user.ProfilePicture = info.Picture
	}
	if err := g.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update google user: %w", err)
	}
	return user, nil
}

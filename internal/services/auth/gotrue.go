package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// GoTrueClient is a minimal client for Supabase's auth API. Only the
// endpoints the app uses are covered: password grant, signup, logout,
// and user introspection.
type GoTrueClient struct {
	baseURL string
	anonKey string
	client  *http.Client
	logger  arbor.ILogger
}

// GoTrueUser is the identity shape returned by GET /auth/v1/user.
type GoTrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         GoTrueUser `json:"user"`
}

type gotrueError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func NewGoTrueClient(config *common.SupabaseConfig, logger arbor.ILogger) *GoTrueClient {
	return &GoTrueClient{
		baseURL: strings.TrimRight(config.URL, "/") + "/auth/v1",
		anonKey: config.AnonKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// SignIn performs the password grant.
func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*interfaces.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session gotrueSession
	if err := c.post(ctx, "/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	return c.toSession(&session), nil
}

// SignUp registers a new GoTrue account. Depending on project settings
// the response may carry a session or require email confirmation first.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*interfaces.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session gotrueSession
	if err := c.post(ctx, "/signup", "", body, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		// Confirmation pending; no session yet.
		return &interfaces.Session{User: gotrueUserToModel(&session.User)}, nil
	}
	return c.toSession(&session), nil
}

// SignOut revokes the session behind an access token.
func (c *GoTrueClient) SignOut(ctx context.Context, token string) error {
	return c.post(ctx, "/logout", token, nil, nil)
}

// GetUser introspects an access token.
func (c *GoTrueClient) GetUser(ctx context.Context, token string) (*GoTrueUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotrue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid token (gotrue status %d)", resp.StatusCode)
	}

	var user GoTrueUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode gotrue user: %w", err)
	}
	return &user, nil
}

func (c *GoTrueClient) post(ctx context.Context, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var gtErr gotrueError
		if json.NewDecoder(resp.Body).Decode(&gtErr) == nil {
			if gtErr.ErrorDescription != "" {
				return fmt.Errorf("auth failed: %s", gtErr.ErrorDescription)
			}
			if gtErr.Message != "" {
				return fmt.Errorf("auth failed: %s", gtErr.Message)
			}
		}
		return fmt.Errorf("auth failed (status %d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gotrue response: %w", err)
		}
	}
	return nil
}

func (c *GoTrueClient) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
}

func (c *GoTrueClient) toSession(session *gotrueSession) *interfaces.Session {
	return &interfaces.Session{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		User:         gotrueUserToModel(&session.User),
	}
}

func gotrueUserToModel(user *GoTrueUser) *models.User {
	if user == nil || user.ID == "" {
		return nil
	}
	return &models.User{
		ID:           user.ID,
		Email:        user.Email,
		IsActive:     true,
		AuthProvider: models.AuthProviderSupabase,
	}
}

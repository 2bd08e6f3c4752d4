package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ternarybob/arbor"
	"golang.org/x/crypto/bcrypt"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

const (
	// sessionTTL is the lifetime of locally issued access tokens.
	sessionTTL = 24 * time.Hour

	// resetTokenTTL bounds how long a password reset link stays valid.
	resetTokenTTL = time.Hour

	// supabaseAudience is the audience GoTrue stamps into access tokens.
	supabaseAudience = "authenticated"
)

// Service brokers the three login paths: Supabase (GoTrue), local
// accounts, and tokens minted for Google OAuth logins. All paths
// produce the same Session shape and verify through VerifyToken.
type Service struct {
	users  interfaces.UserStorage
	gotrue *GoTrueClient
	mailer interfaces.MailerService
	config *common.Config
	logger arbor.ILogger
}

var _ interfaces.AuthService = (*Service)(nil)

// NewService creates the auth service. GoTrue flows are active only
// when a Supabase URL is configured.
func NewService(users interfaces.UserStorage, mailer interfaces.MailerService, config *common.Config, logger arbor.ILogger) *Service {
	var gotrue *GoTrueClient
	if config.Supabase.URL != "" {
		gotrue = NewGoTrueClient(&config.Supabase, logger)
	}
	return &Service{
		users:  users,
		gotrue: gotrue,
		mailer: mailer,
		config: config,
		logger: logger,
	}
}

// VerifyToken resolves a bearer token to an identity. Locally issued
// tokens and Supabase tokens are both HS256; each is tried against its
// own secret. When the Supabase JWT secret is not configured the token
// falls through to GoTrue introspection.
func (s *Service) VerifyToken(ctx context.Context, token string) (*interfaces.AuthUser, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	if user, err := s.verifyLocalToken(ctx, token); err == nil {
		return user, nil
	}

	if s.config.Supabase.JWTSecret != "" {
		return s.verifySupabaseToken(ctx, token)
	}

	if s.gotrue != nil {
		return s.introspect(ctx, token)
	}

	return nil, fmt.Errorf("invalid token")
}

// verifyLocalToken validates a token signed with the app secret key.
func (s *Service) verifyLocalToken(ctx context.Context, token string) (*interfaces.AuthUser, error) {
	claims, err := parseHS256(token, s.config.App.SecretKey)
	if err != nil {
		return nil, err
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unknown user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	provider := user.AuthProvider
	if provider == "" {
		provider = models.AuthProviderLocal
	}
	return &interfaces.AuthUser{
		ID:       user.ID,
		Email:    user.Email,
		Provider: provider,
	}, nil
}

// verifySupabaseToken validates a GoTrue access token against the
// project JWT secret, checking audience and issuer. The user row is
// created on first sight so Supabase signups need no separate sync.
func (s *Service) verifySupabaseToken(ctx context.Context, token string) (*interfaces.AuthUser, error) {
	claims, err := parseHS256(token, s.config.Supabase.JWTSecret)
	if err != nil {
		return nil, err
	}

	if aud, _ := claims["aud"].(string); aud != supabaseAudience {
		return nil, fmt.Errorf("unexpected token audience")
	}
	expectedIssuer := strings.TrimRight(s.config.Supabase.URL, "/") + "/auth/v1"
	if iss, _ := claims["iss"].(string); iss != expectedIssuer {
		return nil, fmt.Errorf("unexpected token issuer")
	}

	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	if err := s.ensureUser(ctx, userID, email, models.AuthProviderSupabase); err != nil {
		return nil, err
	}

	authUser := &interfaces.AuthUser{
		ID:       userID,
		Email:    email,
		Provider: models.AuthProviderSupabase,
	}
	if role, ok := claims["role"].(string); ok {
		authUser.Role = role
	}
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		authUser.Metadata = meta
	}
	return authUser, nil
}

// introspect asks GoTrue who the token belongs to.
func (s *Service) introspect(ctx context.Context, token string) (*interfaces.AuthUser, error) {
	gtUser, err := s.gotrue.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, gtUser.ID, gtUser.Email, models.AuthProviderSupabase); err != nil {
		return nil, err
	}
	return &interfaces.AuthUser{
		ID:       gtUser.ID,
		Email:    gtUser.Email,
		Role:     gtUser.Role,
		Provider: models.AuthProviderSupabase,
	}, nil
}

// ensureUser upserts the application row for an externally
// authenticated identity.
func (s *Service) ensureUser(ctx context.Context, id, email, provider string) error {
	existing, err := s.users.GetUser(ctx, id)
	if err == nil {
		if !existing.IsActive {
			return fmt.Errorf("account is disabled")
		}
		return nil
	}

	user := &models.User{
		ID:             id,
		Email:          email,
		IsActive:       true,
		AuthProvider:   provider,
		PreferredUnits: models.UnitsYards,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user for %s identity: %w", provider, err)
	}
	s.logger.Info().Str("user_id", id).Str("provider", provider).Msg("User created from external identity")
	return nil
}

// SignIn authenticates against GoTrue with email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (*interfaces.Session, error) {
	if s.gotrue == nil {
		return nil, fmt.Errorf("supabase auth is not configured")
	}
	session, err := s.gotrue.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if session.User != nil {
		if err := s.ensureUser(ctx, session.User.ID, session.User.Email, models.AuthProviderSupabase); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SignUp registers a new account with GoTrue.
func (s *Service) SignUp(ctx context.Context, email, password string) (*interfaces.Session, error) {
	if s.gotrue == nil {
		return nil, fmt.Errorf("supabase auth is not configured")
	}
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}
	return s.gotrue.SignUp(ctx, email, password)
}

// SignOut revokes a GoTrue session. Locally issued tokens are
// stateless and simply expire.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if s.gotrue == nil {
		return nil
	}
	return s.gotrue.SignOut(ctx, token)
}

// Register creates a local account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, username, password, fullName string) (*models.User, error) {
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email is already registered")
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:             common.NewUserID(),
		Email:          email,
		Username:       username,
		FullName:       fullName,
		HashedPassword: string(hash),
		IsActive:       true,
		AuthProvider:   models.AuthProviderLocal,
		PreferredUnits: models.UnitsYards,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", username).Msg("Local account registered")
	return user, nil
}

// LoginLocal authenticates a local account by email or username.
func (s *Service) LoginLocal(ctx context.Context, identifier, password string) (*interfaces.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, identifier)
	if err != nil {
		user, err = s.users.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		// Burn a hash comparison so unknown accounts and bad passwords
		// take the same time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(password))
		return nil, fmt.Errorf("invalid credentials")
	}

	if user.HashedPassword == "" {
		return nil, fmt.Errorf("account does not use password login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	return s.IssueSession(user)
}

// IssueSession mints a local HS256 access token for a user.
func (s *Service) IssueSession(user *models.User) (*interfaces.Session, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.App.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &interfaces.Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(sessionTTL.Seconds()),
		User:        user,
	}, nil
}

// ChangePassword rotates a local account's password after verifying
// the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if user.HashedPassword == "" {
		return fmt.Errorf("account does not use password login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}
	if err := models.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	return s.users.UpdateUser(ctx, user)
}

// RequestPasswordReset issues a reset token and mails it. Unknown
// emails return success so the endpoint does not leak which addresses
// have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.logger.Debug().Str("email", email).Msg("Password reset requested for unknown email")
		return nil
	}
	if user.AuthProvider != models.AuthProviderLocal {
		return nil
	}

	expiry := time.Now().UTC().Add(resetTokenTTL)
	user.ResetToken = common.NewResetToken()
	user.ResetTokenExpiry = &expiry
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.mailer != nil && s.mailer.Enabled() {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.ResetToken); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to send reset email")
		}
	} else {
		s.logger.Info().Str("user_id", user.ID).Msg("Reset token issued (mail not configured)")
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return fmt.Errorf("reset token is required")
	}
	user, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token")
	}
	if user.ResetTokenExpiry == nil || time.Now().UTC().After(*user.ResetTokenExpiry) {
		return fmt.Errorf("invalid or expired reset token")
	}
	if err := models.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpiry = nil

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Msg("Password reset completed")
	return nil
}

// parseHS256 validates an HS256 token signature and expiry against a
// shared secret and returns its claims.
func parseHS256(token, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret not configured")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

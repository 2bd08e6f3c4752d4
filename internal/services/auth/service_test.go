package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/models"
)

// memUserStorage implements interfaces.UserStorage in memory.
type memUserStorage struct {
	users map[string]*models.User
}

func newMemUserStorage() *memUserStorage {
	return &memUserStorage{users: make(map[string]*models.User)}
}

func (m *memUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if _, exists := m.users[user.ID]; exists {
		return fmt.Errorf("user exists")
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("not found")
}

func (m *memUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memUserStorage) GetUserByOAuthID(ctx context.Context, oauthID string) (*models.User, error) {
	for _, user := range m.users {
		if user.OAuthID == oauthID {
			return user, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memUserStorage) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	for _, user := range m.users {
		if user.ResetToken != "" && user.ResetToken == token {
			return user, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserStorage) DeleteUser(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUserStorage) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	var active []*models.User
	for _, user := range m.users {
		if user.IsActive {
			active = append(active, user)
		}
	}
	return active, nil
}

func (m *memUserStorage) CountUsers(ctx context.Context) (int, error) {
	return len(m.users), nil
}

func newTestAuthService(storage *memUserStorage) *Service {
	config := common.NewDefaultConfig()
	config.App.SecretKey = "test-secret-key"
	return NewService(storage, nil, config, common.GetLogger())
}

func TestRegisterAndLoginLocal(t *testing.T) {
	storage := newMemUserStorage()
	service := newTestAuthService(storage)
	ctx := context.Background()

	user, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "Test Golfer")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.AuthProviderLocal, user.AuthProvider)
	assert.NotEqual(t, "Fairway9Iron", user.HashedPassword)

	// Login by email and by username both work.
	session, err := service.LoginLocal(ctx, "golfer@example.com", "Fairway9Iron")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "bearer", session.TokenType)

	session, err = service.LoginLocal(ctx, "golfer1", "Fairway9Iron")
	require.NoError(t, err)

	// The issued token verifies back to the same user.
	identity, err := service.VerifyToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, models.AuthProviderLocal, identity.Provider)
}

func TestRegisterValidation(t *testing.T) {
	service := newTestAuthService(newMemUserStorage())
	ctx := context.Background()

	_, err := service.Register(ctx, "bad-email", "golfer1", "Fairway9Iron", "")
	assert.Error(t, err)

	_, err = service.Register(ctx, "ok@example.com", "x", "Fairway9Iron", "")
	assert.Error(t, err)

	_, err = service.Register(ctx, "ok@example.com", "golfer1", "weak", "")
	assert.Error(t, err)
}

func TestRegisterDuplicates(t *testing.T) {
	service := newTestAuthService(newMemUserStorage())
	ctx := context.Background()

	_, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	_, err = service.Register(ctx, "golfer@example.com", "other", "Fairway9Iron", "")
	assert.Error(t, err)

	_, err = service.Register(ctx, "other@example.com", "golfer1", "Fairway9Iron", "")
	assert.Error(t, err)
}

func TestLoginLocalBadPassword(t *testing.T) {
	service := newTestAuthService(newMemUserStorage())
	ctx := context.Background()

	_, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	_, err = service.LoginLocal(ctx, "golfer@example.com", "WrongPass1")
	assert.Error(t, err)

	_, err = service.LoginLocal(ctx, "nobody@example.com", "Fairway9Iron")
	assert.Error(t, err)
}

func TestLoginDisabledAccount(t *testing.T) {
	storage := newMemUserStorage()
	service := newTestAuthService(storage)
	ctx := context.Background()

	user, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, storage.UpdateUser(ctx, user))

	_, err = service.LoginLocal(ctx, "golfer@example.com", "Fairway9Iron")
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	service := newTestAuthService(newMemUserStorage())
	ctx := context.Background()

	user, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	assert.Error(t, service.ChangePassword(ctx, user.ID, "WrongPass1", "NewPassword1"))
	assert.Error(t, service.ChangePassword(ctx, user.ID, "Fairway9Iron", "weak"))
	require.NoError(t, service.ChangePassword(ctx, user.ID, "Fairway9Iron", "NewPassword1"))

	_, err = service.LoginLocal(ctx, "golfer@example.com", "NewPassword1")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	storage := newMemUserStorage()
	service := newTestAuthService(storage)
	ctx := context.Background()

	user, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	// Unknown emails do not error, to avoid account enumeration.
	assert.NoError(t, service.RequestPasswordReset(ctx, "nobody@example.com"))

	require.NoError(t, service.RequestPasswordReset(ctx, "golfer@example.com"))
	stored := storage.users[user.ID]
	require.NotEmpty(t, stored.ResetToken)

	assert.Error(t, service.ResetPassword(ctx, "wrong-token", "NewPassword1"))
	require.NoError(t, service.ResetPassword(ctx, stored.ResetToken, "NewPassword1"))

	// Token is single-use.
	assert.Error(t, service.ResetPassword(ctx, stored.ResetToken, "OtherPassword1"))

	_, err = service.LoginLocal(ctx, "golfer@example.com", "NewPassword1")
	assert.NoError(t, err)
}

func TestResetTokenExpiry(t *testing.T) {
	storage := newMemUserStorage()
	service := newTestAuthService(storage)
	ctx := context.Background()

	user, err := service.Register(ctx, "golfer@example.com", "golfer1", "Fairway9Iron", "")
	require.NoError(t, err)

	expired := time.Now().UTC().Add(-time.Minute)
	user.ResetToken = "stale-token"
	user.ResetTokenExpiry = &expired
	require.NoError(t, storage.UpdateUser(ctx, user))

	assert.Error(t, service.ResetPassword(ctx, "stale-token", "NewPassword1"))
}

func TestVerifySupabaseToken(t *testing.T) {
	storage := newMemUserStorage()
	config := common.NewDefaultConfig()
	config.App.SecretKey = "local-secret"
	config.Supabase.URL = "https://proj.supabase.co"
	config.Supabase.JWTSecret = "supabase-jwt-secret"
	service := NewService(storage, nil, config, common.GetLogger())
	ctx := context.Background()

	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("supabase-jwt-secret"))
		require.NoError(t, err)
		return token
	}

	valid := sign(jwt.MapClaims{
		"sub":   "3f6c1c2e-0000-0000-0000-000000000001",
		"email": "supa@example.com",
		"aud":   "authenticated",
		"iss":   "https://proj.supabase.co/auth/v1",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := service.VerifyToken(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "3f6c1c2e-0000-0000-0000-000000000001", identity.ID)
	assert.Equal(t, models.AuthProviderSupabase, identity.Provider)

	// First sight created the application user row.
	created, err := storage.GetUser(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "supa@example.com", created.Email)

	// Wrong audience is rejected.
	badAud := sign(jwt.MapClaims{
		"sub": "x", "aud": "anon",
		"iss": "https://proj.supabase.co/auth/v1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = service.VerifyToken(ctx, badAud)
	assert.Error(t, err)

	// Wrong issuer is rejected.
	badIss := sign(jwt.MapClaims{
		"sub": "x", "aud": "authenticated",
		"iss": "https://evil.example.com/auth/v1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = service.VerifyToken(ctx, badIss)
	assert.Error(t, err)

	// Expired tokens are rejected.
	expired := sign(jwt.MapClaims{
		"sub": "x", "aud": "authenticated",
		"iss": "https://proj.supabase.co/auth/v1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = service.VerifyToken(ctx, expired)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	service := newTestAuthService(newMemUserStorage())
	ctx := context.Background()

	_, err := service.VerifyToken(ctx, "")
	assert.Error(t, err)

	_, err = service.VerifyToken(ctx, "not.a.jwt")
	assert.Error(t, err)
}

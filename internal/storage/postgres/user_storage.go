package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// UserStorage implements the UserStorage interface for Postgres
type UserStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(db *PostgresDB, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

// userColumns is the canonical select list. Optional text columns are
// coalesced so rows predating a migration scan cleanly.
const userColumns = `id, email, COALESCE(username, ''), COALESCE(full_name, ''), COALESCE(hashed_password, ''),
	is_active, is_superuser, auth_provider,
	COALESCE(oauth_id, ''), COALESCE(oauth_access_token, ''), COALESCE(oauth_refresh_token, ''), oauth_token_expiry,
	COALESCE(profile_picture, ''), handicap, preferred_units,
	COALESCE(trackman_username, ''), COALESCE(trackman_password, ''),
	COALESCE(arccos_email, ''), COALESCE(arccos_password, ''),
	COALESCE(skytrak_username, ''), COALESCE(skytrak_password, ''),
	COALESCE(reset_token, ''), reset_token_expiry,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.FullName, &user.HashedPassword,
		&user.IsActive, &user.IsSuperuser, &user.AuthProvider,
		&user.OAuthID, &user.OAuthAccessToken, &user.OAuthRefreshToken, &user.OAuthTokenExpiry,
		&user.ProfilePicture, &user.Handicap, &user.PreferredUnits,
		&user.TrackmanUsername, &user.TrackmanPassword,
		&user.ArccosEmail, &user.ArccosPassword,
		&user.SkyTrakUsername, &user.SkyTrakPassword,
		&user.ResetToken, &user.ResetTokenExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// nullable maps "" to NULL so unique indexes ignore unset values.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateUser inserts a new user
func (s *UserStorage) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
	INSERT INTO users (
		id, email, username, full_name, hashed_password,
		is_active, is_superuser, auth_provider,
		oauth_id, oauth_access_token, oauth_refresh_token, oauth_token_expiry,
		profile_picture, handicap, preferred_units,
		trackman_username, trackman_password, arccos_email, arccos_password,
		skytrak_username, skytrak_password, reset_token, reset_token_expiry,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err := s.db.Pool().Exec(ctx, query,
		user.ID, user.Email, nullable(user.Username), nullable(user.FullName), nullable(user.HashedPassword),
		user.IsActive, user.IsSuperuser, user.AuthProvider,
		nullable(user.OAuthID), nullable(user.OAuthAccessToken), nullable(user.OAuthRefreshToken), user.OAuthTokenExpiry,
		nullable(user.ProfilePicture), user.Handicap, user.PreferredUnits,
		nullable(user.TrackmanUsername), nullable(user.TrackmanPassword),
		nullable(user.ArccosEmail), nullable(user.ArccosPassword),
		nullable(user.SkyTrakUsername), nullable(user.SkyTrakPassword),
		nullable(user.ResetToken), user.ResetTokenExpiry,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug().Str("user_id", user.ID).Str("provider", user.AuthProvider).Msg("Created user")
	return nil
}

// GetUser retrieves a user by ID
func (s *UserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.Pool().QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email (case insensitive)
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(s.db.Pool().QueryRow(ctx, query, email))
}

// GetUserByUsername retrieves a user by username
func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(s.db.Pool().QueryRow(ctx, query, username))
}

// GetUserByOAuthID retrieves a user by OAuth subject ID
func (s *UserStorage) GetUserByOAuthID(ctx context.Context, oauthID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE oauth_id = $1`
	return scanUser(s.db.Pool().QueryRow(ctx, query, oauthID))
}

// GetUserByResetToken retrieves a user by an unexpired password reset token
func (s *UserStorage) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_token = $1 AND reset_token_expiry > now()`
	return scanUser(s.db.Pool().QueryRow(ctx, query, token))
}

// UpdateUser updates all mutable fields of a user
func (s *UserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE users SET
		email = $2, username = $3, full_name = $4, hashed_password = $5,
		is_active = $6, is_superuser = $7, auth_provider = $8,
		oauth_id = $9, oauth_access_token = $10, oauth_refresh_token = $11, oauth_token_expiry = $12,
		profile_picture = $13, handicap = $14, preferred_units = $15,
		trackman_username = $16, trackman_password = $17, arccos_email = $18, arccos_password = $19,
		skytrak_username = $20, skytrak_password = $21, reset_token = $22, reset_token_expiry = $23,
		updated_at = $24
	WHERE id = $1`

	tag, err := s.db.Pool().Exec(ctx, query,
		user.ID,
		user.Email, nullable(user.Username), nullable(user.FullName), nullable(user.HashedPassword),
		user.IsActive, user.IsSuperuser, user.AuthProvider,
		nullable(user.OAuthID), nullable(user.OAuthAccessToken), nullable(user.OAuthRefreshToken), user.OAuthTokenExpiry,
		nullable(user.ProfilePicture), user.Handicap, user.PreferredUnits,
		nullable(user.TrackmanUsername), nullable(user.TrackmanPassword),
		nullable(user.ArccosEmail), nullable(user.ArccosPassword),
		nullable(user.SkyTrakUsername), nullable(user.SkyTrakPassword),
		nullable(user.ResetToken), user.ResetTokenExpiry,
		user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("Updated user")
	return nil
}

// DeleteUser deletes a user and cascades to rounds, clubs and preferences
func (s *UserStorage) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.db.Pool().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Str("user_id", id).Msg("Deleted user")
	return nil
}

// ListActiveUsers returns all active users ordered by creation time
func (s *UserStorage) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE ORDER BY created_at`

	rows, err := s.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users
func (s *UserStorage) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// -----------------------------------------------------------------------
// Last Modified: Tuesday, 18th August 2026 9:42:11 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/golfstats/internal/models"
)

// UserStorage - interface for user account persistence
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByOAuthID(ctx context.Context, oauthID string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListActiveUsers(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// RoundStorage - interface for golf round persistence. SaveScrapedRound
// upserts on (user_id, source_system, external_id) so re-scraped sessions
// update in place instead of duplicating.
type RoundStorage interface {
	// Round operations
	CreateRound(ctx context.Context, round *models.Round) error
	SaveScrapedRound(ctx context.Context, round *models.Round) (created bool, err error)
	GetRound(ctx context.Context, userID string, id int64) (*models.Round, error)
	ListRounds(ctx context.Context, userID string, opts *RoundListOptions) ([]*models.Round, error)
	UpdateRound(ctx context.Context, round *models.Round) error
	DeleteRound(ctx context.Context, userID string, id int64) error
	CountRounds(ctx context.Context, userID string) (int, error)

	// Shot operations
	AddShot(ctx context.Context, userID string, roundID int64, shot *models.Shot) error

	// Stats operations
	GetRoundsSince(ctx context.Context, userID string, since time.Time) ([]*models.Round, error)
}

// RoundListOptions controls round listing.
type RoundListOptions struct {
	Limit  int
	Offset int
	Source string // Filter by source system; empty for all
}

// ClubStorage - interface for bag/club persistence
type ClubStorage interface {
	CreateClub(ctx context.Context, club *models.Club) error
	GetClub(ctx context.Context, userID string, id int64) (*models.Club, error)
	ListClubs(ctx context.Context, userID string) ([]*models.Club, error)
	UpdateClub(ctx context.Context, club *models.Club) error
	DeleteClub(ctx context.Context, userID string, id int64) error
}

// PreferenceStorage - interface for user preference persistence
type PreferenceStorage interface {
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.Preferences) error
}

// ETLRunStorage - interface for ETL run history
type ETLRunStorage interface {
	RecordRun(ctx context.Context, run *models.ETLRun) error
	UpdateRun(ctx context.Context, run *models.ETLRun) error
	GetRun(ctx context.Context, id string) (*models.ETLRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.ETLRun, error)
}

// StorageManager - composite interface for all relational storage
type StorageManager interface {
	UserStorage() UserStorage
	RoundStorage() RoundStorage
	ClubStorage() ClubStorage
	PreferenceStorage() PreferenceStorage
	ETLRunStorage() ETLRunStorage

	// Ping verifies database connectivity for health checks
	Ping(ctx context.Context) error
	Close() error
}

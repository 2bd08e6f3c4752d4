package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// PreferenceStorage implements the PreferenceStorage interface for Postgres
type PreferenceStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewPreferenceStorage creates a new PreferenceStorage instance
func NewPreferenceStorage(db *PostgresDB, logger arbor.ILogger) interfaces.PreferenceStorage {
	return &PreferenceStorage{
		db:     db,
		logger: logger,
	}
}

// GetPreferences returns a user's preferences, falling back to defaults
// when none are saved yet.
func (s *PreferenceStorage) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	prefs := &models.Preferences{UserID: userID}
	var dashboard []byte

	query := `SELECT preferred_units, handicap, dashboard, updated_at
		FROM user_preferences WHERE user_id = $1`

	err := s.db.Pool().QueryRow(ctx, query, userID).Scan(
		&prefs.PreferredUnits, &prefs.Handicap, &dashboard, &prefs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	if len(dashboard) > 0 {
		if err := json.Unmarshal(dashboard, &prefs.Dashboard); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dashboard: %w", err)
		}
	}
	return prefs, nil
}

// UpsertPreferences saves a user's preferences
func (s *PreferenceStorage) UpsertPreferences(ctx context.Context, prefs *models.Preferences) error {
	prefs.UpdatedAt = time.Now().UTC()
	if prefs.PreferredUnits == "" {
		prefs.PreferredUnits = models.UnitsYards
	}

	var dashboard []byte
	if prefs.Dashboard != nil {
		var err error
		dashboard, err = json.Marshal(prefs.Dashboard)
		if err != nil {
			return fmt.Errorf("failed to marshal dashboard: %w", err)
		}
	}

	query := `
	INSERT INTO user_preferences (user_id, preferred_units, handicap, dashboard, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO UPDATE SET
		preferred_units = EXCLUDED.preferred_units,
		handicap = EXCLUDED.handicap,
		dashboard = EXCLUDED.dashboard,
		updated_at = EXCLUDED.updated_at`

	_, err := s.db.Pool().Exec(ctx, query,
		prefs.UserID, prefs.PreferredUnits, prefs.Handicap, dashboard, prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.Debug().Str("user_id", prefs.UserID).Msg("Saved preferences")
	return nil
}

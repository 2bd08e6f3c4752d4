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

// ClubStorage implements the ClubStorage interface for Postgres
type ClubStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewClubStorage creates a new ClubStorage instance
func NewClubStorage(db *PostgresDB, logger arbor.ILogger) interfaces.ClubStorage {
	return &ClubStorage{
		db:     db,
		logger: logger,
	}
}

const clubColumns = `id, user_id, name, type, COALESCE(brand, ''), COALESCE(model, ''),
	loft, avg_distance, max_distance, is_active, COALESCE(notes, ''), created_at, updated_at`

func scanClub(row pgx.Row) (*models.Club, error) {
	club := &models.Club{}
	err := row.Scan(
		&club.ID, &club.UserID, &club.Name, &club.Type, &club.Brand, &club.Model,
		&club.Loft, &club.AvgDistance, &club.MaxDistance, &club.IsActive, &club.Notes,
		&club.CreatedAt, &club.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan club: %w", err)
	}
	return club, nil
}

// CreateClub inserts a club into a user's bag
func (s *ClubStorage) CreateClub(ctx context.Context, club *models.Club) error {
	now := time.Now().UTC()
	club.CreatedAt = now
	club.UpdatedAt = now

	query := `
	INSERT INTO clubs (user_id, name, type, brand, model, loft, avg_distance, max_distance, is_active, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`

	err := s.db.Pool().QueryRow(ctx, query,
		club.UserID, club.Name, club.Type, nullable(club.Brand), nullable(club.Model),
		club.Loft, club.AvgDistance, club.MaxDistance, club.IsActive, nullable(club.Notes),
		club.CreatedAt, club.UpdatedAt).Scan(&club.ID)
	if err != nil {
		return fmt.Errorf("failed to create club: %w", err)
	}

	s.logger.Debug().Int64("club_id", club.ID).Str("name", club.Name).Msg("Created club")
	return nil
}

// GetClub retrieves a club by ID scoped to its owner
func (s *ClubStorage) GetClub(ctx context.Context, userID string, id int64) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1 AND user_id = $2`
	return scanClub(s.db.Pool().QueryRow(ctx, query, id, userID))
}

// ListClubs returns a user's bag ordered by club type then name
func (s *ClubStorage) ListClubs(ctx context.Context, userID string) ([]*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE user_id = $1
		ORDER BY CASE type
			WHEN 'driver' THEN 0 WHEN 'wood' THEN 1 WHEN 'hybrid' THEN 2
			WHEN 'iron' THEN 3 WHEN 'wedge' THEN 4 ELSE 5
		END, name`

	rows, err := s.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*models.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, club)
	}
	return clubs, rows.Err()
}

// UpdateClub updates a club scoped to its owner
func (s *ClubStorage) UpdateClub(ctx context.Context, club *models.Club) error {
	club.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE clubs SET
		name = $3, type = $4, brand = $5, model = $6, loft = $7,
		avg_distance = $8, max_distance = $9, is_active = $10, notes = $11, updated_at = $12
	WHERE id = $1 AND user_id = $2`

	tag, err := s.db.Pool().Exec(ctx, query,
		club.ID, club.UserID,
		club.Name, club.Type, nullable(club.Brand), nullable(club.Model), club.Loft,
		club.AvgDistance, club.MaxDistance, club.IsActive, nullable(club.Notes), club.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Int64("club_id", club.ID).Msg("Updated club")
	return nil
}

// DeleteClub deletes a club scoped to its owner
func (s *ClubStorage) DeleteClub(ctx context.Context, userID string, id int64) error {
	tag, err := s.db.Pool().Exec(ctx, `DELETE FROM clubs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete club: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Int64("club_id", id).Msg("Deleted club")
	return nil
}

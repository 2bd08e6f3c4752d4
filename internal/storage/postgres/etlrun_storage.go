package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// ETLRunStorage implements the ETLRunStorage interface for Postgres
type ETLRunStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewETLRunStorage creates a new ETLRunStorage instance
func NewETLRunStorage(db *PostgresDB, logger arbor.ILogger) interfaces.ETLRunStorage {
	return &ETLRunStorage{
		db:     db,
		logger: logger,
	}
}

func marshalRunJSON(run *models.ETLRun) (counts, errs []byte, err error) {
	if run.SourceCounts != nil {
		counts, err = json.Marshal(run.SourceCounts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal source counts: %w", err)
		}
	}
	if run.Errors != nil {
		errs, err = json.Marshal(run.Errors)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal errors: %w", err)
		}
	}
	return counts, errs, nil
}

// RecordRun inserts a new ETL run record
func (s *ETLRunStorage) RecordRun(ctx context.Context, run *models.ETLRun) error {
	counts, errs, err := marshalRunJSON(run)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO etl_runs (id, trigger_type, status, started_at, completed_at,
		users_processed, users_skipped, rounds_created, rounds_updated, source_counts, errors)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = s.db.Pool().Exec(ctx, query,
		run.ID, run.Trigger, run.Status, run.StartedAt, run.CompletedAt,
		run.UsersProcessed, run.UsersSkipped, run.RoundsCreated, run.RoundsUpdated, counts, errs)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Debug().Str("run_id", run.ID).Str("trigger", run.Trigger).Msg("Recorded ETL run")
	return nil
}

// UpdateRun updates an ETL run's progress and outcome
func (s *ETLRunStorage) UpdateRun(ctx context.Context, run *models.ETLRun) error {
	counts, errs, err := marshalRunJSON(run)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_runs SET
		status = $2, completed_at = $3, users_processed = $4, users_skipped = $5,
		rounds_created = $6, rounds_updated = $7, source_counts = $8, errors = $9
	WHERE id = $1`

	tag, err := s.db.Pool().Exec(ctx, query,
		run.ID, run.Status, run.CompletedAt, run.UsersProcessed, run.UsersSkipped,
		run.RoundsCreated, run.RoundsUpdated, counts, errs)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*models.ETLRun, error) {
	run := &models.ETLRun{}
	var counts, errs []byte

	err := row.Scan(&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.UsersProcessed, &run.UsersSkipped, &run.RoundsCreated, &run.RoundsUpdated, &counts, &errs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &run.SourceCounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source counts: %w", err)
		}
	}
	if len(errs) > 0 {
		if err := json.Unmarshal(errs, &run.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}
	}
	return run, nil
}

const runColumns = `id, trigger_type, status, started_at, completed_at,
	users_processed, users_skipped, rounds_created, rounds_updated, source_counts, errors`

// GetRun retrieves an ETL run by ID
func (s *ETLRunStorage) GetRun(ctx context.Context, id string) (*models.ETLRun, error) {
	query := `SELECT ` + runColumns + ` FROM etl_runs WHERE id = $1`
	return scanRun(s.db.Pool().QueryRow(ctx, query, id))
}

// ListRuns returns the most recent ETL runs, newest first
func (s *ETLRunStorage) ListRuns(ctx context.Context, limit int) ([]*models.ETLRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM etl_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := s.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ETLRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

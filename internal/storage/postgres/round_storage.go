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

// RoundStorage implements the RoundStorage interface for Postgres
type RoundStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewRoundStorage creates a new RoundStorage instance
func NewRoundStorage(db *PostgresDB, logger arbor.ILogger) interfaces.RoundStorage {
	return &RoundStorage{
		db:     db,
		logger: logger,
	}
}

const roundColumns = `id, user_id, date, course_name, COALESCE(course_location, ''), COALESCE(tee_color, ''),
	total_score, total_par, front_nine_score, back_nine_score,
	COALESCE(weather, ''), COALESCE(notes, ''), source_system, COALESCE(external_id, ''),
	created_at, updated_at`

func scanRound(row pgx.Row) (*models.Round, error) {
	round := &models.Round{}
	err := row.Scan(
		&round.ID, &round.UserID, &round.Date, &round.CourseName, &round.CourseLocation, &round.TeeColor,
		&round.TotalScore, &round.TotalPar, &round.FrontNine, &round.BackNine,
		&round.Weather, &round.Notes, &round.SourceSystem, &round.ExternalID,
		&round.CreatedAt, &round.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return round, nil
}

// CreateRound inserts a round with its holes, shots and stats in one
// transaction. Used for manually entered rounds.
func (s *RoundStorage) CreateRound(ctx context.Context, round *models.Round) error {
	if round.SourceSystem == "" {
		round.SourceSystem = models.SourceManual
	}
	now := time.Now().UTC()
	round.CreatedAt = now
	round.UpdatedAt = now

	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO golf_rounds (
		user_id, date, course_name, course_location, tee_color,
		total_score, total_par, front_nine_score, back_nine_score,
		weather, notes, source_system, external_id, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id`

	err = tx.QueryRow(ctx, query,
		round.UserID, round.Date, round.CourseName, nullable(round.CourseLocation), nullable(round.TeeColor),
		round.TotalScore, round.TotalPar, round.FrontNine, round.BackNine,
		nullable(round.Weather), nullable(round.Notes), round.SourceSystem, nullable(round.ExternalID),
		round.CreatedAt, round.UpdatedAt).Scan(&round.ID)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	if err := s.insertChildren(ctx, tx, round); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit round: %w", err)
	}

	s.logger.Debug().Int64("round_id", round.ID).Str("user_id", round.UserID).Msg("Created round")
	return nil
}

// SaveScrapedRound upserts a scraped round keyed on
// (user_id, source_system, external_id). On update the previous holes,
// shots and stats are replaced with the freshly scraped ones. Returns
// whether a new round was created.
func (s *RoundStorage) SaveScrapedRound(ctx context.Context, round *models.Round) (bool, error) {
	if round.ExternalID == "" {
		return false, fmt.Errorf("scraped round requires an external id")
	}
	now := time.Now().UTC()
	round.CreatedAt = now
	round.UpdatedAt = now

	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO golf_rounds (
		user_id, date, course_name, course_location, tee_color,
		total_score, total_par, front_nine_score, back_nine_score,
		weather, notes, source_system, external_id, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (user_id, source_system, external_id) WHERE external_id IS NOT NULL
	DO UPDATE SET
		date = EXCLUDED.date,
		course_name = EXCLUDED.course_name,
		course_location = EXCLUDED.course_location,
		tee_color = EXCLUDED.tee_color,
		total_score = EXCLUDED.total_score,
		total_par = EXCLUDED.total_par,
		front_nine_score = EXCLUDED.front_nine_score,
		back_nine_score = EXCLUDED.back_nine_score,
		weather = EXCLUDED.weather,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at
	RETURNING id, (xmax = 0) AS inserted`

	var created bool
	err = tx.QueryRow(ctx, query,
		round.UserID, round.Date, round.CourseName, nullable(round.CourseLocation), nullable(round.TeeColor),
		round.TotalScore, round.TotalPar, round.FrontNine, round.BackNine,
		nullable(round.Weather), nullable(round.Notes), round.SourceSystem, round.ExternalID,
		round.CreatedAt, round.UpdatedAt).Scan(&round.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert round: %w", err)
	}

	if !created {
		// Replace children with the latest scrape
		if _, err := tx.Exec(ctx, `DELETE FROM golf_holes WHERE round_id = $1`, round.ID); err != nil {
			return false, fmt.Errorf("failed to clear holes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM round_stats WHERE round_id = $1`, round.ID); err != nil {
			return false, fmt.Errorf("failed to clear stats: %w", err)
		}
	}

	if err := s.insertChildren(ctx, tx, round); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit round: %w", err)
	}

	s.logger.Debug().
		Int64("round_id", round.ID).
		Str("source", round.SourceSystem).
		Str("external_id", round.ExternalID).
		Bool("created", created).
		Msg("Saved scraped round")
	return created, nil
}

// insertChildren inserts holes, shots and stats for a round within tx.
func (s *RoundStorage) insertChildren(ctx context.Context, tx pgx.Tx, round *models.Round) error {
	for i := range round.Holes {
		hole := &round.Holes[i]
		hole.RoundID = round.ID

		err := tx.QueryRow(ctx, `
			INSERT INTO golf_holes (round_id, hole_number, par, score, fairway_hit, green_in_regulation, putts, distance_yards, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			hole.RoundID, hole.Number, hole.Par, hole.Score, hole.FairwayHit, hole.GIR,
			hole.Putts, hole.DistanceYards, nullable(hole.Notes)).Scan(&hole.ID)
		if err != nil {
			return fmt.Errorf("failed to insert hole %d: %w", hole.Number, err)
		}

		for j := range hole.Shots {
			shot := &hole.Shots[j]
			shot.HoleID = hole.ID
			shot.RoundID = round.ID
			if err := insertShot(ctx, tx, shot); err != nil {
				return err
			}
		}
	}

	if round.Stats != nil {
		round.Stats.RoundID = round.ID
		if err := upsertStats(ctx, tx, round.Stats); err != nil {
			return err
		}
	}
	return nil
}

func insertShot(ctx context.Context, tx pgx.Tx, shot *models.Shot) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO golf_shots (
			hole_id, round_id, shot_number, club, from_location, to_location, is_penalty,
			distance, ball_speed, club_head_speed, smash_factor, launch_angle,
			spin_rate, spin_axis, carry_distance, total_distance, side_deviation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		shot.HoleID, shot.RoundID, shot.Number, nullable(shot.Club),
		nullable(shot.FromLocation), nullable(shot.ToLocation), shot.IsPenalty,
		shot.Distance, shot.BallSpeed, shot.ClubHeadSpeed, shot.SmashFactor, shot.LaunchAngle,
		shot.SpinRate, shot.SpinAxis, shot.CarryDistance, shot.TotalDistance, shot.SideDeviation).Scan(&shot.ID)
	if err != nil {
		return fmt.Errorf("failed to insert shot %d: %w", shot.Number, err)
	}
	return nil
}

func upsertStats(ctx context.Context, tx pgx.Tx, stats *models.RoundStats) error {
	var extended []byte
	if stats.ExtendedStats != nil {
		var err error
		extended, err = json.Marshal(stats.ExtendedStats)
		if err != nil {
			return fmt.Errorf("failed to marshal extended stats: %w", err)
		}
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO round_stats (
			round_id, score_to_par, fairways_hit, fairways_total, greens_in_regulation,
			total_putts, putts_per_hole, sand_saves, sand_save_attempts, penalties,
			average_drive_distance, scrambling, up_and_downs, three_putts, extended_stats
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (round_id) DO UPDATE SET
			score_to_par = EXCLUDED.score_to_par,
			fairways_hit = EXCLUDED.fairways_hit,
			fairways_total = EXCLUDED.fairways_total,
			greens_in_regulation = EXCLUDED.greens_in_regulation,
			total_putts = EXCLUDED.total_putts,
			putts_per_hole = EXCLUDED.putts_per_hole,
			sand_saves = EXCLUDED.sand_saves,
			sand_save_attempts = EXCLUDED.sand_save_attempts,
			penalties = EXCLUDED.penalties,
			average_drive_distance = EXCLUDED.average_drive_distance,
			scrambling = EXCLUDED.scrambling,
			up_and_downs = EXCLUDED.up_and_downs,
			three_putts = EXCLUDED.three_putts,
			extended_stats = EXCLUDED.extended_stats
		RETURNING id`,
		stats.RoundID, stats.ScoreToPar, stats.FairwaysHit, stats.FairwaysTotal, stats.GreensInReg,
		stats.TotalPutts, stats.PuttsPerHole, stats.SandSaves, stats.SandSaveAtts, stats.Penalties,
		stats.AvgDriveDist, stats.Scrambling, stats.UpAndDowns, stats.ThreePutts, extended).Scan(&stats.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert round stats: %w", err)
	}
	return nil
}

// GetRound retrieves a round with holes, shots and stats. Rounds owned by
// other users are reported as not found.
func (s *RoundStorage) GetRound(ctx context.Context, userID string, id int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM golf_rounds WHERE id = $1 AND user_id = $2`
	round, err := scanRound(s.db.Pool().QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, []*models.Round{round}); err != nil {
		return nil, err
	}
	return round, nil
}

// ListRounds returns round summaries (no holes or shots) for a user,
// newest first.
func (s *RoundStorage) ListRounds(ctx context.Context, userID string, opts *interfaces.RoundListOptions) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM golf_rounds WHERE user_id = $1`
	args := []interface{}{userID}

	if opts != nil && opts.Source != "" {
		args = append(args, opts.Source)
		query += fmt.Sprintf(" AND source_system = $%d", len(args))
	}
	query += " ORDER BY date DESC, id DESC"
	if opts != nil && opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts != nil && opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

// UpdateRound updates round fields. Holes and shots are not touched.
func (s *RoundStorage) UpdateRound(ctx context.Context, round *models.Round) error {
	round.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE golf_rounds SET
		date = $3, course_name = $4, course_location = $5, tee_color = $6,
		total_score = $7, total_par = $8, front_nine_score = $9, back_nine_score = $10,
		weather = $11, notes = $12, updated_at = $13
	WHERE id = $1 AND user_id = $2`

	tag, err := s.db.Pool().Exec(ctx, query,
		round.ID, round.UserID,
		round.Date, round.CourseName, nullable(round.CourseLocation), nullable(round.TeeColor),
		round.TotalScore, round.TotalPar, round.FrontNine, round.BackNine,
		nullable(round.Weather), nullable(round.Notes), round.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Int64("round_id", round.ID).Msg("Updated round")
	return nil
}

// DeleteRound deletes a round; holes, shots and stats cascade
func (s *RoundStorage) DeleteRound(ctx context.Context, userID string, id int64) error {
	tag, err := s.db.Pool().Exec(ctx, `DELETE FROM golf_rounds WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Int64("round_id", id).Str("user_id", userID).Msg("Deleted round")
	return nil
}

// CountRounds returns the number of rounds for a user
func (s *RoundStorage) CountRounds(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM golf_rounds WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return count, nil
}

// AddShot appends a shot to a round. When the shot carries no hole ID it is
// attached to the round's last hole; a virtual hole is created for rounds
// without any.
func (s *RoundStorage) AddShot(ctx context.Context, userID string, roundID int64, shot *models.Shot) error {
	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned int64
	err = tx.QueryRow(ctx, `SELECT id FROM golf_rounds WHERE id = $1 AND user_id = $2`, roundID, userID).Scan(&owned)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check round: %w", err)
	}

	if shot.HoleID != 0 {
		var holeRound int64
		err = tx.QueryRow(ctx, `SELECT round_id FROM golf_holes WHERE id = $1`, shot.HoleID).Scan(&holeRound)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && holeRound != roundID) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check hole: %w", err)
		}
	} else {
		err = tx.QueryRow(ctx, `
			SELECT id FROM golf_holes WHERE round_id = $1 ORDER BY hole_number DESC LIMIT 1`, roundID).Scan(&shot.HoleID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `
				INSERT INTO golf_holes (round_id, hole_number, par) VALUES ($1, 1, 0)
				RETURNING id`, roundID).Scan(&shot.HoleID)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve hole: %w", err)
		}
	}

	if shot.Number == 0 {
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(shot_number), 0) + 1 FROM golf_shots WHERE hole_id = $1`, shot.HoleID).Scan(&shot.Number)
		if err != nil {
			return fmt.Errorf("failed to number shot: %w", err)
		}
	}

	shot.RoundID = roundID
	if err := insertShot(ctx, tx, shot); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit shot: %w", err)
	}

	s.logger.Debug().Int64("round_id", roundID).Int64("shot_id", shot.ID).Msg("Added shot")
	return nil
}

// GetRoundsSince returns a user's rounds on or after the given time with
// holes, shots and stats loaded. Used by report generation.
func (s *RoundStorage) GetRoundsSince(ctx context.Context, userID string, since time.Time) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM golf_rounds
		WHERE user_id = $1 AND date >= $2 ORDER BY date`

	rows, err := s.db.Pool().Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// loadChildren populates holes, shots and stats for the given rounds.
func (s *RoundStorage) loadChildren(ctx context.Context, rounds []*models.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(rounds))
	byID := make(map[int64]*models.Round, len(rounds))
	for _, r := range rounds {
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}

	holeRows, err := s.db.Pool().Query(ctx, `
		SELECT id, round_id, hole_number, par, score, fairway_hit, green_in_regulation, putts, distance_yards, COALESCE(notes, '')
		FROM golf_holes WHERE round_id = ANY($1) ORDER BY round_id, hole_number`, ids)
	if err != nil {
		return fmt.Errorf("failed to query holes: %w", err)
	}
	defer holeRows.Close()

	holeIndex := make(map[int64]int) // hole ID -> index within its round's Holes
	for holeRows.Next() {
		var hole models.Hole
		err := holeRows.Scan(&hole.ID, &hole.RoundID, &hole.Number, &hole.Par, &hole.Score,
			&hole.FairwayHit, &hole.GIR, &hole.Putts, &hole.DistanceYards, &hole.Notes)
		if err != nil {
			return fmt.Errorf("failed to scan hole: %w", err)
		}
		round := byID[hole.RoundID]
		if round == nil {
			continue
		}
		round.Holes = append(round.Holes, hole)
		holeIndex[hole.ID] = len(round.Holes) - 1
	}
	if err := holeRows.Err(); err != nil {
		return err
	}

	shotRows, err := s.db.Pool().Query(ctx, `
		SELECT id, hole_id, round_id, shot_number, COALESCE(club, ''), COALESCE(from_location, ''), COALESCE(to_location, ''), is_penalty,
			distance, ball_speed, club_head_speed, smash_factor, launch_angle,
			spin_rate, spin_axis, carry_distance, total_distance, side_deviation
		FROM golf_shots WHERE round_id = ANY($1) ORDER BY hole_id, shot_number`, ids)
	if err != nil {
		return fmt.Errorf("failed to query shots: %w", err)
	}
	defer shotRows.Close()

	for shotRows.Next() {
		var shot models.Shot
		err := shotRows.Scan(&shot.ID, &shot.HoleID, &shot.RoundID, &shot.Number,
			&shot.Club, &shot.FromLocation, &shot.ToLocation, &shot.IsPenalty,
			&shot.Distance, &shot.BallSpeed, &shot.ClubHeadSpeed, &shot.SmashFactor, &shot.LaunchAngle,
			&shot.SpinRate, &shot.SpinAxis, &shot.CarryDistance, &shot.TotalDistance, &shot.SideDeviation)
		if err != nil {
			return fmt.Errorf("failed to scan shot: %w", err)
		}
		round := byID[shot.RoundID]
		idx, ok := holeIndex[shot.HoleID]
		if round == nil || !ok {
			continue
		}
		round.Holes[idx].Shots = append(round.Holes[idx].Shots, shot)
	}
	if err := shotRows.Err(); err != nil {
		return err
	}

	statRows, err := s.db.Pool().Query(ctx, `
		SELECT id, round_id, score_to_par, fairways_hit, fairways_total, greens_in_regulation,
			total_putts, putts_per_hole, sand_saves, sand_save_attempts, penalties,
			average_drive_distance, scrambling, up_and_downs, three_putts, extended_stats
		FROM round_stats WHERE round_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	defer statRows.Close()

	for statRows.Next() {
		stats := &models.RoundStats{}
		var extended []byte
		err := statRows.Scan(&stats.ID, &stats.RoundID, &stats.ScoreToPar, &stats.FairwaysHit, &stats.FairwaysTotal,
			&stats.GreensInReg, &stats.TotalPutts, &stats.PuttsPerHole, &stats.SandSaves, &stats.SandSaveAtts,
			&stats.Penalties, &stats.AvgDriveDist, &stats.Scrambling, &stats.UpAndDowns, &stats.ThreePutts, &extended)
		if err != nil {
			return fmt.Errorf("failed to scan stats: %w", err)
		}
		if len(extended) > 0 {
			if err := json.Unmarshal(extended, &stats.ExtendedStats); err != nil {
				return fmt.Errorf("failed to unmarshal extended stats: %w", err)
			}
		}
		if round := byID[stats.RoundID]; round != nil {
			round.Stats = stats
		}
	}
	return statRows.Err()
}

package postgres

import "context"

const schemaSQL = `
-- Application accounts. Supabase-authenticated users carry the UUID from
-- auth.users so rows line up with auth.uid() under RLS; local and Google
-- accounts get generated UUIDs.
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	username TEXT UNIQUE,
	full_name TEXT,
	hashed_password TEXT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
	auth_provider TEXT NOT NULL DEFAULT 'supabase',
	oauth_id TEXT,
	oauth_access_token TEXT,
	oauth_refresh_token TEXT,
	oauth_token_expiry TIMESTAMPTZ,
	profile_picture TEXT,
	handicap DOUBLE PRECISION,
	preferred_units TEXT NOT NULL DEFAULT 'yards',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_oauth ON users(oauth_id) WHERE oauth_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_users_active ON users(is_active);

-- Rounds. Range sessions from launch monitors are rounds with a single
-- virtual hole. external_id is the vendor session/round ID and forms the
-- dedupe key with user_id and source_system.
CREATE TABLE IF NOT EXISTS golf_rounds (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date TIMESTAMPTZ NOT NULL,
	course_name TEXT NOT NULL,
	course_location TEXT,
	tee_color TEXT,
	total_score INTEGER,
	total_par INTEGER,
	front_nine_score INTEGER,
	back_nine_score INTEGER,
	weather TEXT,
	notes TEXT,
	source_system TEXT NOT NULL DEFAULT 'manual',
	external_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rounds_user_date ON golf_rounds(user_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_rounds_source ON golf_rounds(source_system);
CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_dedupe
	ON golf_rounds(user_id, source_system, external_id)
	WHERE external_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS golf_holes (
	id BIGSERIAL PRIMARY KEY,
	round_id BIGINT NOT NULL REFERENCES golf_rounds(id) ON DELETE CASCADE,
	hole_number INTEGER NOT NULL,
	par INTEGER NOT NULL DEFAULT 0,
	score INTEGER,
	fairway_hit BOOLEAN,
	green_in_regulation BOOLEAN,
	putts INTEGER,
	distance_yards INTEGER,
	notes TEXT,
	UNIQUE (round_id, hole_number)
);

CREATE INDEX IF NOT EXISTS idx_holes_round ON golf_holes(round_id);

CREATE TABLE IF NOT EXISTS golf_shots (
	id BIGSERIAL PRIMARY KEY,
	hole_id BIGINT NOT NULL REFERENCES golf_holes(id) ON DELETE CASCADE,
	round_id BIGINT NOT NULL REFERENCES golf_rounds(id) ON DELETE CASCADE,
	shot_number INTEGER NOT NULL,
	club TEXT,
	from_location TEXT,
	to_location TEXT,
	is_penalty BOOLEAN NOT NULL DEFAULT FALSE,
	distance DOUBLE PRECISION,
	ball_speed DOUBLE PRECISION,
	club_head_speed DOUBLE PRECISION,
	smash_factor DOUBLE PRECISION,
	launch_angle DOUBLE PRECISION,
	spin_rate DOUBLE PRECISION,
	spin_axis DOUBLE PRECISION,
	carry_distance DOUBLE PRECISION,
	total_distance DOUBLE PRECISION,
	side_deviation DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_shots_round ON golf_shots(round_id);
CREATE INDEX IF NOT EXISTS idx_shots_hole ON golf_shots(hole_id);

CREATE TABLE IF NOT EXISTS round_stats (
	id BIGSERIAL PRIMARY KEY,
	round_id BIGINT NOT NULL UNIQUE REFERENCES golf_rounds(id) ON DELETE CASCADE,
	score_to_par INTEGER,
	fairways_hit INTEGER,
	fairways_total INTEGER,
	greens_in_regulation INTEGER,
	total_putts INTEGER,
	putts_per_hole DOUBLE PRECISION,
	sand_saves INTEGER,
	sand_save_attempts INTEGER,
	penalties INTEGER,
	average_drive_distance DOUBLE PRECISION,
	scrambling DOUBLE PRECISION,
	up_and_downs INTEGER,
	three_putts INTEGER,
	extended_stats JSONB
);

-- Bag contents
CREATE TABLE IF NOT EXISTS clubs (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	brand TEXT,
	model TEXT,
	loft DOUBLE PRECISION,
	avg_distance DOUBLE PRECISION,
	max_distance DOUBLE PRECISION,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_clubs_user ON clubs(user_id, is_active);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	preferred_units TEXT NOT NULL DEFAULT 'yards',
	handicap DOUBLE PRECISION,
	dashboard JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- ETL run history
CREATE TABLE IF NOT EXISTS etl_runs (
	id TEXT PRIMARY KEY,
	trigger_type TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	users_processed INTEGER NOT NULL DEFAULT 0,
	users_skipped INTEGER NOT NULL DEFAULT 0,
	rounds_created INTEGER NOT NULL DEFAULT 0,
	rounds_updated INTEGER NOT NULL DEFAULT 0,
	source_counts JSONB,
	errors JSONB
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_started ON etl_runs(started_at DESC);
`

// InitSchema initializes the database schema
func (p *PostgresDB) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return err
	}
	p.logger.Info().Msg("Database schema initialized")

	// Run migrations for schema evolution
	if err := p.runMigrations(ctx); err != nil {
		return err
	}

	return nil
}

// migrationColumns are columns added to existing databases after the initial
// schema shipped: per-user tracker credentials and password reset tokens.
var migrationColumns = []struct {
	table  string
	column string
	ddl    string
}{
	{"users", "trackman_username", `ALTER TABLE users ADD COLUMN trackman_username TEXT`},
	{"users", "trackman_password", `ALTER TABLE users ADD COLUMN trackman_password TEXT`},
	{"users", "arccos_email", `ALTER TABLE users ADD COLUMN arccos_email TEXT`},
	{"users", "arccos_password", `ALTER TABLE users ADD COLUMN arccos_password TEXT`},
	{"users", "skytrak_username", `ALTER TABLE users ADD COLUMN skytrak_username TEXT`},
	{"users", "skytrak_password", `ALTER TABLE users ADD COLUMN skytrak_password TEXT`},
	{"users", "reset_token", `ALTER TABLE users ADD COLUMN reset_token TEXT`},
	{"users", "reset_token_expiry", `ALTER TABLE users ADD COLUMN reset_token_expiry TIMESTAMPTZ`},
}

// runMigrations checks for and applies schema migrations for existing databases
func (p *PostgresDB) runMigrations(ctx context.Context) error {
	applied := 0
	for _, m := range migrationColumns {
		var exists bool
		err := p.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = $1 AND column_name = $2
			)`, m.table, m.column).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		p.logger.Info().Str("table", m.table).Str("column", m.column).Msg("Running migration: adding column")
		if _, err := p.pool.Exec(ctx, m.ddl); err != nil {
			return err
		}
		applied++
	}

	if applied > 0 {
		p.logger.Info().Int("columns", applied).Msg("Schema migrations completed successfully")
	}

	return nil
}

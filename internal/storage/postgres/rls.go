package postgres

import (
	"context"
	"strings"
)

// rlsStatements enable row level security on every user-scoped table and
// install per-user policies keyed on auth.uid(). The auth schema only exists
// on Supabase; off-Supabase each statement fails and is skipped, and the
// application-side user_id scoping in the storage layer remains the only
// isolation.
var rlsStatements = []string{
	`ALTER TABLE users ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY users_self ON users
		USING (id = auth.uid()::text)
		WITH CHECK (id = auth.uid()::text)`,

	`ALTER TABLE golf_rounds ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY rounds_owner ON golf_rounds
		USING (user_id = auth.uid()::text)
		WITH CHECK (user_id = auth.uid()::text)`,

	`ALTER TABLE golf_holes ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY holes_owner ON golf_holes
		USING (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))
		WITH CHECK (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))`,

	`ALTER TABLE golf_shots ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY shots_owner ON golf_shots
		USING (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))
		WITH CHECK (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))`,

	`ALTER TABLE round_stats ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY stats_owner ON round_stats
		USING (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))
		WITH CHECK (round_id IN (SELECT id FROM golf_rounds WHERE user_id = auth.uid()::text))`,

	`ALTER TABLE clubs ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY clubs_owner ON clubs
		USING (user_id = auth.uid()::text)
		WITH CHECK (user_id = auth.uid()::text)`,

	`ALTER TABLE user_preferences ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY preferences_owner ON user_preferences
		USING (user_id = auth.uid()::text)
		WITH CHECK (user_id = auth.uid()::text)`,

	// Run history is service-level data; only the service role reads it
	`ALTER TABLE etl_runs ENABLE ROW LEVEL SECURITY`,
	`CREATE POLICY etl_runs_service ON etl_runs
		USING (auth.role() = 'service_role')
		WITH CHECK (auth.role() = 'service_role')`,
}

// ApplyRLS applies row level security policies. Statements that fail (no
// auth schema, policy already present) are logged and counted as skipped
// rather than aborting the migration.
func (p *PostgresDB) ApplyRLS(ctx context.Context) (applied, skipped int) {
	for _, stmt := range rlsStatements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			p.logger.Debug().
				Str("statement", firstLine(stmt)).
				Err(err).
				Msg("RLS statement skipped")
			skipped++
			continue
		}
		applied++
	}

	p.logger.Info().
		Int("applied", applied).
		Int("skipped", skipped).
		Msg("Row level security policies processed")

	return applied, skipped
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

package postgres

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db         *PostgresDB
	user       interfaces.UserStorage
	round      interfaces.RoundStorage
	club       interfaces.ClubStorage
	preference interfaces.PreferenceStorage
	etlRun     interfaces.ETLRunStorage
	logger     arbor.ILogger
}

// NewManager creates a new Postgres storage manager and initializes the
// schema, including pending migrations.
func NewManager(ctx context.Context, logger arbor.ILogger, config *common.DatabaseConfig) (interfaces.StorageManager, error) {
	db, err := NewPostgresDB(logger, config)
	if err != nil {
		return nil, err
	}

	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{
		db:         db,
		user:       NewUserStorage(db, logger),
		round:      NewRoundStorage(db, logger),
		club:       NewClubStorage(db, logger),
		preference: NewPreferenceStorage(db, logger),
		etlRun:     NewETLRunStorage(db, logger),
		logger:     logger,
	}, nil
}

// UserStorage returns the user storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.user
}

// RoundStorage returns the round storage interface
func (m *Manager) RoundStorage() interfaces.RoundStorage {
	return m.round
}

// ClubStorage returns the club storage interface
func (m *Manager) ClubStorage() interfaces.ClubStorage {
	return m.club
}

// PreferenceStorage returns the preference storage interface
func (m *Manager) PreferenceStorage() interfaces.PreferenceStorage {
	return m.preference
}

// ETLRunStorage returns the ETL run storage interface
func (m *Manager) ETLRunStorage() interfaces.ETLRunStorage {
	return m.etlRun
}

// DB returns the underlying database handle for migrations
func (m *Manager) DB() *PostgresDB {
	return m.db
}

// Ping verifies database connectivity
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.Ping(ctx)
}

// Close closes the database connection pool
func (m *Manager) Close() error {
	if m.db != nil {
		m.db.Close()
	}
	return nil
}

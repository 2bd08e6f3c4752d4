package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
)

// ErrNotFound is returned when a requested row does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// PostgresDB manages the Postgres connection pool
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger arbor.ILogger
	config *common.DatabaseConfig
}

// NewPostgresDB creates a new connection pool and verifies connectivity
func NewPostgresDB(logger arbor.ILogger, config *common.DatabaseConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if config.MinConns > 0 {
		poolConfig.MinConns = int32(config.MinConns)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = int32(config.MaxConns)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database %s:%d/%s: %w",
			config.Host, config.Port, config.Name, err)
	}

	logger.Info().
		Str("host", config.Host).
		Str("database", config.Name).
		Msg("Postgres connection pool initialized")

	return &PostgresDB{
		pool:   pool,
		logger: logger,
		config: config,
	}, nil
}

// Pool returns the underlying pgx pool
func (p *PostgresDB) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping verifies the database connection
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool
func (p *PostgresDB) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

package storage

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/storage/postgres"
	"github.com/ternarybob/golfstats/internal/storage/spool"
)

// NewStorageManager creates the relational storage manager
func NewStorageManager(ctx context.Context, logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	return postgres.NewManager(ctx, logger, &config.Database)
}

// NewSnapshotStore opens the local scrape snapshot spool
func NewSnapshotStore(logger arbor.ILogger, config *common.Config) (interfaces.SnapshotStore, error) {
	db, err := spool.NewSpoolDB(logger, config.Scrapers.DataDir)
	if err != nil {
		return nil, err
	}
	return spool.NewSnapshotStore(db, logger), nil
}

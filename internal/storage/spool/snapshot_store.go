package spool

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStore implements the SnapshotStore interface on Badger
type SnapshotStore struct {
	db     *SpoolDB
	logger arbor.ILogger
}

// NewSnapshotStore creates a new SnapshotStore instance
func NewSnapshotStore(db *SpoolDB, logger arbor.ILogger) interfaces.SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot stores a scrape capture. IDs and capture times are filled
// in when missing.
func (s *SnapshotStore) SaveSnapshot(snap *models.ScrapeSnapshot) error {
	if snap.Source == "" {
		return fmt.Errorf("snapshot source is required")
	}
	if snap.ID == "" {
		snap.ID = common.NewSnapshotID()
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(snap.ID, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug().
		Str("snapshot_id", snap.ID).
		Str("source", snap.Source).
		Str("kind", snap.Kind).
		Msg("Archived snapshot")
	return nil
}

// GetSnapshot retrieves a snapshot by ID
func (s *SnapshotStore) GetSnapshot(id string) (*models.ScrapeSnapshot, error) {
	var snap models.ScrapeSnapshot
	if err := s.db.Store().Get(id, &snap); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("snapshot not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns snapshots newest first, filtered by source, user
// and kind when set.
func (s *SnapshotStore) ListSnapshots(opts *interfaces.SnapshotListOptions) ([]*models.ScrapeSnapshot, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if opts != nil {
		if opts.Source != "" {
			query = query.And("Source").Eq(opts.Source)
		}
		if opts.UserID != "" {
			query = query.And("UserID").Eq(opts.UserID)
		}
		if opts.Kind != "" {
			query = query.And("Kind").Eq(opts.Kind)
		}
	}

	var snaps []models.ScrapeSnapshot
	if err := s.db.Store().Find(&snaps, query); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CapturedAt.After(snaps[j].CapturedAt)
	})
	if opts != nil && opts.Limit > 0 && len(snaps) > opts.Limit {
		snaps = snaps[:opts.Limit]
	}

	result := make([]*models.ScrapeSnapshot, len(snaps))
	for i := range snaps {
		result[i] = &snaps[i]
	}
	return result, nil
}

// DeleteSnapshot removes a snapshot; deleting a missing one is not an error
func (s *SnapshotStore) DeleteSnapshot(id string) error {
	if err := s.db.Store().Delete(id, &models.ScrapeSnapshot{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Sweep removes snapshots older than ttl. A non-positive ttl keeps
// everything.
func (s *SnapshotStore) Sweep(ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-ttl)
	var expired []models.ScrapeSnapshot
	err := s.db.Store().Find(&expired, badgerhold.Where("CapturedAt").Lt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to find expired snapshots: %w", err)
	}

	removed := 0
	for i := range expired {
		if err := s.db.Store().Delete(expired[i].ID, &models.ScrapeSnapshot{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return removed, fmt.Errorf("failed to delete snapshot %s: %w", expired[i].ID, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Swept expired snapshots")
		// Screenshots and page HTML live in the value log; reclaim the space
		if err := s.db.RunGC(); err != nil {
			s.logger.Debug().Err(err).Msg("Spool value log GC skipped")
		}
	}
	return removed, nil
}

// Close closes the spool database
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

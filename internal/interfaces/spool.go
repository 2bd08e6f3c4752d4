package interfaces

import (
	"time"

	"github.com/ternarybob/golfstats/internal/models"
)

// SnapshotListOptions controls spool listing.
type SnapshotListOptions struct {
	Source string
	UserID string
	Kind   string
	Limit  int
}

// SnapshotStore - local spool of raw scrape captures (pages, payloads,
// error screenshots). Lives beside the relational store so scraper output
// can be inspected and replayed without touching the vendor sites.
type SnapshotStore interface {
	SaveSnapshot(snap *models.ScrapeSnapshot) error
	GetSnapshot(id string) (*models.ScrapeSnapshot, error)
	ListSnapshots(opts *SnapshotListOptions) ([]*models.ScrapeSnapshot, error)
	DeleteSnapshot(id string) error

	// Sweep removes snapshots older than ttl and returns the count removed.
	Sweep(ttl time.Duration) (int, error)

	Close() error
}

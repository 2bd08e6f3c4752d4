package spool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// SpoolDB manages the Badger database holding scrape snapshots
type SpoolDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	path   string
}

// NewSpoolDB opens (or creates) the snapshot spool under dataDir
func NewSpoolDB(logger arbor.ILogger, dataDir string) (*SpoolDB, error) {
	path := filepath.Join(dataDir, "spool")
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opening snapshot spool")

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot spool: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Snapshot spool initialized")

	return &SpoolDB{
		store:  store,
		logger: logger,
		path:   path,
	}, nil
}

// Store returns the underlying badgerhold store
func (s *SpoolDB) Store() *badgerhold.Store {
	return s.store
}

// RunGC compacts the Badger value log. Badger returns ErrNoRewrite when
// there was nothing worth rewriting; callers treat that as success.
func (s *SpoolDB) RunGC() error {
	err := s.store.Badger().RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// Close closes the spool database
func (s *SpoolDB) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

package spool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// setupSpool creates a test spool and returns cleanup function
func setupSpool(t *testing.T) (interfaces.SnapshotStore, func()) {
	logger := arbor.NewLogger()
	db, err := NewSpoolDB(logger, t.TempDir())
	require.NoError(t, err)

	store := NewSnapshotStore(db, logger)
	cleanup := func() {
		store.Close()
	}
	return store, cleanup
}

func TestSnapshotStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	snap := &models.ScrapeSnapshot{
		Source:      models.SourceTrackman,
		UserID:      "user-1",
		ExternalID:  "session-42",
		Kind:        models.SnapshotKindSession,
		URL:         "https://mytrackman.com/sessions/42",
		PageHTML:    "<html><body>Range Practice</body></html>",
		PayloadJSON: []byte(`{"id":"session-42"}`),
	}

	err := store.SaveSnapshot(snap)
	require.NoError(t, err)

	// ID and capture time are assigned on save
	assert.Contains(t, snap.ID, "snap_")
	assert.False(t, snap.CapturedAt.IsZero())

	got, err := store.GetSnapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTrackman, got.Source)
	assert.Equal(t, "session-42", got.ExternalID)
	assert.Equal(t, snap.PageHTML, got.PageHTML)
	assert.Equal(t, snap.PayloadJSON, got.PayloadJSON)
}

func TestSnapshotStore_SaveRequiresSource(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	err := store.SaveSnapshot(&models.ScrapeSnapshot{Kind: models.SnapshotKindPage})
	assert.Error(t, err)
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	_, err := store.GetSnapshot("snap_does-not-exist")
	assert.Error(t, err)
}

func TestSnapshotStore_ListFilters(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	for _, s := range []*models.ScrapeSnapshot{
		{Source: models.SourceTrackman, UserID: "user-1", Kind: models.SnapshotKindSessionList},
		{Source: models.SourceTrackman, UserID: "user-1", Kind: models.SnapshotKindSession},
		{Source: models.SourceArccos, UserID: "user-1", Kind: models.SnapshotKindSession},
		{Source: models.SourceTrackman, UserID: "user-2", Kind: models.SnapshotKindSession},
	} {
		require.NoError(t, store.SaveSnapshot(s))
	}

	all, err := store.ListSnapshots(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	trackman, err := store.ListSnapshots(&interfaces.SnapshotListOptions{Source: models.SourceTrackman})
	require.NoError(t, err)
	assert.Len(t, trackman, 3)

	userOne, err := store.ListSnapshots(&interfaces.SnapshotListOptions{
		Source: models.SourceTrackman,
		UserID: "user-1",
	})
	require.NoError(t, err)
	assert.Len(t, userOne, 2)

	sessions, err := store.ListSnapshots(&interfaces.SnapshotListOptions{
		UserID: "user-1",
		Kind:   models.SnapshotKindSession,
	})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	limited, err := store.ListSnapshots(&interfaces.SnapshotListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSnapshotStore_ListNewestFirst(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	now := time.Now().UTC()
	older := &models.ScrapeSnapshot{Source: models.SourceArccos, Kind: models.SnapshotKindPage, CapturedAt: now.Add(-time.Hour)}
	newer := &models.ScrapeSnapshot{Source: models.SourceArccos, Kind: models.SnapshotKindPage, CapturedAt: now}
	require.NoError(t, store.SaveSnapshot(older))
	require.NoError(t, store.SaveSnapshot(newer))

	snaps, err := store.ListSnapshots(nil)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, newer.ID, snaps[0].ID)
	assert.Equal(t, older.ID, snaps[1].ID)
}

func TestSnapshotStore_Delete(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	snap := &models.ScrapeSnapshot{Source: models.SourceSkyTrak, Kind: models.SnapshotKindPage}
	require.NoError(t, store.SaveSnapshot(snap))

	require.NoError(t, store.DeleteSnapshot(snap.ID))
	_, err := store.GetSnapshot(snap.ID)
	assert.Error(t, err)

	// Deleting again is not an error
	assert.NoError(t, store.DeleteSnapshot(snap.ID))
}

func TestSnapshotStore_Sweep(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	now := time.Now().UTC()
	expired := &models.ScrapeSnapshot{Source: models.SourceTrackman, Kind: models.SnapshotKindPage, CapturedAt: now.Add(-48 * time.Hour)}
	fresh := &models.ScrapeSnapshot{Source: models.SourceTrackman, Kind: models.SnapshotKindPage, CapturedAt: now}
	require.NoError(t, store.SaveSnapshot(expired))
	require.NoError(t, store.SaveSnapshot(fresh))

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetSnapshot(expired.ID)
	assert.Error(t, err)
	_, err = store.GetSnapshot(fresh.ID)
	assert.NoError(t, err)
}

func TestSnapshotStore_SweepDisabled(t *testing.T) {
	store, cleanup := setupSpool(t)
	defer cleanup()

	old := &models.ScrapeSnapshot{Source: models.SourceTrackman, Kind: models.SnapshotKindPage, CapturedAt: time.Now().UTC().Add(-1000 * time.Hour)}
	require.NoError(t, store.SaveSnapshot(old))

	removed, err := store.Sweep(0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = store.GetSnapshot(old.ID)
	assert.NoError(t, err)
}

package etl

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// fakeUserStore serves a fixed user list.
type fakeUserStore struct {
	interfaces.UserStorage

	users []*models.User
}

func (f *fakeUserStore) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeUserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", id)
}

// fakeRoundStore records saves and upserts on source/external_id like
// the relational layer does.
type fakeRoundStore struct {
	interfaces.RoundStorage

	saved    []*models.Round
	existing map[string]bool
	saveErr  error
}

func (f *fakeRoundStore) SaveScrapedRound(ctx context.Context, round *models.Round) (bool, error) {
	if f.saveErr != nil {
		return false, f.saveErr
	}
	key := round.SourceSystem + "/" + round.ExternalID
	created := !f.existing[key]
	f.existing[key] = true
	f.saved = append(f.saved, round)
	return created, nil
}

// fakeRunStore keeps run records in memory.
type fakeRunStore struct {
	interfaces.ETLRunStorage

	runs map[string]*models.ETLRun
}

func (f *fakeRunStore) RecordRun(ctx context.Context, run *models.ETLRun) error {
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunStore) UpdateRun(ctx context.Context, run *models.ETLRun) error {
	f.runs[run.ID] = run
	return nil
}

// fakeStorage satisfies StorageManager with the in-memory stores above.
type fakeStorage struct {
	userStore  *fakeUserStore
	roundStore *fakeRoundStore
	runStore   *fakeRunStore
}

func newFakeStorage(users ...*models.User) *fakeStorage {
	return &fakeStorage{
		userStore:  &fakeUserStore{users: users},
		roundStore: &fakeRoundStore{existing: make(map[string]bool)},
		runStore:   &fakeRunStore{runs: make(map[string]*models.ETLRun)},
	}
}

func (f *fakeStorage) UserStorage() interfaces.UserStorage             { return f.userStore }
func (f *fakeStorage) RoundStorage() interfaces.RoundStorage           { return f.roundStore }
func (f *fakeStorage) ClubStorage() interfaces.ClubStorage             { return nil }
func (f *fakeStorage) PreferenceStorage() interfaces.PreferenceStorage { return nil }
func (f *fakeStorage) ETLRunStorage() interfaces.ETLRunStorage         { return f.runStore }
func (f *fakeStorage) Ping(ctx context.Context) error                  { return nil }
func (f *fakeStorage) Close() error                                    { return nil }

var _ interfaces.StorageManager = (*fakeStorage)(nil)

// fakeScraper returns canned rounds or an error.
type fakeScraper struct {
	source string
	rounds []*models.Round
	err    error
	calls  int
}

func (f *fakeScraper) Source() string { return f.source }

func (f *fakeScraper) Scrape(ctx context.Context, userID string, creds interfaces.ScraperCredentials, limit int) ([]*models.Round, error) {
	f.calls++
	return f.rounds, f.err
}

func testUser(id string) *models.User {
	return &models.User{
		ID:               id,
		Email:            id + "@example.com",
		IsActive:         true,
		TrackmanUsername: "golfer",
		TrackmanPassword: "secret",
	}
}

func newTestRunner(storage *fakeStorage, scrapers ...interfaces.Scraper) *Runner {
	return NewRunner(scrapers, storage, nil, common.NewDefaultConfig(), common.GetLogger())
}

func TestRunAllLoadsRounds(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"))
	scraper := &fakeScraper{
		source: models.SourceTrackman,
		rounds: []*models.Round{
			{SourceSystem: models.SourceTrackman, ExternalID: "ts-1", CourseName: "Range",
				Holes: []models.Hole{{Number: 1, Par: 4, Shots: []models.Shot{{Number: 1, Club: "Driver"}}}}},
		},
	}

	run, err := newTestRunner(storage, scraper).RunAll(context.Background(), models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.UsersProcessed)
	assert.Equal(t, 1, run.RoundsCreated)
	assert.Equal(t, 0, run.RoundsUpdated)
	assert.Equal(t, 1, run.SourceCounts[models.SourceTrackman])
	assert.NotNil(t, run.CompletedAt)

	// The loaded round was enriched before saving.
	require.Len(t, storage.roundStore.saved, 1)
	require.NotNil(t, storage.roundStore.saved[0].Stats)
	assert.Equal(t, 1, storage.roundStore.saved[0].Stats.ExtendedStats["shot_count"])
}

func TestRunAllPersistsRunRecord(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"))
	scraper := &fakeScraper{
		source: models.SourceTrackman,
		rounds: []*models.Round{{SourceSystem: models.SourceTrackman, ExternalID: "ts-1"}},
	}

	run, err := newTestRunner(storage, scraper).RunAll(context.Background(), models.TriggerManual)
	require.NoError(t, err)

	stored, ok := storage.runStore.runs[run.ID]
	require.True(t, ok, "run record written through ETL run storage")
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, models.TriggerManual, stored.Trigger)
}

func TestScheduledTriggerRecorded(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"))
	scraper := &fakeScraper{
		source: models.SourceTrackman,
		rounds: []*models.Round{{SourceSystem: models.SourceTrackman, ExternalID: "ts-1"}},
	}

	run, err := newTestRunner(storage, scraper).RunAll(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", run.Trigger)
}

func TestRunAllRescrapeCountsUpdates(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"))
	scraper := &fakeScraper{
		source: models.SourceTrackman,
		rounds: []*models.Round{{SourceSystem: models.SourceTrackman, ExternalID: "ts-1"}},
	}
	runner := newTestRunner(storage, scraper)

	first, err := runner.RunAll(context.Background(), models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RoundsCreated)

	second, err := runner.RunAll(context.Background(), models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RoundsCreated)
	assert.Equal(t, 1, second.RoundsUpdated)
}

func TestRunAllSkipsUsersWithoutCredentials(t *testing.T) {
	noCreds := &models.User{ID: "user-2", Email: "u2@example.com", IsActive: true}
	storage := newFakeStorage(noCreds)
	scraper := &fakeScraper{source: models.SourceTrackman}

	run, err := newTestRunner(storage, scraper).RunAll(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 0, run.UsersProcessed)
	assert.Equal(t, 1, run.UsersSkipped)
	assert.Equal(t, 0, scraper.calls)
}

func TestRunAllGlobalCredentialFallback(t *testing.T) {
	noCreds := &models.User{ID: "user-3", Email: "u3@example.com", IsActive: true}
	storage := newFakeStorage(noCreds)
	scraper := &fakeScraper{source: models.SourceTrackman}

	runner := newTestRunner(storage, scraper)
	runner.config.Scrapers.Trackman.Username = "shared"
	runner.config.Scrapers.Trackman.Password = "login"

	run, err := runner.RunAll(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 1, run.UsersProcessed)
	assert.Equal(t, 1, scraper.calls)
}

func TestRunAllVendorFailureRecorded(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"))
	scraper := &fakeScraper{source: models.SourceTrackman, err: fmt.Errorf("login failed: bad password")}

	run, err := newTestRunner(storage, scraper).RunAll(context.Background(), models.TriggerManual)
	require.NoError(t, err)

	// Errors with nothing loaded at all mark the run failed.
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.Len(t, run.Errors, 1)
	assert.Contains(t, run.Errors[0], "trackman")
}

func TestRunUser(t *testing.T) {
	storage := newFakeStorage(testUser("user-1"), testUser("user-2"))
	scraper := &fakeScraper{
		source: models.SourceTrackman,
		rounds: []*models.Round{{SourceSystem: models.SourceTrackman, ExternalID: "ts-9"}},
	}

	run, err := newTestRunner(storage, scraper).RunUser(context.Background(), "user-2", models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, run.UsersProcessed)
	assert.Equal(t, 1, scraper.calls)

	_, err = newTestRunner(storage, scraper).RunUser(context.Background(), "nobody", models.TriggerManual)
	assert.Error(t, err)
}

func TestRunRejectsConcurrent(t *testing.T) {
	storage := newFakeStorage()
	runner := newTestRunner(storage)

	runner.mu.Lock()
	runner.running = true
	runner.mu.Unlock()

	assert.True(t, runner.IsRunning())
	_, err := runner.RunAll(context.Background(), models.TriggerManual)
	assert.Error(t, err)
}

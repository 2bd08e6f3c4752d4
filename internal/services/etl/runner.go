package etl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

const defaultSessionLimit = 10

// Runner drives the scrape-transform-load pipeline across all active
// users and their configured vendors. One run at a time; concurrent
// triggers are rejected rather than queued.
type Runner struct {
	scrapers    map[string]interfaces.Scraper
	storage     interfaces.StorageManager
	transformer *Transformer
	loader      *Loader
	events      interfaces.EventService
	config      *common.Config
	logger      arbor.ILogger

	mu      sync.Mutex
	running bool
}

var _ interfaces.ETLService = (*Runner)(nil)

// NewRunner wires the pipeline. Scrapers are keyed by source name;
// vendors without a scraper are skipped at run time.
func NewRunner(scrapers []interfaces.Scraper, storage interfaces.StorageManager, events interfaces.EventService, config *common.Config, logger arbor.ILogger) *Runner {
	byName := make(map[string]interfaces.Scraper, len(scrapers))
	for _, s := range scrapers {
		byName[s.Source()] = s
	}
	return &Runner{
		scrapers:    byName,
		storage:     storage,
		transformer: NewTransformer(),
		loader:      NewLoader(storage.RoundStorage(), logger),
		events:      events,
		config:      config,
		logger:      logger,
	}
}

// IsRunning reports whether a run is in flight.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// RunAll executes the pipeline for every active user.
func (r *Runner) RunAll(ctx context.Context, trigger string) (*models.ETLRun, error) {
	if !r.tryAcquire() {
		return nil, fmt.Errorf("etl run already in progress")
	}
	defer r.release()

	users, err := r.storage.UserStorage().ListActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	run := r.startRun(ctx, trigger)
	for _, user := range users {
		if ctx.Err() != nil {
			run.AddError(fmt.Sprintf("run aborted: %v", ctx.Err()))
			break
		}
		r.runUserSources(ctx, run, user)
	}
	r.finishRun(ctx, run)
	return run, nil
}

// RunUser executes the pipeline for a single user.
func (r *Runner) RunUser(ctx context.Context, userID, trigger string) (*models.ETLRun, error) {
	if !r.tryAcquire() {
		return nil, fmt.Errorf("etl run already in progress")
	}
	defer r.release()

	user, err := r.storage.UserStorage().GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	run := r.startRun(ctx, trigger)
	r.runUserSources(ctx, run, user)
	r.finishRun(ctx, run)
	return run, nil
}

func (r *Runner) startRun(ctx context.Context, trigger string) *models.ETLRun {
	run := &models.ETLRun{
		ID:           common.NewRunID(),
		Trigger:      trigger,
		Status:       models.RunStatusRunning,
		StartedAt:    time.Now().UTC(),
		SourceCounts: make(map[string]int),
	}
	if err := r.storage.ETLRunStorage().RecordRun(ctx, run); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to record ETL run start")
	}

	r.logger.Info().Str("run_id", run.ID).Str("trigger", trigger).Msg("ETL run started")
	r.publish(ctx, interfaces.EventETLRunStarted, run)
	return run
}

// runUserSources walks the vendors in fixed order for one user. A
// vendor without credentials is skipped; a vendor failure is recorded
// and the run moves on.
func (r *Runner) runUserSources(ctx context.Context, run *models.ETLRun, user *models.User) {
	limit := r.config.ETL.SessionLimit
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	ranAny := false
	r.publish(ctx, interfaces.EventETLUserStarted, map[string]string{"run_id": run.ID, "user_id": user.ID})

	for _, source := range models.ScrapeSources {
		scraper, ok := r.scrapers[source]
		if !ok {
			continue
		}
		creds := r.credentialsFor(user, source)
		if !creds.Valid() {
			r.publish(ctx, interfaces.EventETLSourceDone, &models.SourceResult{Source: source, Skipped: true})
			continue
		}
		ranAny = true

		result := r.runSource(ctx, scraper, user.ID, creds, limit)
		run.RoundsCreated += result.RoundsCreated
		run.RoundsUpdated += result.RoundsUpdated
		run.SourceCounts[source] += result.RoundsCreated + result.RoundsUpdated
		if result.Error != "" {
			run.AddError(fmt.Sprintf("user %s %s: %s", user.ID, source, result.Error))
		}
		r.publish(ctx, interfaces.EventETLSourceDone, result)
	}

	if ranAny {
		run.UsersProcessed++
	} else {
		run.UsersSkipped++
	}
}

func (r *Runner) runSource(ctx context.Context, scraper interfaces.Scraper, userID string, creds interfaces.ScraperCredentials, limit int) *models.SourceResult {
	source := scraper.Source()
	result := &models.SourceResult{Source: source}

	r.logger.Info().Str("source", source).Str("user_id", userID).Msg("Scraping vendor")
	rounds, err := scraper.Scrape(ctx, userID, creds, limit)
	if err != nil {
		result.Error = err.Error()
		if len(rounds) == 0 {
			return result
		}
		// Partial results from an aborted run still get loaded.
	}

	for _, round := range rounds {
		r.transformer.Enrich(round)
	}

	created, updated, loadErrs := r.loader.Load(ctx, rounds)
	result.RoundsCreated = created
	result.RoundsUpdated = updated
	if result.Error == "" && len(loadErrs) > 0 {
		result.Error = loadErrs[0].Error()
	}

	r.logger.Info().
		Str("source", source).
		Str("user_id", userID).
		Int("created", created).
		Int("updated", updated).
		Msg("Vendor scrape complete")
	return result
}

// finishRun closes out the run record. The run fails only when errors
// occurred and nothing at all was loaded.
func (r *Runner) finishRun(ctx context.Context, run *models.ETLRun) {
	now := time.Now().UTC()
	run.CompletedAt = &now
	if len(run.Errors) > 0 && run.RoundsCreated+run.RoundsUpdated == 0 {
		run.Status = models.RunStatusFailed
	} else {
		run.Status = models.RunStatusCompleted
	}

	if err := r.storage.ETLRunStorage().UpdateRun(ctx, run); err != nil {
		r.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record ETL run completion")
	}

	r.logger.Info().
		Str("run_id", run.ID).
		Str("status", run.Status).
		Int("users", run.UsersProcessed).
		Int("created", run.RoundsCreated).
		Int("updated", run.RoundsUpdated).
		Int("errors", len(run.Errors)).
		Str("duration", run.Duration().Round(time.Millisecond).String()).
		Msg("ETL run finished")
	r.publish(ctx, interfaces.EventETLRunCompleted, run)
}

// credentialsFor resolves vendor credentials for a user, falling back
// to the globally configured logins when the user has none stored.
func (r *Runner) credentialsFor(user *models.User, source string) interfaces.ScraperCredentials {
	switch source {
	case models.SourceTrackman:
		if user.HasTrackmanCredentials() {
			return interfaces.ScraperCredentials{Username: user.TrackmanUsername, Password: user.TrackmanPassword}
		}
		return interfaces.ScraperCredentials{Username: r.config.Scrapers.Trackman.Username, Password: r.config.Scrapers.Trackman.Password}
	case models.SourceArccos:
		if user.HasArccosCredentials() {
			return interfaces.ScraperCredentials{Username: user.ArccosEmail, Password: user.ArccosPassword}
		}
		return interfaces.ScraperCredentials{Username: r.config.Scrapers.Arccos.Email, Password: r.config.Scrapers.Arccos.Password}
	case models.SourceSkyTrak:
		if user.HasSkyTrakCredentials() {
			return interfaces.ScraperCredentials{Username: user.SkyTrakUsername, Password: user.SkyTrakPassword}
		}
		return interfaces.ScraperCredentials{Username: r.config.Scrapers.SkyTrak.Username, Password: r.config.Scrapers.SkyTrak.Password}
	}
	return interfaces.ScraperCredentials{}
}

func (r *Runner) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		r.logger.Debug().Err(err).Str("event", string(eventType)).Msg("Event publish failed")
	}
}

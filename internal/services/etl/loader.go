package etl

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// Loader writes normalized rounds into relational storage. Dedupe is
// the storage layer's upsert on (user, source, external ID); the
// loader just tallies creates versus updates.
type Loader struct {
	rounds interfaces.RoundStorage
	logger arbor.ILogger
}

func NewLoader(rounds interfaces.RoundStorage, logger arbor.ILogger) *Loader {
	return &Loader{rounds: rounds, logger: logger}
}

// Load persists a batch of rounds for one user and returns counts of
// created and updated rows. A failed round is logged and skipped so
// one bad session does not sink the batch.
func (l *Loader) Load(ctx context.Context, rounds []*models.Round) (created, updated int, errs []error) {
	for _, round := range rounds {
		wasCreated, err := l.rounds.SaveScrapedRound(ctx, round)
		if err != nil {
			l.logger.Warn().Err(err).
				Str("source", round.SourceSystem).
				Str("external_id", round.ExternalID).
				Msg("Failed to save scraped round")
			errs = append(errs, fmt.Errorf("save %s/%s: %w", round.SourceSystem, round.ExternalID, err))
			continue
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}
	return created, updated, errs
}

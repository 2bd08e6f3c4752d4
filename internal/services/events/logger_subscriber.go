package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs all events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		// Pull structured fields out of the common payload shapes
		switch payload := event.Payload.(type) {
		case *models.ETLRun:
			logEvent = logEvent.
				Str("run_id", payload.ID).
				Str("status", payload.Status).
				Int("rounds_created", payload.RoundsCreated).
				Int("rounds_updated", payload.RoundsUpdated)
		case *models.SourceResult:
			logEvent = logEvent.
				Str("source", payload.Source).
				Bool("skipped", payload.Skipped)
		case map[string]string:
			for key, value := range payload {
				logEvent = logEvent.Str(key, value)
			}
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents attaches the log subscriber to the whole
// event stream.
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)
	for _, eventType := range interfaces.AllEventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}
	return nil
}

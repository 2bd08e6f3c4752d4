package interfaces

import "context"

// EventType names one kind of in-process event.
type EventType string

const (
	EventETLRunStarted    EventType = "etl_run_started"
	EventETLUserStarted   EventType = "etl_user_started"
	EventETLSourceDone    EventType = "etl_source_done"
	EventETLRunCompleted  EventType = "etl_run_completed"
	EventReportGenerated  EventType = "report_generated"
	EventScrapeCaptcha    EventType = "scrape_captcha"
	EventSnapshotArchived EventType = "snapshot_archived"
)

// AllEventTypes lists every event type, for subscribers that want the
// whole stream (the log subscriber, the websocket broadcaster).
var AllEventTypes = []EventType{
	EventETLRunStarted,
	EventETLUserStarted,
	EventETLSourceDone,
	EventETLRunCompleted,
	EventReportGenerated,
	EventScrapeCaptcha,
	EventSnapshotArchived,
}

// Event carries one occurrence through the bus. Payload holds the
// publisher's record for the event: *models.ETLRun for run start and
// completion, *models.SourceResult for per-vendor results, *ReportInfo
// for generated reports, and a map of string fields elsewhere.
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler consumes one event. Handlers run concurrently with the
// publisher; a returned error is logged, not propagated.
type EventHandler func(ctx context.Context, event Event) error

// EventService is the in-process pub/sub bus connecting the ETL and
// report pipelines to the log and websocket subscribers.
type EventService interface {
	// Subscribe registers a handler for one event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish delivers an event to the type's subscribers without
	// waiting for them.
	Publish(ctx context.Context, event Event) error

	// Close drops all subscriptions and waits for in-flight handlers.
	Close() error
}

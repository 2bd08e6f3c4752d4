package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// TestNewLoggerSubscriber verifies that the logger subscriber logs events
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()

	// Create logger subscriber
	subscriber := NewLoggerSubscriber(logger)

	// Test with event containing a run payload
	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventETLRunStarted,
		Payload: &models.ETLRun{
			ID:      "run-test-123",
			Trigger: models.TriggerManual,
			Status:  models.RunStatusRunning,
		},
	}

	// Call the subscriber
	err := subscriber(ctx, event)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Test with event without payload
	event2 := interfaces.Event{
		Type:    interfaces.EventETLRunCompleted,
		Payload: nil,
	}

	err = subscriber(ctx, event2)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// TestSubscribeLoggerToAllEvents verifies logger is subscribed to all event types
func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()

	// Create event service
	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("Failed to subscribe logger: %v", err)
	}

	ctx := context.Background()

	for _, eventType := range interfaces.AllEventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: map[string]string{"test": "data"},
		}

		err := eventService.Publish(ctx, event)
		if err != nil {
			t.Errorf("Expected no error publishing %s event, got: %v", eventType, err)
		}
	}
}

// TestLoggerSubscriberDoesNotInterfere verifies logger subscriber doesn't interfere with other handlers
func TestLoggerSubscriberDoesNotInterfere(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)

	if err := eventService.Subscribe(interfaces.EventETLRunCompleted, NewLoggerSubscriber(logger)); err != nil {
		t.Fatalf("Failed to subscribe logger handler: %v", err)
	}

	// Add a custom handler that tracks calls
	var callCount atomic.Int32
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		callCount.Add(1)
		return nil
	}

	// Subscribe custom handler
	err := eventService.Subscribe(interfaces.EventETLRunCompleted, customHandler)
	if err != nil {
		t.Fatalf("Failed to subscribe custom handler: %v", err)
	}

	// Publish event
	ctx := context.Background()
	event := interfaces.Event{
		Type:    interfaces.EventETLRunCompleted,
		Payload: &models.ETLRun{ID: "run-test"},
	}

	err = eventService.Publish(ctx, event)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Close waits for the async handlers before we assert.
	if err := eventService.Close(); err != nil {
		t.Fatalf("Failed to close event service: %v", err)
	}

	// Verify custom handler was called
	if got := callCount.Load(); got != 1 {
		t.Errorf("Expected custom handler to be called once, got: %d", got)
	}
}

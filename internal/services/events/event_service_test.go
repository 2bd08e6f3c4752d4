package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/interfaces"
)

func TestPublishFansOutToSubscribers(t *testing.T) {
	bus := NewService(arbor.NewLogger())

	var calls atomic.Int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		calls.Add(1)
		return nil
	}
	require.NoError(t, bus.Subscribe(interfaces.EventETLRunStarted, handler))
	require.NoError(t, bus.Subscribe(interfaces.EventETLRunStarted, handler))

	require.NoError(t, bus.Publish(context.Background(), interfaces.Event{Type: interfaces.EventETLRunStarted}))
	// Other types do not reach the handler.
	require.NoError(t, bus.Publish(context.Background(), interfaces.Event{Type: interfaces.EventReportGenerated}))

	require.NoError(t, bus.Close())
	assert.Equal(t, int32(2), calls.Load())
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	bus := NewService(arbor.NewLogger())
	defer bus.Close()

	assert.Error(t, bus.Subscribe(interfaces.EventETLRunStarted, nil))
}

func TestClosedBusRejectsUse(t *testing.T) {
	bus := NewService(arbor.NewLogger())
	require.NoError(t, bus.Close())

	assert.Error(t, bus.Subscribe(interfaces.EventETLRunStarted, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))
	assert.Error(t, bus.Publish(context.Background(), interfaces.Event{Type: interfaces.EventETLRunStarted}))

	// A second close is a no-op.
	assert.NoError(t, bus.Close())
}

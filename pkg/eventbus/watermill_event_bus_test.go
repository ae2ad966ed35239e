package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-canvas/pkg/channels/gochannel"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.NodesMoved, 1)

	err := bus.Handle(events.NodesMovedEvent, func(_ context.Context, event Event) error {
		received <- event.(*events.NodesMoved)

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "graph-1", events.NodesMoved{
		BaseEvent: events.NewBaseEvent(events.NodesMovedEvent, "graph-1"),
		NodeIDs:   []string{"n1"},
	})
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "graph-1", got.GraphID)
		assert.Equal(t, []string{"n1"}, got.NodeIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreSkipped(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan *events.GraphSaved, 1)

	require.NoError(t, bus.Handle(events.GraphSavedEvent, func(_ context.Context, event Event) error {
		saved <- event.(*events.GraphSaved)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "g", events.SaveRequested{
		BaseEvent: events.NewBaseEvent(events.SaveRequestedEvent, "g"),
	}))
	require.NoError(t, bus.Publish(ctx, "g", events.GraphSaved{
		BaseEvent: events.NewBaseEvent(events.GraphSavedEvent, "g"),
		Revision:  3,
	}))

	select {
	case got := <-saved:
		assert.Equal(t, uint64(3), got.Revision)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}

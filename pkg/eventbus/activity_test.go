package eventbus

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type failingSubscriber struct{ handled int }

func (f *failingSubscriber) Handle(events.EventType, EventHandler) error {
	f.handled++
	if f.handled == 3 {
		return errors.New("closed")
	}

	return nil
}

func (f *failingSubscriber) Subscribe(context.Context) error { return nil }

func TestLogActivity_LogsPublishedEvents(t *testing.T) {
	bus := newTestBus(t)
	out := &lockedBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, LogActivity(bus, logger))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "graph-7", events.GraphSaveFailed{
		BaseEvent: events.NewBaseEvent(events.GraphSaveFailedEvent, "graph-7"),
		Revision:  4,
		Error:     "disk full",
	}))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"graph_id":"graph-7"`)
	}, 2*time.Second, 10*time.Millisecond)

	logged := out.String()
	assert.Contains(t, logged, `"level":"WARN"`)
	assert.Contains(t, logged, `"event_type":"graph.save.failed"`)
	assert.Contains(t, logged, `"error":"disk full"`)
}

func TestActivityHandler_Levels(t *testing.T) {
	out := &lockedBuffer{}
	handler := activityHandler(slog.New(slog.NewJSONHandler(out, nil)))

	err := handler(context.Background(), &events.GraphSaved{
		BaseEvent: events.NewBaseEvent(events.GraphSavedEvent, "g"),
		Revision:  2,
		Automatic: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"level":"INFO"`)
	assert.Contains(t, out.String(), `"revision":2`)

	err = handler(context.Background(), &events.ConnectionRejected{
		BaseEvent: events.NewBaseEvent(events.ConnectionRejectedEvent, "g"),
		Source:    "a",
		Target:    "a",
		Reason:    "self connection",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"level":"WARN"`)
	assert.Contains(t, out.String(), `"reason":"self connection"`)
}

func TestLogActivity_RegistrationError(t *testing.T) {
	sub := &failingSubscriber{}

	err := LogActivity(sub, slog.New(slog.NewTextHandler(&lockedBuffer{}, nil)))
	require.Error(t, err)
	assert.Equal(t, 3, sub.handled)
}

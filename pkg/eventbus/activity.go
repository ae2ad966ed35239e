package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-canvas/pkg/events"
)

// LogActivity registers a handler for every known event type that writes the event to
// logger. Failed saves and rejected connections log at warn level.
func LogActivity(bus EventSubscriber, logger *slog.Logger) error {
	for _, eventType := range events.Types() {
		err := bus.Handle(eventType, activityHandler(logger))
		if err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return nil
}

func activityHandler(logger *slog.Logger) EventHandler {
	return func(ctx context.Context, event Event) error {
		level := slog.LevelInfo

		args := []any{"event_type", event.GetType(), "graph_id", event.GetGraphID()}

		switch e := event.(type) {
		case *events.GraphSaveFailed:
			level = slog.LevelWarn
			args = append(args, "revision", e.Revision, "automatic", e.Automatic, "error", e.Error)
		case *events.ConnectionRejected:
			level = slog.LevelWarn
			args = append(args, "source", e.Source, "target", e.Target, "reason", e.Reason)
		case *events.GraphSaved:
			args = append(args, "revision", e.Revision, "automatic", e.Automatic, "duration", e.Duration)
		}

		logger.Log(ctx, level, "Graph event", args...)

		return nil
	}
}

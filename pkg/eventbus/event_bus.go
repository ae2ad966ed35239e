// Package eventbus carries editor notifications between an editing session and its host.
//
// Sessions and the autosaver only publish. Hosts register one handler per event type
// they care about and then start a single subscription on the graph event topic.
package eventbus

import (
	"context"

	"github.com/dukex/operion-canvas/pkg/events"
)

// Event is a graph notification. Every type in package events satisfies it.
type Event interface {
	GetType() events.EventType
	GetGraphID() string
}

// EventPublisher is what sessions, the autosaver and the API handlers depend on.
// Publish keys messages by graph ID so a partitioned transport keeps per-graph order.
type EventPublisher interface {
	Publish(ctx context.Context, graphID string, event Event) error
}

// EventSubscriber dispatches decoded events to handlers. Handle must be called before
// Subscribe; events of a type without a handler are acknowledged and dropped.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g. *events.GraphSaved.
// Returning an error nacks the message.
type EventHandler func(ctx context.Context, event Event) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

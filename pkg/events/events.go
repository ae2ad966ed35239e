// Package events defines the notifications an editing session publishes about a graph.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "operion.canvas.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Edits made on the canvas.
	NodesMovedEvent         EventType = "graph.nodes.moved"
	NodeAddedEvent          EventType = "graph.node.added"
	ConnectionAddedEvent    EventType = "graph.connection.added"
	ConnectionRejectedEvent EventType = "graph.connection.rejected"
	SelectionDeletedEvent   EventType = "graph.selection.deleted"

	// Persistence.
	GraphSavedEvent      EventType = "graph.saved"
	GraphSaveFailedEvent EventType = "graph.save.failed"
	GraphDeletedEvent    EventType = "graph.deleted"

	// Requests for host collaborators.
	SaveRequestedEvent    EventType = "graph.save.requested"
	TestRunRequestedEvent EventType = "graph.test_run.requested"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	GraphID   string         `json:"graph_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (e BaseEvent) GetGraphID() string { return e.GraphID }

func NewBaseEvent(eventType EventType, graphID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		GraphID:   graphID,
	}
}

// NodesMoved is published once per finished drag.
type NodesMoved struct {
	BaseEvent

	NodeIDs []string `json:"node_ids"`
}

func (e NodesMoved) GetType() EventType { return NodesMovedEvent }

type NodeAdded struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

func (e NodeAdded) GetType() EventType { return NodeAddedEvent }

type ConnectionAdded struct {
	BaseEvent

	ConnectionID string `json:"connection_id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
}

func (e ConnectionAdded) GetType() EventType { return ConnectionAddedEvent }

type ConnectionRejected struct {
	BaseEvent

	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func (e ConnectionRejected) GetType() EventType { return ConnectionRejectedEvent }

type SelectionDeleted struct {
	BaseEvent

	NodeIDs       []string `json:"node_ids,omitempty"`
	ConnectionIDs []string `json:"connection_ids,omitempty"`
}

func (e SelectionDeleted) GetType() EventType { return SelectionDeletedEvent }

// GraphSaved reports a successful save of the given model revision.
type GraphSaved struct {
	BaseEvent

	Revision    uint64        `json:"revision"`
	Nodes       int           `json:"nodes"`
	Connections int           `json:"connections"`
	Duration    time.Duration `json:"duration"`
	Automatic   bool          `json:"automatic"`
}

func (e GraphSaved) GetType() EventType { return GraphSavedEvent }

// GraphSaveFailed is the one failure the host is expected to surface to the user.
type GraphSaveFailed struct {
	BaseEvent

	Revision  uint64 `json:"revision"`
	Error     string `json:"error"`
	Automatic bool   `json:"automatic"`
}

func (e GraphSaveFailed) GetType() EventType { return GraphSaveFailedEvent }

type GraphDeleted struct {
	BaseEvent
}

func (e GraphDeleted) GetType() EventType { return GraphDeletedEvent }

type SaveRequested struct {
	BaseEvent
}

func (e SaveRequested) GetType() EventType { return SaveRequestedEvent }

type TestRunRequested struct {
	BaseEvent

	NodeIDs []string `json:"node_ids,omitempty"`
}

func (e TestRunRequested) GetType() EventType { return TestRunRequestedEvent }

// Types lists every event type New can decode.
func Types() []EventType {
	return []EventType{
		NodesMovedEvent,
		NodeAddedEvent,
		ConnectionAddedEvent,
		ConnectionRejectedEvent,
		SelectionDeletedEvent,
		GraphSavedEvent,
		GraphSaveFailedEvent,
		GraphDeletedEvent,
		SaveRequestedEvent,
		TestRunRequestedEvent,
	}
}

// New returns an empty event value for a type, for decoding. ok is false for unknown types.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case NodesMovedEvent:
		return &NodesMoved{}, true
	case NodeAddedEvent:
		return &NodeAdded{}, true
	case ConnectionAddedEvent:
		return &ConnectionAdded{}, true
	case ConnectionRejectedEvent:
		return &ConnectionRejected{}, true
	case SelectionDeletedEvent:
		return &SelectionDeleted{}, true
	case GraphSavedEvent:
		return &GraphSaved{}, true
	case GraphSaveFailedEvent:
		return &GraphSaveFailed{}, true
	case GraphDeletedEvent:
		return &GraphDeleted{}, true
	case SaveRequestedEvent:
		return &SaveRequested{}, true
	case TestRunRequestedEvent:
		return &TestRunRequested{}, true
	default:
		return nil, false
	}
}

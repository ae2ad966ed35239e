// Package editor ties the graph model, viewport, interaction machine, mapping
// resolver, persistence and event bus into one editing session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/operion-canvas/pkg/autosave"
	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/interaction"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

var (
	ErrNoStore      = errors.New("session has no graph store")
	ErrNodeNotFound = errors.New("node not found")
)

// Session is one open graph. All methods are safe for concurrent use; events are
// processed one at a time.
type Session struct {
	mu sync.Mutex

	graphID   string
	name      string
	createdAt time.Time

	registry registry.Lookup
	model    *graph.Model
	machine  *interaction.Machine

	store     persistence.Persistence
	publisher eventbus.EventPublisher
	saver     *autosave.Saver
	logger    *slog.Logger

	settings     interaction.Settings
	fitPadding   float64
	renderer     interaction.RenderFunc
	notifier     interaction.NotifyFunc
	graphOpts    []graph.Option
	autosave     bool
	autosaveOpts []autosave.Option

	pending []eventbus.Event
	saveReq bool
}

type Option func(*Session)

func WithStore(store persistence.Persistence) Option {
	return func(s *Session) { s.store = store }
}

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(s *Session) { s.publisher = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithSettings(settings interaction.Settings) Option {
	return func(s *Session) { s.settings = settings }
}

func WithFitPadding(padding float64) Option {
	return func(s *Session) { s.fitPadding = padding }
}

func WithName(name string) Option {
	return func(s *Session) { s.name = name }
}

// WithRenderer is called after every change while the session lock is held. It must
// only read.
func WithRenderer(fn interaction.RenderFunc) Option {
	return func(s *Session) { s.renderer = fn }
}

// WithNotifier forwards every interaction notification to the host.
func WithNotifier(fn interaction.NotifyFunc) Option {
	return func(s *Session) { s.notifier = fn }
}

func WithGraphOptions(opts ...graph.Option) Option {
	return func(s *Session) { s.graphOpts = append(s.graphOpts, opts...) }
}

// WithAutosave enables periodic saving. It requires WithStore.
func WithAutosave(opts ...autosave.Option) Option {
	return func(s *Session) {
		s.autosave = true
		s.autosaveOpts = opts
	}
}

// New starts an empty session for graphID.
func New(reg registry.Lookup, graphID string, opts ...Option) *Session {
	s := &Session{
		graphID:  graphID,
		registry: reg,
		logger:   slog.Default(),
		settings: interaction.DefaultSettings(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "editor", "graph_id", graphID)
	s.model = graph.New(reg, s.graphOpts...)
	s.setup()

	return s
}

// Open loads graphID from store into a new session.
func Open(ctx context.Context, reg registry.Lookup, store persistence.Persistence, graphID string, opts ...Option) (*Session, error) {
	stored, err := store.GraphByID(ctx, graphID)
	if err != nil {
		return nil, err
	}

	s := New(reg, graphID, append(opts, WithStore(store), WithName(stored.Name))...)
	s.createdAt = stored.CreatedAt

	err = s.model.Load(stored.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", graphID, err)
	}

	if s.saver != nil {
		s.saver.MarkSaved(s.model.Revision())
	}

	return s, nil
}

func (s *Session) setup() {
	vt := viewport.New()
	vt.FitPadding = s.fitPadding

	s.machine = interaction.NewMachine(s.registry, s.model, vt,
		interaction.WithSettings(s.settings),
		interaction.WithLogger(s.logger),
		interaction.WithNotifier(s.onNotification),
		interaction.WithRenderer(func(m *interaction.Machine) {
			if s.renderer != nil {
				s.renderer(m)
			}
		}),
	)

	if s.autosave && s.store != nil {
		opts := append([]autosave.Option{autosave.WithLogger(s.logger)}, s.autosaveOpts...)
		if s.publisher != nil {
			opts = append(opts, autosave.WithPublisher(s.publisher))
		}

		s.saver = autosave.New(s, s.store, opts...)
	}
}

func (s *Session) GraphID() string { return s.graphID }

// Name is the display name saved with the graph.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.name = name
}

// Saver is the autosaver, nil unless WithAutosave and WithStore were given.
func (s *Session) Saver() *autosave.Saver { return s.saver }

// Read runs fn with the machine while holding the session lock. fn must not call
// back into the session.
func (s *Session) Read(fn func(m *interaction.Machine)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.machine)
}

// Dispatch processes one input event and then publishes what it produced.
func (s *Session) Dispatch(ctx context.Context, ev interaction.Event) interaction.State {
	s.mu.Lock()
	state := s.machine.Dispatch(ev)
	out, saveReq := s.drain()
	s.mu.Unlock()

	s.flush(ctx, out, saveReq)

	return state
}

// PointerDownAt dispatches a hit-tested pointer press.
func (s *Session) PointerDownAt(ctx context.Context, p geom.Point, mods interaction.Modifier) interaction.State {
	s.mu.Lock()
	state := s.machine.PointerDownAt(p, mods)
	out, saveReq := s.drain()
	s.mu.Unlock()

	s.flush(ctx, out, saveReq)

	return state
}

// PointerUpAt dispatches a hit-tested pointer release.
func (s *Session) PointerUpAt(ctx context.Context, p geom.Point) interaction.State {
	s.mu.Lock()
	state := s.machine.PointerUpAt(p)
	out, saveReq := s.drain()
	s.mu.Unlock()

	s.flush(ctx, out, saveReq)

	return state
}

func (s *Session) drain() ([]eventbus.Event, bool) {
	out, saveReq := s.pending, s.saveReq
	s.pending, s.saveReq = nil, false

	return out, saveReq
}

// flush runs outside the lock: publishing may block and saving calls Snapshot.
func (s *Session) flush(ctx context.Context, out []eventbus.Event, saveReq bool) {
	for _, event := range out {
		s.publish(ctx, event)
	}

	if saveReq && s.saver != nil {
		if !s.saver.Request(ctx) {
			s.logger.DebugContext(ctx, "Save request ignored, save in flight")
		}
	}
}

func (s *Session) publish(ctx context.Context, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, s.graphID, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish editor event", "event_type", event.GetType(), "error", err)
	}
}

// onNotification runs inside Dispatch with the lock held.
func (s *Session) onNotification(n interaction.Notification) {
	if s.notifier != nil {
		s.notifier(n)
	}

	if event := s.eventFor(n); event != nil {
		s.pending = append(s.pending, event)
	}

	if n.Kind == interaction.SaveRequested {
		s.saveReq = true
	}
}

func (s *Session) eventFor(n interaction.Notification) eventbus.Event {
	base := func(t events.EventType) events.BaseEvent { return events.NewBaseEvent(t, s.graphID) }

	switch n.Kind {
	case interaction.NodesMoved:
		return events.NodesMoved{BaseEvent: base(events.NodesMovedEvent), NodeIDs: n.NodeIDs}
	case interaction.NodeAdded:
		event := events.NodeAdded{BaseEvent: base(events.NodeAddedEvent)}
		if len(n.NodeIDs) > 0 {
			event.NodeID = n.NodeIDs[0]
			if node, ok := s.model.Node(event.NodeID); ok {
				event.NodeType = node.Type
			}
		}

		return event
	case interaction.ConnectionAdded:
		event := events.ConnectionAdded{BaseEvent: base(events.ConnectionAddedEvent)}
		if len(n.ConnectionIDs) > 0 {
			event.ConnectionID = n.ConnectionIDs[0]
		}

		if len(n.NodeIDs) == 2 {
			event.Source, event.Target = n.NodeIDs[0], n.NodeIDs[1]
		}

		return event
	case interaction.ConnectionRejected:
		event := events.ConnectionRejected{BaseEvent: base(events.ConnectionRejectedEvent)}
		if len(n.NodeIDs) == 2 {
			event.Source, event.Target = n.NodeIDs[0], n.NodeIDs[1]
		}

		if n.Err != nil {
			event.Reason = n.Err.Error()
		}

		return event
	case interaction.SelectionDeleted:
		return events.SelectionDeleted{
			BaseEvent:     base(events.SelectionDeletedEvent),
			NodeIDs:       n.NodeIDs,
			ConnectionIDs: n.ConnectionIDs,
		}
	case interaction.SaveRequested:
		return events.SaveRequested{BaseEvent: base(events.SaveRequestedEvent)}
	case interaction.TestRunRequested:
		return events.TestRunRequested{BaseEvent: base(events.TestRunRequestedEvent), NodeIDs: n.NodeIDs}
	default:
		return nil
	}
}

func (s *Session) render() {
	if s.renderer != nil {
		s.renderer(s.machine)
	}
}

// mutate runs fn on the model under the lock and renders when fn reports a change.
func (s *Session) mutate(fn func(m *graph.Model) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := fn(s.model)
	if changed {
		s.render()
	}

	return changed
}

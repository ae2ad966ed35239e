// Package autosave periodically persists a graph while it is being edited.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/otelhelper"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultInterval = 30 * time.Second

var (
	ErrSaveInFlight   = errors.New("save already in flight")
	ErrAlreadyStarted = errors.New("autosave already started")
)

// Source is the graph being edited. Revision must change on every mutation.
type Source interface {
	Revision() uint64
	Snapshot() *models.Graph
}

// Saver saves Source to a store when it is dirty and no other save is running.
type Saver struct {
	source    Source
	store     persistence.Persistence
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
	interval  time.Duration

	mu       sync.Mutex
	saved    uint64
	inFlight bool
	lastErr  error
	wg       sync.WaitGroup
	cron     *cron.Cron
}

type Option func(*Saver)

func WithInterval(d time.Duration) Option {
	return func(s *Saver) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Saver) { s.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Saver) { s.tracer = tracer }
}

// WithPublisher publishes GraphSaved and GraphSaveFailed events after each save.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(s *Saver) { s.publisher = publisher }
}

// New creates a saver. The current revision of source counts as saved.
func New(source Source, store persistence.Persistence, opts ...Option) *Saver {
	s := &Saver{
		source:   source,
		store:    store,
		logger:   slog.Default(),
		tracer:   otelhelper.NoopTracer(),
		interval: DefaultInterval,
		saved:    source.Revision(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "autosave")

	return s
}

// Interval is the tick period.
func (s *Saver) Interval() time.Duration {
	return s.interval
}

// Dirty reports whether the source changed since the last successful save.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.source.Revision() != s.saved
}

// InFlight reports whether a save is running.
func (s *Saver) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inFlight
}

// LastError is the error of the most recent save, nil after a success.
func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// MarkSaved records rev as persisted, e.g. right after loading a graph.
func (s *Saver) MarkSaved(rev uint64) {
	s.mu.Lock()
	s.saved = rev
	s.mu.Unlock()
}

// Start schedules Tick every interval until Stop.
func (s *Saver) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyStarted
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Tick(ctx)
	})
	if err != nil {
		s.cron = nil

		return fmt.Errorf("failed to schedule autosave: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Autosave started", "interval", s.interval)

	return nil
}

// Stop halts the schedule and waits for a running save, bounded by ctx.
func (s *Saver) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight save: %w", ctx.Err())
	}
}

// Wait blocks until background saves started by Tick finish.
func (s *Saver) Wait() {
	s.wg.Wait()
}

// Tick starts a background save when the source is dirty and nothing is in flight.
// It reports whether a save was started.
func (s *Saver) Tick(ctx context.Context) bool {
	return s.startBackground(ctx, true)
}

// Request starts a background save, dirty or not, unless one is already in flight.
func (s *Saver) Request(ctx context.Context) bool {
	return s.startBackground(ctx, false)
}

func (s *Saver) startBackground(ctx context.Context, automatic bool) bool {
	s.mu.Lock()
	if s.inFlight || (automatic && s.source.Revision() == s.saved) {
		s.mu.Unlock()

		return false
	}

	s.inFlight = true
	s.wg.Add(1)
	s.mu.Unlock()

	// Edits made after this point belong to the next save.
	graph := s.source.Snapshot()

	go func() {
		defer s.wg.Done()

		_ = s.save(ctx, graph, automatic)
	}()

	return true
}

// SaveNow saves synchronously whether or not the source is dirty.
func (s *Saver) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()

		return ErrSaveInFlight
	}

	s.inFlight = true
	s.mu.Unlock()

	return s.save(ctx, s.source.Snapshot(), false)
}

func (s *Saver) save(ctx context.Context, graph *models.Graph, automatic bool) error {
	trigger := "manual"
	if automatic {
		trigger = "auto"
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "graph.save",
		attribute.String(otelhelper.GraphIDKey, graph.ID),
		attribute.Int64(otelhelper.GraphRevisionKey, int64(graph.Revision)),
		attribute.Int(otelhelper.NodeCountKey, len(graph.Definition.Nodes)),
		attribute.Int(otelhelper.ConnectionCountKey, len(graph.Definition.Connections)),
		attribute.String(otelhelper.SaveTriggerKey, trigger),
	)
	defer span.End()

	started := time.Now()
	err := s.store.SaveGraph(ctx, graph)
	elapsed := time.Since(started)

	s.mu.Lock()
	s.inFlight = false
	s.lastErr = err

	if err == nil {
		s.saved = graph.Revision
	}
	s.mu.Unlock()

	if err != nil {
		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "Failed to save graph", "graph_id", graph.ID, "revision", graph.Revision, "error", err)
		s.publish(ctx, graph.ID, events.GraphSaveFailed{
			BaseEvent: events.NewBaseEvent(events.GraphSaveFailedEvent, graph.ID),
			Revision:  graph.Revision,
			Error:     err.Error(),
			Automatic: automatic,
		})

		return fmt.Errorf("failed to save graph %s: %w", graph.ID, err)
	}

	s.logger.DebugContext(ctx, "Graph saved", "graph_id", graph.ID, "revision", graph.Revision, "duration", elapsed)
	s.publish(ctx, graph.ID, events.GraphSaved{
		BaseEvent:   events.NewBaseEvent(events.GraphSavedEvent, graph.ID),
		Revision:    graph.Revision,
		Nodes:       len(graph.Definition.Nodes),
		Connections: len(graph.Definition.Connections),
		Duration:    elapsed,
		Automatic:   automatic,
	})

	return nil
}

func (s *Saver) publish(ctx context.Context, graphID string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, graphID, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish save event", "event_type", event.GetType(), "error", err)
	}
}

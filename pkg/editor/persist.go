package editor

import (
	"context"
	"fmt"

	"github.com/dukex/operion-canvas/pkg/events"
)

// Save persists the graph now. With autosave enabled the save goes through the saver,
// so it counts towards dirty tracking and fails with autosave.ErrSaveInFlight while
// another save runs.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}

	if s.saver != nil {
		return s.saver.SaveNow(ctx)
	}

	graph := s.Snapshot()

	err := s.store.SaveGraph(ctx, graph)
	if err != nil {
		s.publish(ctx, events.GraphSaveFailed{
			BaseEvent: events.NewBaseEvent(events.GraphSaveFailedEvent, s.graphID),
			Revision:  graph.Revision,
			Error:     err.Error(),
		})

		return fmt.Errorf("failed to save graph %s: %w", s.graphID, err)
	}

	s.mu.Lock()
	s.createdAt = graph.CreatedAt
	s.mu.Unlock()

	s.publish(ctx, events.GraphSaved{
		BaseEvent:   events.NewBaseEvent(events.GraphSavedEvent, s.graphID),
		Revision:    graph.Revision,
		Nodes:       len(graph.Definition.Nodes),
		Connections: len(graph.Definition.Connections),
	})

	return nil
}

// Delete removes the stored graph and stops autosaving.
func (s *Session) Delete(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}

	if s.saver != nil {
		err := s.saver.Stop(ctx)
		if err != nil {
			return err
		}
	}

	err := s.store.DeleteGraph(ctx, s.graphID)
	if err != nil {
		return err
	}

	s.publish(ctx, events.GraphDeleted{BaseEvent: events.NewBaseEvent(events.GraphDeletedEvent, s.graphID)})

	return nil
}

// StartAutosave begins periodic saving. It is a no-op without WithAutosave.
func (s *Session) StartAutosave(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}

	return s.saver.Start(ctx)
}

// Close stops autosaving and makes a final save when there are unsaved edits.
func (s *Session) Close(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}

	err := s.saver.Stop(ctx)
	if err != nil {
		return err
	}

	if s.saver.Dirty() {
		return s.saver.SaveNow(ctx)
	}

	return nil
}

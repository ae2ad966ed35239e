package editor

import (
	"fmt"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/value"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

// Revision is the model mutation counter.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Revision()
}

// Snapshot is the graph as it would be saved now.
func (s *Session) Snapshot() *models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &models.Graph{
		ID:         s.graphID,
		Name:       s.name,
		Definition: s.model.Definition(),
		Revision:   s.model.Revision(),
		CreatedAt:  s.createdAt,
	}
}

func (s *Session) Definition() models.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Definition()
}

// Load replaces the graph with def. On error the graph is left empty.
func (s *Session) Load(def models.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Selection().Clear()

	err := s.model.Load(def)
	s.render()

	if err != nil {
		return fmt.Errorf("failed to load definition: %w", err)
	}

	return nil
}

func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Validate()
}

func (s *Session) Node(id string) (models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Node(id)
}

func (s *Session) Nodes() []models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Nodes()
}

func (s *Session) Connections() []models.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model.Connections()
}

// AddNode places a node of nodeType at p (graph space), snapped when snapping is on.
func (s *Session) AddNode(nodeType string, p geom.Point) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.machine.Settings()
	if settings.SnapToGrid {
		p = viewport.Snap(p, settings.GridSize)
	}

	id := s.model.AddNode(nodeType, p)
	s.render()

	return id
}

func (s *Session) RemoveNode(id string) bool {
	return s.mutate(func(m *graph.Model) bool {
		removed := m.RemoveNode(id)
		if removed {
			s.machine.Selection().RemoveNode(id)
			s.machine.Selection().Prune(m.HasNode, func(cid string) bool {
				_, ok := m.Connection(cid)

				return ok
			})
		}

		return removed
	})
}

// Connect adds a connection outside of pointer interaction.
func (s *Session) Connect(source, sourceHandle, target, targetHandle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.model.AddConnection(source, sourceHandle, target, targetHandle)
	if err != nil {
		return "", err
	}

	s.render()

	return id, nil
}

func (s *Session) Disconnect(id string) bool {
	return s.mutate(func(m *graph.Model) bool {
		removed := m.RemoveConnection(id)
		if removed {
			s.machine.Selection().RemoveConnection(id)
		}

		return removed
	})
}

func (s *Session) RenameNode(id, name string) bool {
	return s.mutate(func(m *graph.Model) bool {
		return m.UpdateNode(id, func(n *models.Node) { n.Name = name })
	})
}

// SetNodeConfig replaces a node's config. Non-object values become an empty object.
func (s *Session) SetNodeConfig(id string, config value.Value) bool {
	if config.Kind() != value.Map {
		config = value.MapOf(nil)
	}

	return s.mutate(func(m *graph.Model) bool {
		return m.UpdateNode(id, func(n *models.Node) { n.Config = config.Clone() })
	})
}

// MoveNode sets a node position directly (graph space), snapping like a drag.
func (s *Session) MoveNode(id string, p geom.Point) bool {
	return s.mutate(func(m *graph.Model) bool {
		if !m.HasNode(id) {
			return false
		}

		settings := s.machine.Settings()
		if settings.SnapToGrid {
			p = viewport.Snap(p, settings.GridSize)
		}

		m.SetNodePosition(id, p)

		return true
	})
}

// Viewport returns a copy of the viewport state.
func (s *Session) Viewport() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.machine.Viewport().State()
}

func (s *Session) viewportOp(fn func(vt *viewport.Transform, positions []geom.Point) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.model.Nodes()
	positions := make([]geom.Point, len(nodes))

	for i, n := range nodes {
		positions[i] = n.Position
	}

	changed := fn(s.machine.Viewport(), positions)
	if changed {
		s.render()
	}

	return changed
}

func (s *Session) ZoomIn(size geom.Size) {
	s.viewportOp(func(vt *viewport.Transform, _ []geom.Point) bool {
		vt.ZoomIn(size)

		return true
	})
}

func (s *Session) ZoomOut(size geom.Size) {
	s.viewportOp(func(vt *viewport.Transform, _ []geom.Point) bool {
		vt.ZoomOut(size)

		return true
	})
}

func (s *Session) ResetView() {
	s.viewportOp(func(vt *viewport.Transform, _ []geom.Point) bool {
		vt.Reset()

		return true
	})
}

// FitToContent fits every node into a viewport of size. It is a no-op on an empty graph.
func (s *Session) FitToContent(size geom.Size) bool {
	return s.viewportOp(func(vt *viewport.Transform, positions []geom.Point) bool {
		return vt.FitToContent(positions, size)
	})
}

func (s *Session) CenterContent(size geom.Size) bool {
	return s.viewportOp(func(vt *viewport.Transform, positions []geom.Point) bool {
		return vt.CenterContent(positions, size)
	})
}

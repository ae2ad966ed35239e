package editor

import (
	"fmt"

	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/value"
)

// MappingSide selects which of a node's two mappings an edit targets.
type MappingSide int

const (
	InputMapping MappingSide = iota
	OutputMapping
)

// SetMappingText parses text and commits it to the node. A parse error is returned as
// a *mapping.ParseError and the previous mapping stays in place.
func (s *Session) SetMappingText(nodeID string, side MappingSide, text string) error {
	spec, err := mapping.ParseSpecText(text)
	if err != nil {
		return err
	}

	ok := s.mutate(func(m *graph.Model) bool {
		return m.UpdateNode(nodeID, func(n *models.Node) {
			if side == OutputMapping {
				n.OutputMapping = spec
			} else {
				n.InputMapping = spec
			}
		})
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	return nil
}

// MappingPreview resolves the node's input mapping against the data its upstream
// nodes last produced. The input passed through an empty mapping is the single
// upstream node's data, or an object of upstream data keyed by node id.
func (s *Session) MappingPreview(nodeID string) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.model.Node(nodeID)
	if !ok {
		return value.Undef(), fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	ctx := s.model.MappingContext(nodeID)

	return mapping.ApplyMappings(node.InputMapping, ctx, s.upstreamInput(nodeID)), nil
}

func (s *Session) upstreamInput(nodeID string) value.Value {
	upstream := s.model.Upstream(nodeID)
	if len(upstream) == 1 {
		if n, ok := s.model.Node(upstream[0]); ok {
			return n.Data.Clone()
		}
	}

	input := value.NewObject()

	for _, id := range upstream {
		if n, ok := s.model.Node(id); ok && !n.Data.IsUndefined() {
			input.Set(id, n.Data.Clone())
		}
	}

	return value.MapOf(input)
}

// FieldPaths lists the template paths available to nodeID's input mapping.
func (s *Session) FieldPaths(nodeID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string

	for _, id := range s.model.Upstream(nodeID) {
		n, ok := s.model.Node(id)
		if !ok || n.Data.IsUndefined() {
			continue
		}

		out = append(out, mapping.FieldPaths(id, n.Data)...)
	}

	return out
}

// NodeResult is the outcome of a test run for one node, supplied by the host.
type NodeResult struct {
	NodeID string
	Status models.NodeStatus
	Data   value.Value
}

// ApplyTestResults records statuses and data from a test run. Data is reshaped by
// the node's output mapping. Unknown nodes and invalid statuses are skipped. It
// returns how many nodes were updated.
func (s *Session) ApplyTestResults(results []NodeResult) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0

	for _, r := range results {
		if !r.Status.Valid() {
			s.logger.Warn("Ignoring test result with invalid status", "node_id", r.NodeID, "status", r.Status)

			continue
		}

		ok := s.model.UpdateNode(r.NodeID, func(n *models.Node) {
			n.Status = r.Status
			n.Data = mapping.ApplyOutputMapping(n.OutputMapping, r.Data.Clone())
		})
		if ok {
			updated++
		}
	}

	if updated > 0 {
		s.render()
	}

	return updated
}

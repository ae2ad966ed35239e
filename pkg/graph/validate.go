package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/operion-canvas/pkg/registry"
)

// Validate checks the graph against the registry. It reports every problem found,
// joined with errors.Join, or nil for a valid graph.
func (m *Model) Validate() error {
	var errs []error

	for _, node := range m.nodes {
		if m.registry == nil {
			break
		}

		if _, ok := m.registry.NodeType(node.Type); !ok {
			errs = append(errs, &ValidationError{
				Kind:    KindUnresolvedType,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node type %q is not registered", node.Type),
			})
		}
	}

	for _, node := range m.nodes {
		if !node.Status.Valid() {
			errs = append(errs, &ValidationError{
				Kind:    KindInvalidStatus,
				NodeID:  node.ID,
				Message: fmt.Sprintf("unknown status %q", node.Status),
			})
		}
	}

	for _, conn := range m.connections {
		errs = append(errs, m.validateConnection(conn.ID, conn.Source, conn.SourceHandle, conn.Target, conn.TargetHandle)...)
	}

	return errors.Join(errs...)
}

func (m *Model) validateConnection(id, source, sourceHandle, target, targetHandle string) []error {
	var errs []error

	sourceSlot, sourceOK := m.nodeIndex[source]
	targetSlot, targetOK := m.nodeIndex[target]

	if !sourceOK {
		errs = append(errs, &ValidationError{
			Kind: KindDanglingRef, ConnID: id, Message: fmt.Sprintf("source node %q does not exist", source),
		})
	}

	if !targetOK {
		errs = append(errs, &ValidationError{
			Kind: KindDanglingRef, ConnID: id, Message: fmt.Sprintf("target node %q does not exist", target),
		})
	}

	if sourceOK && !registry.HandlesOf(m.registry, m.nodes[sourceSlot].Type).HasOutput(sourceHandle) {
		errs = append(errs, &ValidationError{
			Kind: KindUnknownHandle, ConnID: id, Message: fmt.Sprintf("source has no output %q", sourceHandle),
		})
	}

	if targetOK && !registry.HandlesOf(m.registry, m.nodes[targetSlot].Type).HasInput(targetHandle) {
		errs = append(errs, &ValidationError{
			Kind: KindUnknownHandle, ConnID: id, Message: fmt.Sprintf("target has no input %q", targetHandle),
		})
	}

	return errs
}

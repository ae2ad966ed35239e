package graph

import (
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/value"
)

// ContextEntry is how a node appears to templates: {id, name, type, status, data}.
// data is omitted while the node has produced nothing.
func ContextEntry(n models.Node) value.Value {
	entry := value.NewObject()
	entry.Set("id", value.StringOf(n.ID))
	entry.Set("name", value.StringOf(n.Name))
	entry.Set("type", value.StringOf(n.Type))
	entry.Set("status", value.StringOf(string(n.Status)))

	if !n.Data.IsUndefined() {
		entry.Set(mapping.DataKey, n.Data.Clone())
	}

	return value.MapOf(entry)
}

// MappingContext exposes the direct upstream nodes of nodeID to templates.
func (m *Model) MappingContext(nodeID string) mapping.Context {
	ctx := mapping.Context{}

	for _, id := range m.Upstream(nodeID) {
		if node, ok := m.Node(id); ok {
			ctx[id] = ContextEntry(node)
		}
	}

	return ctx
}

// FullContext exposes every node, for previews outside a single node's scope.
func (m *Model) FullContext() mapping.Context {
	ctx := make(mapping.Context, len(m.nodes))

	for _, node := range m.nodes {
		ctx[node.ID] = ContextEntry(node)
	}

	return ctx
}

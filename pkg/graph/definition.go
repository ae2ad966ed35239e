package graph

import (
	"fmt"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/registry"
)

// Definition exports the graph in wire form. Node and connection order follows slot order.
func (m *Model) Definition() models.Definition {
	def := models.Definition{
		Nodes:       make([]models.NodeDefinition, 0, len(m.nodes)),
		Connections: make([]models.ConnectionDefinition, 0, len(m.connections)),
	}

	for _, node := range m.nodes {
		def.Nodes = append(def.Nodes, models.NodeDefinitionOf(node))
	}

	for _, conn := range m.connections {
		def.Connections = append(def.Connections, models.ConnectionDefinitionOf(conn))
	}

	return def
}

// FromDefinition builds a model from its wire form. Structural rules apply as for
// interactive edits: the first rejected node or connection aborts the import.
func FromDefinition(reg registry.Lookup, def models.Definition, opts ...Option) (*Model, error) {
	m := New(reg, opts...)

	err := m.Load(def)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Load replaces the model contents with def. On error the model is left empty.
func (m *Model) Load(def models.Definition) error {
	m.Clear()

	for i, nd := range def.Nodes {
		err := m.AddNodeWithID(nd.ToNode())
		if err != nil {
			m.Clear()

			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}

	for i, cd := range def.Connections {
		_, err := m.AddConnectionWithID(models.Connection{
			ID:           cd.ID,
			Source:       cd.Source,
			SourceHandle: cd.SourceOutput,
			Target:       cd.Target,
			TargetHandle: cd.TargetInput,
		})
		if err != nil {
			m.Clear()

			return fmt.Errorf("connections[%d]: %w", i, err)
		}
	}

	return nil
}

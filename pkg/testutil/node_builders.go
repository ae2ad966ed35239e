// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/value"
	"github.com/google/uuid"
)

// CreateTestNode creates a test node definition with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.NodeDefinition)) models.NodeDefinition {
	node := models.NodeDefinition{
		ID:       uuid.New().String(),
		Type:     "log",
		Name:     "Test Node",
		Position: geom.Pt(100, 200),
		Config:   value.FromAny(map[string]any{"message": "test", "level": "info"}),
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithTriggerNode configures the node as a webhook trigger.
func WithTriggerNode() func(*models.NodeDefinition) {
	return func(n *models.NodeDefinition) {
		n.Type = "webhook_trigger"
		n.Config = value.FromAny(map[string]any{"path": "/webhook/test", "method": "POST"})
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.NodeDefinition) {
	return func(n *models.NodeDefinition) {
		n.Name = name
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.NodeDefinition) {
	return func(n *models.NodeDefinition) {
		n.Position = geom.Pt(x, y)
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.NodeDefinition) {
	return func(n *models.NodeDefinition) {
		n.Type = nodeType
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.NodeDefinition) {
	return func(n *models.NodeDefinition) {
		n.ID = id
	}
}

// CreateTestGraph creates an empty test graph.
func CreateTestGraph(id string) *models.Graph {
	return &models.Graph{
		ID:       id,
		Name:     "Test Graph",
		Revision: 1,
		Definition: models.Definition{
			Nodes:       []models.NodeDefinition{},
			Connections: []models.ConnectionDefinition{},
		},
	}
}

// CreateTestGraphWithNodes creates a test graph with a trigger feeding a log node.
func CreateTestGraphWithNodes(id string) *models.Graph {
	graph := CreateTestGraph(id)

	triggerNode := CreateTestNode(WithTriggerNode(), WithID("trigger-1"), WithPosition(0, 0))
	actionNode := CreateTestNode(WithID("action-1"), WithName("Log Action"), WithPosition(300, 0))

	graph.Definition.Nodes = []models.NodeDefinition{triggerNode, actionNode}
	graph.Definition.Connections = []models.ConnectionDefinition{
		CreateTestConnection("trigger-1", "action-1"),
	}

	return graph
}

// CreateTestConnection creates a test connection between the default handles of two nodes.
func CreateTestConnection(sourceNodeID, targetNodeID string) models.ConnectionDefinition {
	return models.ConnectionDefinition{
		ID:           uuid.New().String(),
		Source:       sourceNodeID,
		Target:       targetNodeID,
		SourceOutput: models.DefaultOutputHandle,
		TargetInput:  models.DefaultInputHandle,
	}
}

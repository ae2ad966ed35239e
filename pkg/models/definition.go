package models

import (
	"encoding/json"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/value"
)

// Definition is the portable graph payload handed to persistence. Viewport state is
// never part of it.
type Definition struct {
	Nodes       []NodeDefinition       `json:"nodes"       validate:"dive"`
	Connections []ConnectionDefinition `json:"connections" validate:"dive"`
}

// NodeDefinition is the wire form of a Node.
type NodeDefinition struct {
	ID            string       `json:"id"             validate:"required"`
	Type          string       `json:"type"           validate:"required"`
	Name          string       `json:"name"`
	Position      geom.Point   `json:"position"`
	Config        value.Value  `json:"config"`
	InputMapping  mapping.Spec `json:"input_mapping"`
	OutputMapping mapping.Spec `json:"output_mapping"`
}

// ConnectionDefinition is the wire form of a Connection. Handle fields are named
// source_output / target_input on the wire.
type ConnectionDefinition struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"        validate:"required"`
	Target       string `json:"target"        validate:"required"`
	SourceOutput string `json:"source_output"`
	TargetInput  string `json:"target_input"`
}

// UnmarshalJSON applies the output/input defaults for missing handle fields.
func (c *ConnectionDefinition) UnmarshalJSON(data []byte) error {
	type plain ConnectionDefinition

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}

	if decoded.SourceOutput == "" {
		decoded.SourceOutput = DefaultOutputHandle
	}

	if decoded.TargetInput == "" {
		decoded.TargetInput = DefaultInputHandle
	}

	*c = ConnectionDefinition(decoded)

	return nil
}

// MarshalJSON always emits config as an object.
func (n NodeDefinition) MarshalJSON() ([]byte, error) {
	type plain NodeDefinition

	out := plain(n)
	if out.Config.Kind() != value.Map {
		out.Config = value.MapOf(nil)
	}

	return json.Marshal(out)
}

// ToNode converts the wire form to an in-memory node in the idle state.
func (n NodeDefinition) ToNode() Node {
	config := n.Config
	if config.Kind() != value.Map {
		config = value.MapOf(nil)
	}

	name := n.Name
	if name == "" {
		name = n.Type
	}

	return Node{
		ID:            n.ID,
		Type:          n.Type,
		Name:          name,
		Position:      n.Position,
		Config:        config.Clone(),
		InputMapping:  n.InputMapping.Clone(),
		OutputMapping: n.OutputMapping.Clone(),
		Status:        NodeStatusIdle,
	}
}

// NodeDefinitionOf converts a node to its wire form.
func NodeDefinitionOf(n Node) NodeDefinition {
	return NodeDefinition{
		ID:            n.ID,
		Type:          n.Type,
		Name:          n.Name,
		Position:      n.Position,
		Config:        n.Config.Clone(),
		InputMapping:  n.InputMapping.Clone(),
		OutputMapping: n.OutputMapping.Clone(),
	}
}

// ConnectionDefinitionOf converts a connection to its wire form.
func ConnectionDefinitionOf(c Connection) ConnectionDefinition {
	return ConnectionDefinition{
		ID:           c.ID,
		Source:       c.Source,
		Target:       c.Target,
		SourceOutput: c.SourceHandle,
		TargetInput:  c.TargetHandle,
	}
}

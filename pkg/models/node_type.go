package models

import "slices"

// CategoryType groups node types in the palette.
type CategoryType string

const (
	CategoryTrigger   CategoryType = "trigger"
	CategoryData      CategoryType = "data"
	CategoryTransform CategoryType = "transform"
	CategoryCondition CategoryType = "condition"
	CategoryAction    CategoryType = "action"
	CategoryOutput    CategoryType = "output"
)

// Handles lists the named connection points of a node type.
type Handles struct {
	Inputs  []string `json:"inputs"  yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
}

// DefaultHandles is the single input/output pair assumed when a type declares none.
func DefaultHandles() Handles {
	return Handles{
		Inputs:  []string{DefaultInputHandle},
		Outputs: []string{DefaultOutputHandle},
	}
}

func (h Handles) HasInput(name string) bool { return slices.Contains(h.Inputs, name) }

func (h Handles) HasOutput(name string) bool { return slices.Contains(h.Outputs, name) }

// NodeType is a read-only registry entry describing a kind of node.
type NodeType struct {
	Name        string       `json:"name"                  yaml:"name"         validate:"required"`
	DisplayName string       `json:"displayName"           yaml:"displayName"`
	Category    CategoryType `json:"category"              yaml:"category"     validate:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Handles     *Handles     `json:"handles,omitempty"     yaml:"handles,omitempty"`
}

// EffectiveHandles returns the declared handles or the default pair.
func (t NodeType) EffectiveHandles() Handles {
	if t.Handles == nil || (len(t.Handles.Inputs) == 0 && len(t.Handles.Outputs) == 0) {
		return DefaultHandles()
	}

	return *t.Handles
}

// Label is the display name, falling back to the type name.
func (t NodeType) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}

	return t.Name
}

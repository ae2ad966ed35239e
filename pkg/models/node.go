// Package models defines the node-graph domain models shared by the editor core.
package models

import (
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/value"
)

// Default handle names used when a node type declares none.
const (
	DefaultInputHandle  = "input"
	DefaultOutputHandle = "output"
)

// NodeStatus is the last known run state of a node, used for preview only.
type NodeStatus string

const (
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s NodeStatus) Valid() bool {
	switch s {
	case NodeStatusIdle, NodeStatusRunning, NodeStatusSuccess, NodeStatusError:
		return true
	default:
		return false
	}
}

// Node is a node instance placed on the canvas.
type Node struct {
	ID            string
	Type          string // key into the node-type registry
	Name          string
	Position      geom.Point // graph space
	Config        value.Value
	InputMapping  mapping.Spec
	OutputMapping mapping.Spec
	Status        NodeStatus
	Data          value.Value // last produced output, Undefined when none
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Config = n.Config.Clone()
	n.InputMapping = n.InputMapping.Clone()
	n.OutputMapping = n.OutputMapping.Clone()
	n.Data = n.Data.Clone()

	return n
}

// Connection links an output handle of one node to an input handle of another.
// It only holds node ids.
type Connection struct {
	ID           string
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

// Touches reports whether the connection has nodeID at either end.
func (c Connection) Touches(nodeID string) bool {
	return c.Source == nodeID || c.Target == nodeID
}

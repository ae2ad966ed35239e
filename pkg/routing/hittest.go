package routing

import (
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

// Screen-space hit tolerances.
const (
	HandleRadius        = 8.0
	ConnectionTolerance = 6.0
)

// TargetKind is the kind of canvas element under a pointer.
type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetNode
	TargetInputHandle
	TargetOutputHandle
	TargetConnection
)

func (k TargetKind) String() string {
	switch k {
	case TargetNode:
		return "node"
	case TargetInputHandle:
		return "input_handle"
	case TargetOutputHandle:
		return "output_handle"
	case TargetConnection:
		return "connection"
	default:
		return "canvas"
	}
}

// Target identifies the element a pointer event landed on.
type Target struct {
	Kind         TargetKind
	NodeID       string
	Handle       string
	ConnectionID string
}

func Canvas() Target { return Target{Kind: TargetCanvas} }

func NodeTarget(id string) Target { return Target{Kind: TargetNode, NodeID: id} }

func InputHandle(nodeID, handle string) Target {
	return Target{Kind: TargetInputHandle, NodeID: nodeID, Handle: handle}
}

func OutputHandle(nodeID, handle string) Target {
	return Target{Kind: TargetOutputHandle, NodeID: nodeID, Handle: handle}
}

func ConnectionTarget(id string) Target { return Target{Kind: TargetConnection, ConnectionID: id} }

// HitTester resolves screen points against a model and viewport. Nodes later in slot
// order are drawn on top and win ties.
type HitTester struct {
	Model    *graph.Model
	Viewport *viewport.Transform
}

// Hit returns the element under the screen point p. Nodes are tested from the top
// down; on each node its handles take precedence over its body. Connections sit
// below every node.
func (h HitTester) Hit(p geom.Point) Target {
	nodes := h.Model.Nodes()
	graphPoint := h.Viewport.ToGraph(p)

	for i := len(nodes) - 1; i >= 0; i-- {
		if target, ok := h.hitNode(nodes[i], p, graphPoint); ok {
			return target
		}
	}

	for _, conn := range h.Model.Connections() {
		curve, ok := ConnectionCurve(h.Model, conn, h.Viewport)
		if ok && curve.Distance(p) <= ConnectionTolerance {
			return ConnectionTarget(conn.ID)
		}
	}

	return Canvas()
}

func (h HitTester) hitNode(node models.Node, p, graphPoint geom.Point) (Target, bool) {
	lookup := h.Model.Registry()
	handles := registry.HandlesOf(lookup, node.Type)

	for _, name := range handles.Outputs {
		anchor, _ := Anchor(node, lookup, name, OutputSide, h.Viewport)
		if anchor.Dist(p) <= HandleRadius {
			return OutputHandle(node.ID, name), true
		}
	}

	for _, name := range handles.Inputs {
		anchor, _ := Anchor(node, lookup, name, InputSide, h.Viewport)
		if anchor.Dist(p) <= HandleRadius {
			return InputHandle(node.ID, name), true
		}
	}

	if geom.RectAt(node.Position, viewport.NodeSize).Contains(graphPoint) {
		return NodeTarget(node.ID), true
	}

	return Target{}, false
}

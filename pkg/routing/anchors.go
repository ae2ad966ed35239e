package routing

import (
	"slices"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

// HandleSide tells whether a handle accepts or emits connections.
type HandleSide int

const (
	InputSide HandleSide = iota
	OutputSide
)

func (s HandleSide) String() string {
	if s == OutputSide {
		return "output"
	}

	return "input"
}

// HandleAnchor returns the graph-space anchor of a handle on a node placed at pos.
// Inputs sit on the left edge and outputs on the right; several handles on one side
// are spread evenly along it. ok is false when names does not contain handle.
func HandleAnchor(pos geom.Point, names []string, handle string, side HandleSide) (geom.Point, bool) {
	i := slices.Index(names, handle)
	if i < 0 {
		return geom.Point{}, false
	}

	x := pos.X
	if side == OutputSide {
		x += viewport.NodeSize.W
	}

	y := pos.Y + viewport.NodeSize.H*float64(i+1)/float64(len(names)+1)

	return geom.Point{X: x, Y: y}, true
}

// Anchor resolves the screen-space anchor of a node handle.
func Anchor(node models.Node, lookup registry.Lookup, handle string, side HandleSide, vt *viewport.Transform) (geom.Point, bool) {
	handles := registry.HandlesOf(lookup, node.Type)

	names := handles.Inputs
	if side == OutputSide {
		names = handles.Outputs
	}

	p, ok := HandleAnchor(node.Position, names, handle, side)
	if !ok {
		return geom.Point{}, false
	}

	return vt.ToScreen(p), true
}

// ConnectionCurve returns the screen-space curve of a connection in m.
func ConnectionCurve(m *graph.Model, conn models.Connection, vt *viewport.Transform) (Curve, bool) {
	source, ok := m.Node(conn.Source)
	if !ok {
		return Curve{}, false
	}

	target, ok := m.Node(conn.Target)
	if !ok {
		return Curve{}, false
	}

	start, ok := Anchor(source, m.Registry(), conn.SourceHandle, OutputSide, vt)
	if !ok {
		return Curve{}, false
	}

	end, ok := Anchor(target, m.Registry(), conn.TargetHandle, InputSide, vt)
	if !ok {
		return Curve{}, false
	}

	return Route(start, end), true
}

// PreviewCurve is the in-progress curve from an output handle to the pointer.
func PreviewCurve(m *graph.Model, nodeID, handle string, pointer geom.Point, vt *viewport.Transform) (Curve, bool) {
	node, ok := m.Node(nodeID)
	if !ok {
		return Curve{}, false
	}

	start, ok := Anchor(node, m.Registry(), handle, OutputSide, vt)
	if !ok {
		return Curve{}, false
	}

	return Route(start, pointer), true
}

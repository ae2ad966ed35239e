package interaction

import (
	"strings"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/routing"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

// Settings are the editor preferences that affect transitions.
type Settings struct {
	SnapToGrid bool
	GridSize   float64
}

// DefaultSettings matches the canvas defaults: a 20 unit grid with snapping on.
func DefaultSettings() Settings {
	return Settings{SnapToGrid: true, GridSize: 20}
}

// View is the read-only input of Transition.
type View struct {
	Registry  registry.Lookup
	Model     *graph.Model
	Viewport  *viewport.Transform
	Selection *Selection
	Settings  Settings
}

// Transition computes the next state and the patches an event produces. It reads view
// but never mutates it.
func Transition(view View, state State, ev Event) (State, []Patch) {
	switch e := ev.(type) {
	case Wheel:
		if e.DeltaY == 0 {
			return state, nil
		}

		factor := viewport.WheelInFactor
		if e.DeltaY > 0 {
			factor = viewport.WheelOutFactor
		}

		if state.Mode == DraggingNodes {
			state.Offset = state.Offset.Add(view.Viewport.ToGraphDelta(state.Last.Sub(state.Origin)))
			state.Origin = state.Last
		}

		return state, []Patch{ZoomViewport{Point: e.Point, Factor: factor}}
	case Cancel:
		return cancel(view, state)
	case KeyDown:
		if e.Key == KeyEscape {
			return cancel(view, state)
		}
	}

	switch state.Mode {
	case Panning:
		return panning(state, ev)
	case DraggingNodes:
		return dragging(view, state, ev)
	case ConnectingFrom:
		return connecting(state, ev)
	default:
		return idle(view, state, ev)
	}
}

func idle(view View, state State, ev Event) (State, []Patch) {
	switch e := ev.(type) {
	case PointerDown:
		return idlePointerDown(view, state, e)
	case ConnectionClick:
		return state, selectConnection(e.ID)
	case KeyDown:
		return idleKey(view, state, e)
	case DropNodeType:
		if view.Registry != nil {
			if _, ok := view.Registry.NodeType(e.Type); !ok {
				return state, nil
			}
		}

		position := view.Viewport.ToGraph(e.Point)
		if view.Settings.SnapToGrid {
			position = viewport.Snap(position, view.Settings.GridSize)
		}

		return state, []Patch{AddNode{Type: e.Type, Position: position}}
	}

	return state, nil
}

func idlePointerDown(view View, state State, e PointerDown) (State, []Patch) {
	switch e.Target.Kind {
	case routing.TargetCanvas:
		next := State{Mode: Panning, Last: e.Point}
		if view.Selection.Empty() {
			return next, nil
		}

		return next, clearSelection()
	case routing.TargetNode:
		return pressNode(view, e)
	case routing.TargetOutputHandle:
		return State{
			Mode:       ConnectingFrom,
			FromNode:   e.Target.NodeID,
			FromHandle: e.Target.Handle,
			Pointer:    e.Point,
		}, nil
	case routing.TargetConnection:
		return state, selectConnection(e.Target.ConnectionID)
	}

	return state, nil
}

// pressNode starts a drag. An unselected node replaces the selection unless a
// command modifier is held, in which case it is added to the selected nodes and any
// selected connections are dropped.
func pressNode(view View, e PointerDown) (State, []Patch) {
	id := e.Target.NodeID

	selected := view.Selection.Nodes()

	var patches []Patch

	if !view.Selection.HasNode(id) {
		switch {
		case !e.Modifiers.Command():
			selected = nil

			patches = append(patches, ClearSelection{})
		case len(view.Selection.Connections()) > 0:
			patches = append(patches, ClearConnectionSelection{})
		}

		selected = append(selected, id)
		patches = append(patches,
			SelectNodes{IDs: []string{id}},
			Notify{Notification{Kind: NodeSelected, NodeIDs: []string{id}}},
		)
	}

	starts := make([]NodeStart, 0, len(selected))

	for _, nodeID := range selected {
		p, ok := view.Model.Position(nodeID)
		if ok {
			starts = append(starts, NodeStart{ID: nodeID, Position: p})
		}
	}

	return State{Mode: DraggingNodes, Origin: e.Point, Last: e.Point, Starts: starts}, patches
}

func idleKey(view View, state State, e KeyDown) (State, []Patch) {
	if e.Modifiers.Command() {
		switch strings.ToLower(e.Key) {
		case KeyS:
			return state, []Patch{Notify{Notification{Kind: SaveRequested}}}
		case strings.ToLower(KeyEnter):
			return state, []Patch{Notify{Notification{Kind: TestRunRequested, NodeIDs: view.Selection.Nodes()}}}
		case KeyA:
			ids := view.Model.NodeIDs()
			if len(ids) == 0 {
				return state, nil
			}

			return state, []Patch{ClearSelection{}, SelectNodes{IDs: ids}}
		}

		return state, nil
	}

	if e.Key != KeyDelete && e.Key != KeyBackspace {
		return state, nil
	}

	if view.Selection.Empty() {
		return state, nil
	}

	conns := view.Selection.Connections()
	nodes := view.Selection.Nodes()

	return state, []Patch{
		RemoveConnections{IDs: conns},
		RemoveNodes{IDs: nodes},
		ClearSelection{},
		Notify{Notification{Kind: SelectionDeleted, NodeIDs: nodes, ConnectionIDs: conns}},
	}
}

func panning(state State, ev Event) (State, []Patch) {
	switch e := ev.(type) {
	case PointerMove:
		delta := e.Point.Sub(state.Last)
		state.Last = e.Point

		if delta == (geom.Point{}) {
			return state, nil
		}

		return state, []Patch{PanViewport{Delta: delta}}
	case PointerUp:
		return IdleState(), nil
	}

	return state, nil
}

func dragging(view View, state State, ev Event) (State, []Patch) {
	switch e := ev.(type) {
	case PointerMove:
		if len(state.Starts) == 0 {
			return state, nil
		}

		state.Last = e.Point

		delta := state.Offset.Add(view.Viewport.ToGraphDelta(e.Point.Sub(state.Origin)))
		positions := make([]NodePosition, len(state.Starts))

		for i, start := range state.Starts {
			p := start.Position.Add(delta)
			if view.Settings.SnapToGrid {
				p = viewport.Snap(p, view.Settings.GridSize)
			}

			positions[i] = NodePosition{ID: start.ID, Position: p}
		}

		state.Moved = true

		return state, []Patch{SetPositions{Positions: positions}}
	case PointerUp:
		ids := make([]string, len(state.Starts))
		for i, start := range state.Starts {
			ids[i] = start.ID
		}

		return IdleState(), []Patch{Notify{Notification{Kind: NodesMoved, NodeIDs: ids}}}
	}

	return state, nil
}

func connecting(state State, ev Event) (State, []Patch) {
	switch e := ev.(type) {
	case PointerMove:
		state.Pointer = e.Point

		return state, nil
	case PointerUp:
		if e.Target.Kind == routing.TargetInputHandle && e.Target.NodeID != state.FromNode {
			return IdleState(), []Patch{AddConnection{
				Source:       state.FromNode,
				SourceHandle: state.FromHandle,
				Target:       e.Target.NodeID,
				TargetHandle: e.Target.Handle,
			}}
		}

		return IdleState(), nil
	}

	return state, nil
}

// cancel returns to Idle. An interrupted drag puts the nodes back where it began.
// In Idle, cancel clears the selection.
func cancel(view View, state State) (State, []Patch) {
	switch state.Mode {
	case DraggingNodes:
		if !state.Moved {
			return IdleState(), nil
		}

		positions := make([]NodePosition, len(state.Starts))
		for i, start := range state.Starts {
			positions[i] = NodePosition(start)
		}

		return IdleState(), []Patch{SetPositions{Positions: positions}}
	case Panning, ConnectingFrom:
		return IdleState(), nil
	}

	if view.Selection.Empty() {
		return state, nil
	}

	return state, clearSelection()
}

func clearSelection() []Patch {
	return []Patch{ClearSelection{}, Notify{Notification{Kind: SelectionCleared}}}
}

func selectConnection(id string) []Patch {
	return []Patch{
		ClearSelection{},
		SelectConnection{ID: id},
		Notify{Notification{Kind: ConnectionSelected, ConnectionIDs: []string{id}}},
	}
}

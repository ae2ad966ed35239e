package interaction

import (
	"log/slog"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/routing"
	"github.com/dukex/operion-canvas/pkg/viewport"
)

// RenderFunc redraws the canvas. It must not mutate the machine or its model.
type RenderFunc func(m *Machine)

// NotifyFunc receives host notifications.
type NotifyFunc func(n Notification)

type MachineOption func(*Machine)

func WithRenderer(fn RenderFunc) MachineOption {
	return func(m *Machine) { m.render = fn }
}

func WithNotifier(fn NotifyFunc) MachineOption {
	return func(m *Machine) { m.notify = fn }
}

func WithSettings(s Settings) MachineOption {
	return func(m *Machine) { m.settings = s }
}

func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) { m.logger = logger }
}

// Machine processes one event at a time to completion. It is not safe for
// concurrent use.
type Machine struct {
	registry  registry.Lookup
	model     *graph.Model
	viewport  *viewport.Transform
	selection *Selection
	settings  Settings

	state State

	render RenderFunc
	notify NotifyFunc
	logger *slog.Logger
}

func NewMachine(reg registry.Lookup, model *graph.Model, vt *viewport.Transform, opts ...MachineOption) *Machine {
	m := &Machine{
		registry:  reg,
		model:     model,
		viewport:  vt,
		selection: NewSelection(),
		settings:  DefaultSettings(),
		state:     IdleState(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Model() *graph.Model { return m.model }

func (m *Machine) Viewport() *viewport.Transform { return m.viewport }

func (m *Machine) Selection() *Selection { return m.selection }

func (m *Machine) Settings() Settings { return m.settings }

func (m *Machine) SetSettings(s Settings) { m.settings = s }

func (m *Machine) view() View {
	return View{
		Registry:  m.registry,
		Model:     m.model,
		Viewport:  m.viewport,
		Selection: m.selection,
		Settings:  m.settings,
	}
}

// Dispatch runs one event through Transition, applies the resulting patches and
// renders once if anything changed.
func (m *Machine) Dispatch(ev Event) State {
	next, patches := Transition(m.view(), m.state, ev)

	changed := next.Mode != m.state.Mode || next.Pointer != m.state.Pointer
	m.state = next

	for _, p := range patches {
		if m.apply(p) {
			changed = true
		}
	}

	if changed && m.render != nil {
		m.render(m)
	}

	return m.state
}

// PointerDownAt hit-tests p and dispatches a PointerDown on whatever is under it.
func (m *Machine) PointerDownAt(p geom.Point, mods Modifier) State {
	return m.Dispatch(PointerDown{Point: p, Target: m.HitTester().Hit(p), Modifiers: mods})
}

// PointerUpAt hit-tests p and dispatches a PointerUp on whatever is under it.
func (m *Machine) PointerUpAt(p geom.Point) State {
	return m.Dispatch(PointerUp{Point: p, Target: m.HitTester().Hit(p)})
}

func (m *Machine) HitTester() routing.HitTester {
	return routing.HitTester{Model: m.model, Viewport: m.viewport}
}

// Preview returns the pending connection curve while connecting.
func (m *Machine) Preview() (routing.Curve, bool) {
	if m.state.Mode != ConnectingFrom {
		return routing.Curve{}, false
	}

	return routing.PreviewCurve(m.model, m.state.FromNode, m.state.FromHandle, m.state.Pointer, m.viewport)
}

// apply mutates the machine for one patch and reports whether anything visible changed.
func (m *Machine) apply(p Patch) bool {
	switch p := p.(type) {
	case PanViewport:
		m.viewport.PanBy(p.Delta)
	case ZoomViewport:
		m.viewport.ZoomAt(p.Point, p.Factor)
	case SetPositions:
		for _, pos := range p.Positions {
			m.model.SetNodePosition(pos.ID, pos.Position)
		}
	case ClearSelection:
		if m.selection.Empty() {
			return false
		}

		m.selection.Clear()
	case ClearConnectionSelection:
		if len(m.selection.Connections()) == 0 {
			return false
		}

		m.selection.ClearConnections()
	case SelectNodes:
		for _, id := range p.IDs {
			if m.model.HasNode(id) {
				m.selection.AddNode(id)
			}
		}
	case SelectConnection:
		if _, ok := m.model.Connection(p.ID); !ok {
			return false
		}

		m.selection.AddConnection(p.ID)
	case AddConnection:
		return m.addConnection(p)
	case RemoveConnections:
		for _, id := range p.IDs {
			m.model.RemoveConnection(id)
		}
	case RemoveNodes:
		for _, id := range p.IDs {
			m.model.RemoveNode(id)
		}

		m.selection.Prune(m.model.HasNode, func(id string) bool {
			_, ok := m.model.Connection(id)

			return ok
		})
	case AddNode:
		id := m.model.AddNode(p.Type, p.Position)

		m.selection.Clear()
		m.selection.AddNode(id)
		m.emit(Notification{Kind: NodeAdded, NodeIDs: []string{id}})
	case Notify:
		m.emit(p.Notification)

		return false
	default:
		return false
	}

	return true
}

func (m *Machine) addConnection(p AddConnection) bool {
	id, err := m.model.AddConnection(p.Source, p.SourceHandle, p.Target, p.TargetHandle)
	if err != nil {
		m.logger.Debug("Connection rejected",
			"source", p.Source, "target", p.Target, "error", err)
		m.emit(Notification{Kind: ConnectionRejected, NodeIDs: []string{p.Source, p.Target}, Err: err})

		return true
	}

	m.emit(Notification{Kind: ConnectionAdded, NodeIDs: []string{p.Source, p.Target}, ConnectionIDs: []string{id}})

	return true
}

func (m *Machine) emit(n Notification) {
	if m.notify != nil {
		m.notify(n)
	}
}

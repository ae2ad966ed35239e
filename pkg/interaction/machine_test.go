package interaction

import (
	"log/slog"
	"os"
	"testing"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/routing"
	"github.com/dukex/operion-canvas/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	machine       *Machine
	model         *graph.Model
	viewport      *viewport.Transform
	renders       int
	notifications []Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	reg.RegisterDefaultNodeTypes()

	h := &harness{
		model:    graph.New(reg),
		viewport: viewport.New(),
	}

	h.machine = NewMachine(reg, h.model, h.viewport,
		WithRenderer(func(*Machine) { h.renders++ }),
		WithNotifier(func(n Notification) { h.notifications = append(h.notifications, n) }),
	)

	return h
}

func (h *harness) kinds() []NotificationKind {
	out := make([]NotificationKind, len(h.notifications))
	for i, n := range h.notifications {
		out[i] = n.Kind
	}

	return out
}

func (h *harness) count(kind NotificationKind) int {
	n := 0

	for _, k := range h.kinds() {
		if k == kind {
			n++
		}
	}

	return n
}

func TestMachine_DragAtScaleSnapsToGrid(t *testing.T) {
	h := newHarness(t)
	n1 := h.model.AddNode("http_request", geom.Pt(100, 100))

	h.viewport.ZoomAt(geom.Pt(0, 0), 2)
	h.machine.SetSettings(Settings{SnapToGrid: false, GridSize: 20})

	start := h.viewport.ToScreen(geom.Pt(150, 150))
	h.machine.Dispatch(PointerDown{Point: start, Target: routing.NodeTarget(n1)})
	require.Equal(t, DraggingNodes, h.machine.State().Mode)

	h.machine.Dispatch(PointerMove{Point: start.Add(geom.Pt(20, 0))})

	p, _ := h.model.Position(n1)
	assert.InDelta(t, 110, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)

	h.machine.Dispatch(PointerUp{Point: start.Add(geom.Pt(20, 0))})

	// Same drag with snapping on: 110 snaps to the nearest multiple of 20.
	h.model.SetNodePosition(n1, geom.Pt(100, 100))
	h.machine.SetSettings(Settings{SnapToGrid: true, GridSize: 20})

	h.machine.Dispatch(PointerDown{Point: start, Target: routing.NodeTarget(n1)})
	h.machine.Dispatch(PointerMove{Point: start.Add(geom.Pt(20, 0))})

	p, _ = h.model.Position(n1)
	assert.InDelta(t, 120, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)
}

func TestMachine_DragEmitsSingleNodesMoved(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(300, 0))

	h.machine.Selection().AddNode(a)
	h.machine.Selection().AddNode(b)

	h.machine.Dispatch(PointerDown{Point: geom.Pt(10, 10), Target: routing.NodeTarget(a)})
	for i := 1; i <= 5; i++ {
		h.machine.Dispatch(PointerMove{Point: geom.Pt(10+float64(i)*20, 10)})
	}

	assert.Zero(t, h.count(NodesMoved))

	h.machine.Dispatch(PointerUp{Point: geom.Pt(110, 10)})

	assert.Equal(t, 1, h.count(NodesMoved))
	assert.ElementsMatch(t, []string{a, b}, h.notifications[len(h.notifications)-1].NodeIDs)

	pa, _ := h.model.Position(a)
	pb, _ := h.model.Position(b)
	assert.Equal(t, geom.Pt(100, 0), pa)
	assert.Equal(t, geom.Pt(400, 0), pb)
	assert.Equal(t, Idle, h.machine.State().Mode)
}

func TestMachine_NodePressSelectionRule(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(300, 0))
	c := h.model.AddNode("log", geom.Pt(600, 0))

	press := func(id string, mods Modifier) {
		h.machine.Dispatch(PointerDown{Target: routing.NodeTarget(id), Modifiers: mods})
		h.machine.Dispatch(PointerUp{})
	}

	press(a, 0)
	assert.Equal(t, []string{a}, h.machine.Selection().Nodes())

	press(b, 0)
	assert.Equal(t, []string{b}, h.machine.Selection().Nodes())

	press(c, ModCtrl)
	assert.Equal(t, []string{b, c}, h.machine.Selection().Nodes())

	// Pressing an already selected node keeps the multi-selection for dragging.
	h.machine.Dispatch(PointerDown{Target: routing.NodeTarget(b)})
	assert.Len(t, h.machine.State().Starts, 2)
	h.machine.Dispatch(PointerUp{})
	assert.Equal(t, []string{b, c}, h.machine.Selection().Nodes())
}

func TestMachine_PanClearsSelection(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))
	h.machine.Selection().AddNode(a)

	h.machine.Dispatch(PointerDown{Point: geom.Pt(500, 500), Target: routing.Canvas()})
	assert.Equal(t, Panning, h.machine.State().Mode)
	assert.True(t, h.machine.Selection().Empty())

	h.machine.Dispatch(PointerMove{Point: geom.Pt(510, 505)})
	h.machine.Dispatch(PointerMove{Point: geom.Pt(530, 500)})
	assert.Equal(t, geom.Pt(30, 0), h.viewport.Offset)

	h.machine.Dispatch(PointerUp{Point: geom.Pt(530, 500)})
	assert.Equal(t, Idle, h.machine.State().Mode)

	// Panning does not move nodes.
	p, _ := h.model.Position(a)
	assert.Equal(t, geom.Pt(0, 0), p)
}

func TestMachine_ConnectFlow(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(400, 0))

	h.machine.Dispatch(PointerDown{Point: geom.Pt(200, 50), Target: routing.OutputHandle(a, "output")})
	require.Equal(t, ConnectingFrom, h.machine.State().Mode)

	revision := h.model.Revision()
	h.machine.Dispatch(PointerMove{Point: geom.Pt(300, 80)})
	assert.Equal(t, revision, h.model.Revision())

	preview, ok := h.machine.Preview()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(300, 80), preview.End)

	h.machine.Dispatch(PointerUp{Point: geom.Pt(400, 50), Target: routing.InputHandle(b, "input")})
	assert.Equal(t, Idle, h.machine.State().Mode)
	assert.Equal(t, 1, h.model.ConnectionCount())
	assert.Equal(t, 1, h.count(ConnectionAdded))

	_, ok = h.machine.Preview()
	assert.False(t, ok)

	// A second attempt between the same pair is rejected without mutation.
	h.machine.Dispatch(PointerDown{Target: routing.OutputHandle(a, "output")})
	h.machine.Dispatch(PointerUp{Target: routing.InputHandle(b, "input")})
	assert.Equal(t, 1, h.model.ConnectionCount())
	assert.Equal(t, 1, h.count(ConnectionRejected))
}

func TestMachine_ConnectDiscardedElsewhere(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(400, 0))

	targets := []routing.Target{
		routing.Canvas(),
		routing.NodeTarget(b),
		routing.OutputHandle(b, "output"),
		routing.InputHandle(a, "input"),
	}

	for _, target := range targets {
		h.machine.Dispatch(PointerDown{Target: routing.OutputHandle(a, "output")})
		h.machine.Dispatch(PointerUp{Target: target})
		assert.Equal(t, Idle, h.machine.State().Mode)
	}

	assert.Zero(t, h.model.ConnectionCount())
	assert.Zero(t, h.count(ConnectionRejected))
}

func TestMachine_EscapeReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))

	cases := []struct {
		name  string
		enter Event
	}{
		{"panning", PointerDown{Target: routing.Canvas()}},
		{"dragging", PointerDown{Target: routing.NodeTarget(a)}},
		{"connecting", PointerDown{Target: routing.OutputHandle(a, "output")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h.machine.Dispatch(tc.enter)
			require.NotEqual(t, Idle, h.machine.State().Mode)

			h.machine.Dispatch(KeyDown{Key: KeyEscape})
			assert.Equal(t, Idle, h.machine.State().Mode)
		})
	}

	h.machine.Selection().AddNode(a)
	h.machine.Dispatch(Cancel{})
	assert.True(t, h.machine.Selection().Empty())
}

func TestMachine_CancelDragRestoresPositions(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(40, 40))

	h.machine.Dispatch(PointerDown{Point: geom.Pt(50, 50), Target: routing.NodeTarget(a)})
	h.machine.Dispatch(PointerMove{Point: geom.Pt(150, 90)})

	p, _ := h.model.Position(a)
	require.Equal(t, geom.Pt(140, 80), p)

	h.machine.Dispatch(Cancel{})

	p, _ = h.model.Position(a)
	assert.Equal(t, geom.Pt(40, 40), p)
	assert.Zero(t, h.count(NodesMoved))
}

func TestMachine_DeleteSelection(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("data_transform", geom.Pt(300, 0))
	c := h.model.AddNode("log", geom.Pt(600, 0))

	ab, err := h.model.AddConnection(a, "", b, "")
	require.NoError(t, err)
	bc, err := h.model.AddConnection(b, "", c, "")
	require.NoError(t, err)

	h.machine.Dispatch(KeyDown{Key: KeyDelete})
	assert.Equal(t, 3, h.model.Len())

	h.machine.Dispatch(ConnectionClick{ID: ab})
	assert.Equal(t, []string{ab}, h.machine.Selection().Connections())

	h.machine.Dispatch(KeyDown{Key: KeyBackspace})
	assert.Equal(t, 1, h.model.ConnectionCount())
	assert.Equal(t, 3, h.model.Len())

	h.machine.Dispatch(PointerDown{Target: routing.NodeTarget(c)})
	h.machine.Dispatch(PointerUp{})
	h.machine.Dispatch(KeyDown{Key: KeyDelete})

	assert.Equal(t, 2, h.model.Len())
	assert.False(t, h.model.HasNode(c))
	_, ok := h.model.Connection(bc)
	assert.False(t, ok)
	assert.True(t, h.machine.Selection().Empty())
	assert.Equal(t, 2, h.count(SelectionDeleted))
}

func TestMachine_ConnectionClickIsExclusive(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(300, 0))

	conn, err := h.model.AddConnection(a, "", b, "")
	require.NoError(t, err)

	h.machine.Selection().AddNode(a)
	h.machine.Dispatch(PointerDown{Target: routing.ConnectionTarget(conn)})

	assert.Empty(t, h.machine.Selection().Nodes())
	assert.Equal(t, []string{conn}, h.machine.Selection().Connections())
	assert.Equal(t, Idle, h.machine.State().Mode)
}

func TestMachine_CommandPressDropsSelectedConnections(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(300, 0))

	conn, err := h.model.AddConnection(a, "", b, "")
	require.NoError(t, err)

	h.machine.Dispatch(ConnectionClick{ID: conn})
	require.Equal(t, []string{conn}, h.machine.Selection().Connections())

	h.machine.Dispatch(PointerDown{Target: routing.NodeTarget(b), Modifiers: ModCtrl})
	h.machine.Dispatch(PointerUp{})

	assert.Equal(t, []string{b}, h.machine.Selection().Nodes())
	assert.Empty(t, h.machine.Selection().Connections())

	h.machine.Dispatch(KeyDown{Key: KeyDelete})

	assert.False(t, h.model.HasNode(b))
	assert.True(t, h.model.HasNode(a))
	assert.Zero(t, h.model.ConnectionCount())
	assert.True(t, h.machine.Selection().Empty())
}

func TestMachine_WheelDuringDragKeepsMovementIncremental(t *testing.T) {
	h := newHarness(t)
	n1 := h.model.AddNode("log", geom.Pt(0, 0))
	h.machine.SetSettings(Settings{SnapToGrid: false, GridSize: 20})

	start := geom.Pt(10, 10)
	h.machine.Dispatch(PointerDown{Point: start, Target: routing.NodeTarget(n1)})
	h.machine.Dispatch(PointerMove{Point: start.Add(geom.Pt(100, 0))})

	p, _ := h.model.Position(n1)
	require.InDelta(t, 100, p.X, 1e-9)

	h.machine.Dispatch(Wheel{Point: geom.Pt(0, 0), DeltaY: -1})
	require.Equal(t, DraggingNodes, h.machine.State().Mode)

	p, _ = h.model.Position(n1)
	assert.InDelta(t, 100, p.X, 1e-9)

	h.machine.Dispatch(PointerMove{Point: start.Add(geom.Pt(101, 0))})

	p, _ = h.model.Position(n1)
	assert.InDelta(t, 100+1/viewport.WheelInFactor, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)

	h.machine.Dispatch(KeyDown{Key: KeyEscape})

	p, _ = h.model.Position(n1)
	assert.Equal(t, geom.Pt(0, 0), p)
}

func TestMachine_Shortcuts(t *testing.T) {
	h := newHarness(t)
	h.model.AddNode("log", geom.Pt(0, 0))
	h.model.AddNode("log", geom.Pt(300, 0))

	h.machine.Dispatch(KeyDown{Key: "s", Modifiers: ModCtrl})
	h.machine.Dispatch(KeyDown{Key: KeyEnter, Modifiers: ModMeta})
	h.machine.Dispatch(KeyDown{Key: "A", Modifiers: ModCtrl})

	assert.Equal(t, []NotificationKind{SaveRequested, TestRunRequested}, h.kinds())
	assert.Len(t, h.machine.Selection().Nodes(), 2)

	h.machine.Dispatch(Wheel{Point: geom.Pt(0, 0), DeltaY: 1})
	assert.InDelta(t, 0.9, h.viewport.Scale, 1e-9)
}

func TestMachine_DropNodeType(t *testing.T) {
	h := newHarness(t)

	h.machine.Dispatch(DropNodeType{Point: geom.Pt(95, 48), Type: "http_request"})
	require.Equal(t, 1, h.model.Len())

	id := h.model.NodeIDs()[0]
	p, _ := h.model.Position(id)
	assert.Equal(t, geom.Pt(100, 40), p)
	assert.Equal(t, []string{id}, h.machine.Selection().Nodes())

	h.machine.Dispatch(DropNodeType{Point: geom.Pt(0, 0), Type: "no_such_type"})
	assert.Equal(t, 1, h.model.Len())
}

func TestMachine_RenderOncePerEvent(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(300, 0))
	h.machine.Selection().AddNode(a)
	h.machine.Selection().AddNode(b)

	h.machine.Dispatch(PointerDown{Target: routing.NodeTarget(a)})
	before := h.renders

	h.machine.Dispatch(PointerMove{Point: geom.Pt(40, 0)})
	assert.Equal(t, before+1, h.renders)

	// Nothing to do in Idle: no render.
	h.machine.Dispatch(PointerUp{})
	idleRenders := h.renders
	h.machine.Dispatch(PointerMove{Point: geom.Pt(90, 0)})
	assert.Equal(t, idleRenders, h.renders)
}

func TestMachine_HitTestedPointer(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("http_request", geom.Pt(0, 0))
	b := h.model.AddNode("log", geom.Pt(400, 0))

	h.machine.PointerDownAt(geom.Pt(200, 50), 0)
	require.Equal(t, ConnectingFrom, h.machine.State().Mode)
	assert.Equal(t, a, h.machine.State().FromNode)

	h.machine.PointerUpAt(geom.Pt(401, 51))
	assert.Equal(t, 1, h.model.ConnectionCount())
	assert.Equal(t, []string{a}, h.model.Upstream(b))
}

func TestTransition_DoesNotMutateView(t *testing.T) {
	h := newHarness(t)
	a := h.model.AddNode("log", geom.Pt(0, 0))
	h.machine.Selection().AddNode(a)

	revision := h.model.Revision()
	offset := h.viewport.Offset

	state, patches := Transition(h.machine.view(), IdleState(), KeyDown{Key: KeyDelete})

	assert.Equal(t, Idle, state.Mode)
	assert.NotEmpty(t, patches)
	assert.Equal(t, revision, h.model.Revision())
	assert.Equal(t, offset, h.viewport.Offset)
	assert.Equal(t, []string{a}, h.machine.Selection().Nodes())
}

package editor_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dukex/operion-canvas/pkg/autosave"
	"github.com/dukex/operion-canvas/pkg/editor"
	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/interaction"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/persistence/file"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/routing"
	"github.com/dukex/operion-canvas/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return nil
}

func (r *recordingPublisher) ofType(t events.EventType) []eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []eventbus.Event

	for _, e := range r.events {
		if e.GetType() == t {
			out = append(out, e)
		}
	}

	return out
}

func testRegistry() *registry.Registry {
	reg := registry.NewRegistry(log.Discard())
	reg.RegisterDefaultNodeTypes()

	return reg
}

func newSession(t *testing.T, opts ...editor.Option) (*editor.Session, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	opts = append([]editor.Option{
		editor.WithLogger(log.Discard()),
		editor.WithPublisher(publisher),
	}, opts...)

	return editor.New(testRegistry(), "graph-1", opts...), publisher
}

func TestSession_DragPublishesNodesMovedOnce(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	session, publisher := newSession(t)
	id := session.AddNode("http_request", geom.Pt(100, 100))

	session.Dispatch(ctx, interaction.PointerDown{Point: geom.Pt(150, 150), Target: routing.NodeTarget(id)})
	session.Dispatch(ctx, interaction.PointerMove{Point: geom.Pt(170, 150)})
	session.Dispatch(ctx, interaction.PointerMove{Point: geom.Pt(190, 150)})
	session.Dispatch(ctx, interaction.PointerUp{Point: geom.Pt(190, 150), Target: routing.NodeTarget(id)})

	moved := publisher.ofType(events.NodesMovedEvent)
	require.Len(t, moved, 1)
	assert.Equal(t, []string{id}, moved[0].(events.NodesMoved).NodeIDs)
	assert.Equal(t, "graph-1", moved[0].(events.NodesMoved).GraphID)

	node, ok := session.Node(id)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(140, 100), node.Position)
}

func TestSession_ConnectFlowPublishes(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	session, publisher := newSession(t)
	a := session.AddNode("http_request", geom.Pt(0, 0))
	b := session.AddNode("log", geom.Pt(400, 0))

	connect := func() {
		session.Dispatch(ctx, interaction.PointerDown{Point: geom.Pt(200, 50), Target: routing.OutputHandle(a, "output")})
		session.Dispatch(ctx, interaction.PointerMove{Point: geom.Pt(300, 50)})
		session.Dispatch(ctx, interaction.PointerUp{Point: geom.Pt(400, 50), Target: routing.InputHandle(b, "input")})
	}

	connect()
	connect()

	added := publisher.ofType(events.ConnectionAddedEvent)
	require.Len(t, added, 1)
	assert.Equal(t, a, added[0].(events.ConnectionAdded).Source)
	assert.Equal(t, b, added[0].(events.ConnectionAdded).Target)

	rejected := publisher.ofType(events.ConnectionRejectedEvent)
	require.Len(t, rejected, 1)
	assert.NotEmpty(t, rejected[0].(events.ConnectionRejected).Reason)

	assert.Len(t, session.Connections(), 1)
}

func TestSession_DeleteSelectionPublishes(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	session, publisher := newSession(t)
	a := session.AddNode("http_request", geom.Pt(0, 0))
	b := session.AddNode("log", geom.Pt(400, 0))
	_, err := session.Connect(a, "", b, "")
	require.NoError(t, err)

	session.Dispatch(ctx, interaction.PointerDown{Point: geom.Pt(10, 10), Target: routing.NodeTarget(a)})
	session.Dispatch(ctx, interaction.PointerUp{Point: geom.Pt(10, 10), Target: routing.NodeTarget(a)})
	session.Dispatch(ctx, interaction.KeyDown{Key: interaction.KeyDelete})

	deleted := publisher.ofType(events.SelectionDeletedEvent)
	require.Len(t, deleted, 1)
	assert.Contains(t, deleted[0].(events.SelectionDeleted).NodeIDs, a)

	assert.Len(t, session.Nodes(), 1)
	assert.Empty(t, session.Connections())
}

func TestSession_NotifierAndRenderer(t *testing.T) {
	t.Parallel()

	var (
		renders int
		kinds   []interaction.NotificationKind
	)

	session, _ := newSession(t,
		editor.WithRenderer(func(*interaction.Machine) { renders++ }),
		editor.WithNotifier(func(n interaction.Notification) { kinds = append(kinds, n.Kind) }),
	)

	session.Dispatch(t.Context(), interaction.DropNodeType{Point: geom.Pt(33, 47), Type: "log"})

	assert.Equal(t, 1, renders)
	assert.Contains(t, kinds, interaction.NodeAdded)

	nodes := session.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, geom.Pt(40, 40), nodes[0].Position)
}

func TestSession_SetMappingTextKeepsPreviousOnError(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t)
	id := session.AddNode("data_transform", geom.Pt(0, 0))

	require.NoError(t, session.SetMappingText(id, editor.InputMapping, `{"user.name": "{{n1.data.name}}"}`))

	err := session.SetMappingText(id, editor.InputMapping, `{"user.name": `)
	require.Error(t, err)
	assert.True(t, mapping.IsParseError(err))

	node, ok := session.Node(id)
	require.True(t, ok)

	source, ok := node.InputMapping.Get("user.name")
	require.True(t, ok)
	assert.True(t, value.Equal(value.StringOf("{{n1.data.name}}"), source))

	err = session.SetMappingText("missing", editor.InputMapping, `{}`)
	require.ErrorIs(t, err, editor.ErrNodeNotFound)
}

func TestSession_TestResultsDrivePreview(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t)
	fetch := session.AddNode("http_request", geom.Pt(0, 0))
	sink := session.AddNode("log", geom.Pt(400, 0))
	_, err := session.Connect(fetch, "", sink, "")
	require.NoError(t, err)

	body, err := value.Parse([]byte(`{"user": {"name": "Ada", "age": 36}}`))
	require.NoError(t, err)

	updated := session.ApplyTestResults([]editor.NodeResult{
		{NodeID: fetch, Status: models.NodeStatusSuccess, Data: body},
		{NodeID: "ghost", Status: models.NodeStatusSuccess},
		{NodeID: sink, Status: "exploded"},
	})
	assert.Equal(t, 1, updated)

	assert.ElementsMatch(t, []string{fetch + ".data.user.name", fetch + ".data.user.age"}, session.FieldPaths(sink))

	preview, err := session.MappingPreview(sink)
	require.NoError(t, err)
	assert.True(t, value.Equal(body, preview), "empty mapping passes upstream data through")

	require.NoError(t, session.SetMappingText(sink, editor.InputMapping,
		`{"greeting.to": "{{`+fetch+`.data.user.name}}", "missing": "{{`+fetch+`.data.nope}}"}`))

	preview, err = session.MappingPreview(sink)
	require.NoError(t, err)

	out, err := preview.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting": {"to": "Ada"}, "missing": null}`, string(out))

	_, err = session.MappingPreview("ghost")
	require.ErrorIs(t, err, editor.ErrNodeNotFound)
}

func TestSession_SaveAndOpen(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := file.NewPersistence(t.TempDir())

	session, publisher := newSession(t, editor.WithStore(store), editor.WithName("Orders"))
	a := session.AddNode("webhook_trigger", geom.Pt(0, 0))
	b := session.AddNode("database_save", geom.Pt(400, 0))
	_, err := session.Connect(a, "", b, "")
	require.NoError(t, err)

	require.NoError(t, session.Save(ctx))
	require.Len(t, publisher.ofType(events.GraphSavedEvent), 1)

	reopened, err := editor.Open(ctx, testRegistry(), store, "graph-1", editor.WithLogger(log.Discard()))
	require.NoError(t, err)
	assert.Equal(t, "Orders", reopened.Name())
	want, err := json.Marshal(session.Definition())
	require.NoError(t, err)

	got, err := json.Marshal(reopened.Definition())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	require.NoError(t, reopened.Validate())

	require.NoError(t, reopened.Delete(ctx))

	_, err = editor.Open(ctx, testRegistry(), store, "graph-1")
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestSession_SaveWithoutStore(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t)
	require.ErrorIs(t, session.Save(t.Context()), editor.ErrNoStore)
}

func TestSession_ShortcutSaveUsesAutosaver(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := file.NewPersistence(t.TempDir())

	session, publisher := newSession(t,
		editor.WithStore(store),
		editor.WithAutosave(autosave.WithInterval(time.Hour)),
	)
	require.NotNil(t, session.Saver())

	session.AddNode("manual_trigger", geom.Pt(0, 0))
	assert.True(t, session.Saver().Dirty())

	session.Dispatch(ctx, interaction.KeyDown{Key: interaction.KeyS, Modifiers: interaction.ModCtrl})
	session.Saver().Wait()

	assert.Len(t, publisher.ofType(events.SaveRequestedEvent), 1)
	assert.Len(t, publisher.ofType(events.GraphSavedEvent), 1)
	assert.False(t, session.Saver().Dirty())

	stored, err := store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Len(t, stored.Definition.Nodes, 1)

	session.AddNode("log", geom.Pt(300, 0))
	require.NoError(t, session.Close(ctx))

	stored, err = store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Len(t, stored.Definition.Nodes, 2)
}

func TestSession_FitToContent(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t)
	size := geom.Size{W: 800, H: 600}

	assert.False(t, session.FitToContent(size))

	session.AddNode("log", geom.Pt(0, 0))
	session.AddNode("log", geom.Pt(1400, 0))

	require.True(t, session.FitToContent(size))
	assert.InDelta(t, 0.5, session.Viewport().Scale, 1e-9)

	session.ResetView()
	assert.InDelta(t, 1, session.Viewport().Scale, 0)
}

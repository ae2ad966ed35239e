package interaction

import "github.com/dukex/operion-canvas/pkg/geom"

// Patch is one mutation requested by Transition. Machine applies patches in order.
type Patch interface {
	isPatch()
}

type PanViewport struct {
	Delta geom.Point
}

type ZoomViewport struct {
	Point  geom.Point
	Factor float64
}

// NodePosition is an absolute graph-space position for one node.
type NodePosition struct {
	ID       string
	Position geom.Point
}

type SetPositions struct {
	Positions []NodePosition
}

type ClearSelection struct{}

// ClearConnectionSelection drops selected connections. Nodes stay selected.
type ClearConnectionSelection struct{}

// SelectNodes adds nodes to the node selection.
type SelectNodes struct {
	IDs []string
}

// SelectConnection adds a connection to the connection selection.
type SelectConnection struct {
	ID string
}

type AddConnection struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

type RemoveConnections struct {
	IDs []string
}

type RemoveNodes struct {
	IDs []string
}

// AddNode creates a node at a graph-space position and selects it.
type AddNode struct {
	Type     string
	Position geom.Point
}

// Notify forwards a notification to the host.
type Notify struct {
	Notification Notification
}

func (PanViewport) isPatch()              {}
func (ZoomViewport) isPatch()             {}
func (SetPositions) isPatch()             {}
func (ClearSelection) isPatch()           {}
func (ClearConnectionSelection) isPatch() {}
func (SelectNodes) isPatch()              {}
func (SelectConnection) isPatch()         {}
func (AddConnection) isPatch()            {}
func (RemoveConnections) isPatch()        {}
func (RemoveNodes) isPatch()              {}
func (AddNode) isPatch()                  {}
func (Notify) isPatch()                   {}

// NotificationKind names a host-facing notification.
type NotificationKind string

const (
	NodesMoved         NotificationKind = "nodes_moved"
	NodeSelected       NotificationKind = "node_selected"
	NodeAdded          NotificationKind = "node_added"
	ConnectionSelected NotificationKind = "connection_selected"
	ConnectionAdded    NotificationKind = "connection_added"
	ConnectionRejected NotificationKind = "connection_rejected"
	SelectionCleared   NotificationKind = "selection_cleared"
	SelectionDeleted   NotificationKind = "selection_deleted"
	SaveRequested      NotificationKind = "save_requested"
	TestRunRequested   NotificationKind = "test_run_requested"
)

// Notification tells the host that something happened. Which fields are set depends
// on Kind.
type Notification struct {
	Kind          NotificationKind
	NodeIDs       []string
	ConnectionIDs []string
	Err           error
}

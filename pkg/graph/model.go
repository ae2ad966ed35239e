// Package graph implements the in-memory node graph edited on the canvas.
//
// Nodes and connections live in dense slices addressed through an id index. Removal
// swaps the last element into the freed slot, so iteration order is slot order.
// Connections reference nodes by id only; each node keeps the set of its incident
// connection ids so that removing a node cascades in O(degree).
package graph

import (
	"fmt"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/value"
	"github.com/google/uuid"
)

type pair struct {
	source string
	target string
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator replaces the uuid generator used for new node and connection ids.
func WithIDGenerator(gen func() string) Option {
	return func(m *Model) {
		m.newID = gen
	}
}

// Model owns the nodes and connections of one graph. It is not safe for concurrent use.
type Model struct {
	registry registry.Lookup
	newID    func() string

	nodes     []models.Node
	nodeIndex map[string]int

	connections []models.Connection
	connIndex   map[string]int

	adjacency map[string]map[string]struct{}
	pairs     map[pair]string

	revision uint64
}

func New(reg registry.Lookup, opts ...Option) *Model {
	m := &Model{
		registry:  reg,
		newID:     uuid.NewString,
		nodeIndex: make(map[string]int),
		connIndex: make(map[string]int),
		adjacency: make(map[string]map[string]struct{}),
		pairs:     make(map[pair]string),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Revision increases on every successful mutation.
func (m *Model) Revision() uint64 { return m.revision }

func (m *Model) touch() { m.revision++ }

// AddNode places a new node of nodeType at position and returns its id.
// Unknown types are accepted here and reported by Validate.
func (m *Model) AddNode(nodeType string, position geom.Point) string {
	name := nodeType
	if m.registry != nil {
		if t, ok := m.registry.NodeType(nodeType); ok {
			name = t.Label()
		}
	}

	node := models.Node{
		ID:       m.newID(),
		Type:     nodeType,
		Name:     name,
		Position: position,
		Config:   value.MapOf(nil),
		Status:   models.NodeStatusIdle,
	}

	m.insertNode(node)

	return node.ID
}

// AddNodeWithID inserts a fully formed node, keeping its id.
func (m *Model) AddNodeWithID(node models.Node) error {
	if node.ID == "" {
		return fmt.Errorf("node: %w", ErrEmptyID)
	}

	if _, exists := m.nodeIndex[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	}

	if node.Status == "" {
		node.Status = models.NodeStatusIdle
	}

	if node.Config.Kind() != value.Map {
		node.Config = value.MapOf(nil)
	}

	m.insertNode(node.Clone())

	return nil
}

func (m *Model) insertNode(node models.Node) {
	m.nodeIndex[node.ID] = len(m.nodes)
	m.nodes = append(m.nodes, node)
	m.adjacency[node.ID] = make(map[string]struct{})
	m.touch()
}

// RemoveNode deletes a node and every connection touching it. Unknown ids are ignored.
func (m *Model) RemoveNode(id string) bool {
	slot, ok := m.nodeIndex[id]
	if !ok {
		return false
	}

	for connID := range m.adjacency[id] {
		m.removeConnection(connID)
	}

	delete(m.adjacency, id)
	delete(m.nodeIndex, id)

	last := len(m.nodes) - 1
	if slot != last {
		m.nodes[slot] = m.nodes[last]
		m.nodeIndex[m.nodes[slot].ID] = slot
	}

	m.nodes[last] = models.Node{}
	m.nodes = m.nodes[:last]

	m.touch()

	return true
}

// AddConnection links source.sourceHandle to target.targetHandle. Empty handles
// default to output / input. On rejection the returned id is empty and the model
// is unchanged.
func (m *Model) AddConnection(source, sourceHandle, target, targetHandle string) (string, error) {
	conn := models.Connection{
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
		TargetHandle: targetHandle,
	}

	return m.addConnection(conn)
}

// AddConnectionWithID inserts a connection keeping its id. An empty id gets a new one.
func (m *Model) AddConnectionWithID(conn models.Connection) (string, error) {
	if conn.ID != "" {
		if _, exists := m.connIndex[conn.ID]; exists {
			return "", fmt.Errorf("%w: %s", ErrDuplicateConnID, conn.ID)
		}
	}

	return m.addConnection(conn)
}

func (m *Model) addConnection(conn models.Connection) (string, error) {
	if conn.SourceHandle == "" {
		conn.SourceHandle = models.DefaultOutputHandle
	}

	if conn.TargetHandle == "" {
		conn.TargetHandle = models.DefaultInputHandle
	}

	err := m.CanConnect(conn.Source, conn.SourceHandle, conn.Target, conn.TargetHandle)
	if err != nil {
		return "", err
	}

	if conn.ID == "" {
		conn.ID = m.newID()
	}

	m.connIndex[conn.ID] = len(m.connections)
	m.connections = append(m.connections, conn)
	m.adjacency[conn.Source][conn.ID] = struct{}{}
	m.adjacency[conn.Target][conn.ID] = struct{}{}
	m.pairs[pair{conn.Source, conn.Target}] = conn.ID

	m.touch()

	return conn.ID, nil
}

// CanConnect reports why a connection would be rejected, or nil if it would be accepted.
func (m *Model) CanConnect(source, sourceHandle, target, targetHandle string) error {
	if source == target {
		return ErrSelfConnection
	}

	sourceSlot, ok := m.nodeIndex[source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, source)
	}

	targetSlot, ok := m.nodeIndex[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, target)
	}

	if !registry.HandlesOf(m.registry, m.nodes[sourceSlot].Type).HasOutput(sourceHandle) {
		return fmt.Errorf("%w: output %q on %s", ErrUnknownHandle, sourceHandle, source)
	}

	if !registry.HandlesOf(m.registry, m.nodes[targetSlot].Type).HasInput(targetHandle) {
		return fmt.Errorf("%w: input %q on %s", ErrUnknownHandle, targetHandle, target)
	}

	if existing, dup := m.pairs[pair{source, target}]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateConnection, existing)
	}

	return nil
}

// RemoveConnection deletes a connection. Unknown ids are ignored.
func (m *Model) RemoveConnection(id string) bool {
	if !m.removeConnection(id) {
		return false
	}

	m.touch()

	return true
}

func (m *Model) removeConnection(id string) bool {
	slot, ok := m.connIndex[id]
	if !ok {
		return false
	}

	conn := m.connections[slot]

	delete(m.adjacency[conn.Source], id)
	delete(m.adjacency[conn.Target], id)
	delete(m.pairs, pair{conn.Source, conn.Target})
	delete(m.connIndex, id)

	last := len(m.connections) - 1
	if slot != last {
		m.connections[slot] = m.connections[last]
		m.connIndex[m.connections[slot].ID] = slot
	}

	m.connections[last] = models.Connection{}
	m.connections = m.connections[:last]

	return true
}

// ConnectionsOf returns every connection with nodeID at either end, in slot order.
func (m *Model) ConnectionsOf(nodeID string) []models.Connection {
	incident, ok := m.adjacency[nodeID]
	if !ok || len(incident) == 0 {
		return nil
	}

	out := make([]models.Connection, 0, len(incident))

	for _, conn := range m.connections {
		if _, ok := incident[conn.ID]; ok {
			out = append(out, conn)
		}
	}

	return out
}

// Upstream returns the ids of nodes with a connection into nodeID.
func (m *Model) Upstream(nodeID string) []string {
	var out []string

	for _, conn := range m.ConnectionsOf(nodeID) {
		if conn.Target == nodeID {
			out = append(out, conn.Source)
		}
	}

	return out
}

// MoveNode translates a node by delta. Unknown ids are ignored.
func (m *Model) MoveNode(id string, delta geom.Point) {
	slot, ok := m.nodeIndex[id]
	if !ok {
		return
	}

	m.nodes[slot].Position = m.nodes[slot].Position.Add(delta)
	m.touch()
}

// SetNodePosition places a node at an absolute graph-space position.
func (m *Model) SetNodePosition(id string, p geom.Point) {
	slot, ok := m.nodeIndex[id]
	if !ok || m.nodes[slot].Position == p {
		return
	}

	m.nodes[slot].Position = p
	m.touch()
}

// Position returns the graph-space position of a node.
func (m *Model) Position(id string) (geom.Point, bool) {
	slot, ok := m.nodeIndex[id]
	if !ok {
		return geom.Point{}, false
	}

	return m.nodes[slot].Position, true
}

// UpdateNode edits a node in place. The id, type and position cannot be changed
// through fn.
func (m *Model) UpdateNode(id string, fn func(*models.Node)) bool {
	slot, ok := m.nodeIndex[id]
	if !ok {
		return false
	}

	node := &m.nodes[slot]
	id, nodeType, position := node.ID, node.Type, node.Position

	fn(node)

	node.ID, node.Type, node.Position = id, nodeType, position

	m.touch()

	return true
}

// Node returns a copy of the node with the given id.
func (m *Model) Node(id string) (models.Node, bool) {
	slot, ok := m.nodeIndex[id]
	if !ok {
		return models.Node{}, false
	}

	return m.nodes[slot].Clone(), true
}

func (m *Model) HasNode(id string) bool {
	_, ok := m.nodeIndex[id]

	return ok
}

// Nodes returns copies of all nodes in slot order.
func (m *Model) Nodes() []models.Node {
	out := make([]models.Node, len(m.nodes))
	for i, node := range m.nodes {
		out[i] = node.Clone()
	}

	return out
}

// NodeIDs returns all node ids in slot order.
func (m *Model) NodeIDs() []string {
	out := make([]string, len(m.nodes))
	for i, node := range m.nodes {
		out[i] = node.ID
	}

	return out
}

func (m *Model) Connection(id string) (models.Connection, bool) {
	slot, ok := m.connIndex[id]
	if !ok {
		return models.Connection{}, false
	}

	return m.connections[slot], true
}

// Connections returns all connections in slot order.
func (m *Model) Connections() []models.Connection {
	out := make([]models.Connection, len(m.connections))
	copy(out, m.connections)

	return out
}

func (m *Model) Len() int { return len(m.nodes) }

func (m *Model) ConnectionCount() int { return len(m.connections) }

// Clear removes every node and connection.
func (m *Model) Clear() {
	if len(m.nodes) == 0 && len(m.connections) == 0 {
		return
	}

	m.nodes = nil
	m.connections = nil
	m.nodeIndex = make(map[string]int)
	m.connIndex = make(map[string]int)
	m.adjacency = make(map[string]map[string]struct{})
	m.pairs = make(map[pair]string)

	m.touch()
}

// Registry returns the node-type lookup the model was built with.
func (m *Model) Registry() registry.Lookup { return m.registry }

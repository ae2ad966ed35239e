package interaction

import "slices"

// idSet is an insertion-ordered set of ids.
type idSet struct {
	order []string
	index map[string]struct{}
}

func (s *idSet) add(id string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}

	if _, ok := s.index[id]; ok {
		return
	}

	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *idSet) remove(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}

	delete(s.index, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

func (s *idSet) has(id string) bool {
	_, ok := s.index[id]

	return ok
}

func (s *idSet) clear() {
	s.order = nil
	s.index = nil
}

// Selection tracks selected nodes and selected connections as independent sets.
type Selection struct {
	nodes       idSet
	connections idSet
}

func NewSelection() *Selection { return &Selection{} }

func (s *Selection) HasNode(id string) bool { return s.nodes.has(id) }

func (s *Selection) HasConnection(id string) bool { return s.connections.has(id) }

// Nodes returns the selected node ids in selection order.
func (s *Selection) Nodes() []string { return slices.Clone(s.nodes.order) }

// Connections returns the selected connection ids in selection order.
func (s *Selection) Connections() []string { return slices.Clone(s.connections.order) }

func (s *Selection) Empty() bool {
	return len(s.nodes.order) == 0 && len(s.connections.order) == 0
}

func (s *Selection) Len() int { return len(s.nodes.order) + len(s.connections.order) }

func (s *Selection) AddNode(id string) { s.nodes.add(id) }

func (s *Selection) AddConnection(id string) { s.connections.add(id) }

func (s *Selection) RemoveNode(id string) { s.nodes.remove(id) }

func (s *Selection) RemoveConnection(id string) { s.connections.remove(id) }

// ClearConnections drops the connection selection and keeps the nodes.
func (s *Selection) ClearConnections() { s.connections.clear() }

func (s *Selection) Clear() {
	s.nodes.clear()
	s.connections.clear()
}

// Prune drops ids for which exists reports false.
func (s *Selection) Prune(nodeExists, connectionExists func(string) bool) {
	for _, id := range s.Nodes() {
		if !nodeExists(id) {
			s.nodes.remove(id)
		}
	}

	for _, id := range s.Connections() {
		if !connectionExists(id) {
			s.connections.remove(id)
		}
	}
}

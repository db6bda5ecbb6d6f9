// Package vm executes compiled SLANG bytecode (internal/bytecode) against a
// memory-mapped database, producing ordered node sets (spec §4.7.4).
package vm

import "github.com/lingodb/lingo/internal/core"

// NodeSet is an ordered collection of node IDs with O(1) membership testing.
// Insertion order is preserved; duplicates are silently dropped on push.
type NodeSet struct {
	nodes []core.NodeID
	set   map[core.NodeID]struct{}
}

// NewNodeSet returns an empty set.
func NewNodeSet() NodeSet {
	return NodeSet{set: make(map[core.NodeID]struct{})}
}

// SingleNode returns a set containing exactly one node.
func SingleNode(id core.NodeID) NodeSet {
	s := NewNodeSet()
	s.Push(id)
	return s
}

// Push appends id if it isn't already present.
func (s *NodeSet) Push(id core.NodeID) {
	if s.set == nil {
		s.set = make(map[core.NodeID]struct{})
	}
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.nodes = append(s.nodes, id)
}

// Extend pushes every id in ids, in order.
func (s *NodeSet) Extend(ids []core.NodeID) {
	for _, id := range ids {
		s.Push(id)
	}
}

// Len returns the number of distinct nodes in the set.
func (s NodeSet) Len() int { return len(s.nodes) }

// IsEmpty reports whether the set has no members.
func (s NodeSet) IsEmpty() bool { return len(s.nodes) == 0 }

// Truncate keeps only the first n members, in existing order.
func (s *NodeSet) Truncate(n int) {
	if n >= len(s.nodes) {
		return
	}
	for _, id := range s.nodes[n:] {
		delete(s.set, id)
	}
	s.nodes = s.nodes[:n]
}

// Contains reports whether id is a member.
func (s NodeSet) Contains(id core.NodeID) bool {
	_, ok := s.set[id]
	return ok
}

// Slice returns the set's members in insertion order. The caller must not
// mutate the returned slice.
func (s NodeSet) Slice() []core.NodeID { return s.nodes }

// Clone returns an independent copy of s.
func (s NodeSet) Clone() NodeSet {
	out := NodeSet{
		nodes: append([]core.NodeID(nil), s.nodes...),
		set:   make(map[core.NodeID]struct{}, len(s.set)),
	}
	for id := range s.set {
		out.set[id] = struct{}{}
	}
	return out
}

// Package network holds the play graph: a node arena addressed by stable
// handles and the set of connections between them, plus the rules for
// creating, expiring and searching connections.
package network

import (
	"math"
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// Graph owns the nodes and connections of one level.
// Connections hold node handles, never node pointers.
type Graph struct {
	nodes []*domain.Node
	conns []*domain.Connection
	clock domain.Clock
}

// NewGraph builds a graph from level node placements. Handles are assigned
// in placement order starting at 0.
func NewGraph(specs []domain.NodeSpec, clock domain.Clock) *Graph {
	g := &Graph{
		nodes: make([]*domain.Node, 0, len(specs)),
		conns: make([]*domain.Connection, 0),
		clock: clock,
	}
	for i, s := range specs {
		kind := s.Kind
		if kind == "" {
			kind = domain.NodeNeutral
		}
		g.nodes = append(g.nodes, &domain.Node{
			ID:     domain.NodeID(i),
			X:      s.X,
			Y:      s.Y,
			Radius: domain.DefaultNodeRadius,
			Kind:   kind,
		})
	}
	return g
}

// Now returns the graph clock's current time.
func (g *Graph) Now() time.Time {
	return g.clock.Now()
}

// Node returns the node for a handle.
func (g *Graph) Node(id domain.NodeID) (*domain.Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Kind returns the kind of a node, or "" for an unknown handle.
func (g *Graph) Kind(id domain.NodeID) domain.NodeKind {
	n, ok := g.Node(id)
	if !ok {
		return ""
	}
	return n.Kind
}

// SetKind changes a node's kind. Unknown handles are ignored.
func (g *Graph) SetKind(id domain.NodeID, kind domain.NodeKind) {
	if n, ok := g.Node(id); ok {
		n.Kind = kind
	}
}

// Nodes returns the node arena in handle order.
func (g *Graph) Nodes() []*domain.Node {
	return g.nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// FirstOfKind returns the lowest handle with the given kind.
func (g *Graph) FirstOfKind(kind domain.NodeKind) domain.NodeID {
	for _, n := range g.nodes {
		if n.Kind == kind {
			return n.ID
		}
	}
	return domain.NoNode
}

// OfKind returns every handle with the given kind.
func (g *Graph) OfKind(kind domain.NodeKind) []domain.NodeID {
	var ids []domain.NodeID
	for _, n := range g.nodes {
		if n.Kind == kind {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Distance returns the Euclidean distance between two nodes, or +Inf if
// either handle is unknown.
func (g *Graph) Distance(a, b domain.NodeID) float64 {
	na, okA := g.Node(a)
	nb, okB := g.Node(b)
	if !okA || !okB {
		return math.Inf(1)
	}
	return na.DistanceTo(nb)
}

// Connections returns every stored connection, expired or not.
// The returned slice is a copy; the connections are shared.
func (g *Graph) Connections() []*domain.Connection {
	out := make([]*domain.Connection, len(g.conns))
	copy(out, g.conns)
	return out
}

// ConnectionCount returns the number of stored connections.
func (g *Graph) ConnectionCount() int {
	return len(g.conns)
}

// Active returns connections that have not expired.
func (g *Graph) Active() []*domain.Connection {
	now := g.clock.Now()
	out := make([]*domain.Connection, 0, len(g.conns))
	for _, c := range g.conns {
		if !c.Expired(now) {
			out = append(out, c)
		}
	}
	return out
}

// Linked returns the stored connection between a and b in either order.
func (g *Graph) Linked(a, b domain.NodeID) (*domain.Connection, bool) {
	for _, c := range g.conns {
		if c.Links(a, b) {
			return c, true
		}
	}
	return nil, false
}

// ActiveLink reports whether a and b are joined by an unexpired connection.
func (g *Graph) ActiveLink(a, b domain.NodeID) bool {
	c, ok := g.Linked(a, b)
	return ok && !c.Expired(g.clock.Now())
}

// Touching returns the active connections with id as an endpoint.
func (g *Graph) Touching(id domain.NodeID) []*domain.Connection {
	now := g.clock.Now()
	var out []*domain.Connection
	for _, c := range g.conns {
		if c.Touches(id) && !c.Expired(now) {
			out = append(out, c)
		}
	}
	return out
}

// Neighbors returns nodes joined to id by an active connection, in
// connection order.
func (g *Graph) Neighbors(id domain.NodeID) []domain.NodeID {
	touching := g.Touching(id)
	out := make([]domain.NodeID, 0, len(touching))
	for _, c := range touching {
		if other := c.Other(id); other != id {
			out = append(out, other)
		}
	}
	return out
}

// Contains reports whether c is still stored.
func (g *Graph) Contains(c *domain.Connection) bool {
	for _, existing := range g.conns {
		if existing == c {
			return true
		}
	}
	return false
}

// Remove deletes c if it is still stored. It reports false for a connection
// that another subsystem already removed.
func (g *Graph) Remove(c *domain.Connection) bool {
	for i, existing := range g.conns {
		if existing == c {
			g.conns = append(g.conns[:i], g.conns[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveWhere deletes every connection matching pred and returns them.
func (g *Graph) RemoveWhere(pred func(*domain.Connection) bool) []*domain.Connection {
	var removed []*domain.Connection
	kept := g.conns[:0]
	for _, c := range g.conns {
		if pred(c) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(g.conns); i++ {
		g.conns[i] = nil
	}
	g.conns = kept
	return removed
}

// AdvanceNodes steps the cosmetic pulse of every node.
func (g *Graph) AdvanceNodes(dt time.Duration) {
	for _, n := range g.nodes {
		n.Pulse = math.Mod(n.Pulse+dt.Seconds(), 1.0)
	}
}

func (g *Graph) add(c *domain.Connection) {
	g.conns = append(g.conns, c)
}

package network

import (
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// AmplifierCostFactor discounts links that touch an amplifier node.
const AmplifierCostFactor = 0.7

// Manager applies the connection rules to a Graph: creation with energy
// accounting, reachability, path enumeration and per-frame expiry.
type Manager struct {
	graph *Graph
}

// NewManager creates a connection manager over g.
func NewManager(g *Graph) *Manager {
	return &Manager{graph: g}
}

// Graph returns the managed graph.
func (m *Manager) Graph() *Graph {
	return m.graph
}

// Quote returns the kind a link between a and b would get and its price,
// after the firewall and amplifier rules.
func (m *Manager) Quote(a, b domain.NodeID, kind domain.ConnectionKind, costs domain.CostTable) (domain.ConnectionKind, int) {
	ka, kb := m.graph.Kind(a), m.graph.Kind(b)

	if ka == domain.NodeFirewall || kb == domain.NodeFirewall {
		kind = domain.ConnFirewall
	}

	multiplier := 1.0
	if ka == domain.NodeAmplifier || kb == domain.NodeAmplifier {
		multiplier = AmplifierCostFactor
	}

	return kind, int(float64(costs.ConnectionCost(kind)) * multiplier)
}

// CreateConnection tries to link a and b. It returns the energy left and the
// outcome; every outcome other than OutcomeCreated leaves energy and the
// connection set untouched. A zero duration creates a permanent link.
func (m *Manager) CreateConnection(
	a, b domain.NodeID,
	kind domain.ConnectionKind,
	costs domain.CostTable,
	energy int,
	maxLength float64,
	duration time.Duration,
) (int, domain.Outcome) {
	na, okA := m.graph.Node(a)
	nb, okB := m.graph.Node(b)
	if !okA || !okB || a == b {
		return energy, domain.OutcomeInvalidEndpoints
	}
	if !kind.Valid() {
		return energy, domain.OutcomeInvalidKind
	}

	if na.DistanceTo(nb) > maxLength {
		return energy, domain.OutcomeTooLong
	}

	if isStartFinishPair(na.Kind, nb.Kind) {
		return energy, domain.OutcomeInvalidEndpoints
	}

	kind, cost := m.Quote(a, b, kind, costs)

	if energy < cost {
		return energy, domain.OutcomeRejected
	}
	if _, exists := m.graph.Linked(a, b); exists {
		return energy, domain.OutcomeRejected
	}

	m.graph.add(&domain.Connection{
		A:         a,
		B:         b,
		Kind:      kind,
		CreatedAt: m.graph.Now(),
		Duration:  duration,
	})
	return energy - cost, domain.OutcomeCreated
}

// Seed adds a permanent link without charging energy, for connections that
// are part of a level's initial layout. An empty kind means normal. It
// reports false for unknown or duplicate endpoints and unknown kinds.
func (m *Manager) Seed(a, b domain.NodeID, kind domain.ConnectionKind) bool {
	if _, ok := m.graph.Node(a); !ok || a == b {
		return false
	}
	if _, ok := m.graph.Node(b); !ok {
		return false
	}
	if _, exists := m.graph.Linked(a, b); exists {
		return false
	}
	if kind == "" {
		kind = domain.ConnNormal
	}
	if !kind.Valid() {
		return false
	}
	m.graph.add(&domain.Connection{A: a, B: b, Kind: kind, CreatedAt: m.graph.Now()})
	return true
}

func isStartFinishPair(a, b domain.NodeKind) bool {
	return (a == domain.NodeStart && b == domain.NodeFinish) ||
		(a == domain.NodeFinish && b == domain.NodeStart)
}

// Advance ages every connection and removes the ones whose duration has
// elapsed. It returns the removed connections.
func (m *Manager) Advance(dt time.Duration) []*domain.Connection {
	now := m.graph.Now()
	for _, c := range m.graph.conns {
		c.Age += dt
	}
	return m.graph.RemoveWhere(func(c *domain.Connection) bool {
		return c.Expired(now)
	})
}

// IsConnected reports whether finish can be reached from start over active
// connections. Virus nodes are dead ends: they are never traversed and
// never count as the target.
func (m *Manager) IsConnected(start, finish domain.NodeID) bool {
	if m.graph.Kind(finish) == domain.NodeVirus {
		return false
	}
	return m.Reaches(start, finish)
}

// Reaches reports whether target can be reached from start over active
// connections without passing through a virus node. Unlike IsConnected,
// a virus target itself may be reached.
func (m *Manager) Reaches(start, target domain.NodeID) bool {
	if _, ok := m.graph.Node(start); !ok {
		return false
	}
	if _, ok := m.graph.Node(target); !ok {
		return false
	}
	adj := m.adjacency()
	visited := make(map[domain.NodeID]bool)
	return m.dfs(adj, start, target, visited)
}

func (m *Manager) dfs(adj map[domain.NodeID][]domain.NodeID, current, target domain.NodeID, visited map[domain.NodeID]bool) bool {
	if current == target {
		return true
	}
	if visited[current] || m.graph.Kind(current) == domain.NodeVirus {
		return false
	}
	visited[current] = true

	for _, next := range adj[current] {
		if visited[next] {
			continue
		}
		if m.dfs(adj, next, target, visited) {
			return true
		}
	}
	return false
}

// FindAllPaths enumerates every simple path from start to finish over active
// connections, each path listing the nodes from start to finish inclusive.
// Virus nodes are excluded as in IsConnected.
func (m *Manager) FindAllPaths(start, finish domain.NodeID) [][]domain.NodeID {
	if _, ok := m.graph.Node(start); !ok {
		return nil
	}
	if k := m.graph.Kind(finish); k == "" || k == domain.NodeVirus {
		return nil
	}

	adj := m.adjacency()
	visited := make(map[domain.NodeID]bool)
	var paths [][]domain.NodeID
	var path []domain.NodeID

	var walk func(current domain.NodeID)
	walk = func(current domain.NodeID) {
		if current == finish {
			found := make([]domain.NodeID, len(path)+1)
			copy(found, path)
			found[len(path)] = finish
			paths = append(paths, found)
			return
		}
		if visited[current] || m.graph.Kind(current) == domain.NodeVirus {
			return
		}

		visited[current] = true
		path = append(path, current)

		for _, next := range adj[current] {
			if !visited[next] {
				walk(next)
			}
		}

		path = path[:len(path)-1]
		delete(visited, current)
	}
	walk(start)

	return paths
}

// adjacency snapshots active links as an adjacency list in connection order.
func (m *Manager) adjacency() map[domain.NodeID][]domain.NodeID {
	adj := make(map[domain.NodeID][]domain.NodeID)
	for _, c := range m.graph.Active() {
		if c.A == c.B {
			continue
		}
		adj[c.A] = append(adj[c.A], c.B)
		adj[c.B] = append(adj[c.B], c.A)
	}
	return adj
}

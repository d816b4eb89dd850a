package usecase

import (
	"container/heap"

	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/profile"
)

// Action is what one autopilot step did.
type Action string

const (
	ActionNone     Action = ""
	ActionConnect  Action = "connect"
	ActionDestroy  Action = "destroy"
	ActionEnhanced Action = "enhanced"
)

// Autopilot plays a match one action at a time: clear isolated viruses,
// then build the cheapest missing link on the best start-to-finish route.
// It is used by headless runs and the level sweep.
type Autopilot struct {
	logger *zap.Logger
}

// NewAutopilot creates an autopilot.
func NewAutopilot(logger *zap.Logger) *Autopilot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autopilot{logger: logger}
}

// Step performs at most one player action on m.
func (p *Autopilot) Step(m *Match) Action {
	if m.State() != domain.StatePlaying {
		return ActionNone
	}

	g := m.Graph()
	for _, id := range g.OfKind(domain.NodeVirus) {
		if m.IsIsolated(id) && m.DestroyVirus(id) != domain.DestroyNone {
			return ActionDestroy
		}
	}

	// Enhanced links survive silence waves.
	if m.Level().Waves && !m.Level().TemporaryConnections &&
		m.Profile().CanUseEnhancedConnections() && !m.EnhancedMode() {
		m.ToggleEnhancedMode()
		if p.Route(m) != nil {
			return ActionEnhanced
		}
		m.ToggleEnhancedMode()
	}

	route := p.Route(m)
	if route == nil {
		return p.clearBlocker(m)
	}

	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		if g.ActiveLink(a, b) {
			continue
		}
		outcome := m.Connect(a, b)
		p.logger.Debug("autopilot link",
			zap.Int("a", int(a)),
			zap.Int("b", int(b)),
			zap.String("outcome", outcome.String()))
		if outcome == domain.OutcomeCreated {
			return ActionConnect
		}
		return ActionNone
	}
	return ActionNone
}

// clearBlocker spends antivirus on the virus closest to start when no
// route exists.
func (p *Autopilot) clearBlocker(m *Match) Action {
	if !m.Profile().CanUseAntivirus() || m.Energy() < profile.AntivirusCost {
		return ActionNone
	}
	g := m.Graph()
	best := domain.NoNode
	bestDist := 0.0
	for _, id := range g.OfKind(domain.NodeVirus) {
		d := g.Distance(id, m.Start())
		if best == domain.NoNode || d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == domain.NoNode {
		return ActionNone
	}
	if m.DestroyVirus(best) == domain.DestroyNone {
		return ActionNone
	}
	return ActionDestroy
}

// Route returns the cheapest node sequence from start to finish, counting
// existing active links as free and missing links at their quoted price.
// It returns nil when no affordable route exists.
func (p *Autopilot) Route(m *Match) []domain.NodeID {
	g := m.Graph()
	start, finish := m.Start(), m.Finish()
	if start == domain.NoNode || finish == domain.NoNode {
		return nil
	}
	kind, _ := m.NextKind()
	maxLen := m.Level().MaxConnectionLength
	n := g.NodeCount()

	dist := make([]int, n)
	prev := make([]domain.NodeID, n)
	for i := range dist {
		dist[i] = -1
		prev[i] = domain.NoNode
	}
	dist[start] = 0

	pq := &routeQueue{{node: start, cost: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(routeItem)
		if cur.cost > dist[cur.node] {
			continue
		}
		if cur.node == finish {
			break
		}
		for v := 0; v < n; v++ {
			next := domain.NodeID(v)
			w, ok := p.edgeCost(m, cur.node, next, kind, maxLen)
			if !ok {
				continue
			}
			nd := cur.cost + w
			if nd > m.Energy() {
				continue
			}
			if dist[next] < 0 || nd < dist[next] {
				dist[next] = nd
				prev[next] = cur.node
				heap.Push(pq, routeItem{node: next, cost: nd})
			}
		}
	}

	if dist[finish] < 0 {
		return nil
	}
	var route []domain.NodeID
	for at := finish; at != domain.NoNode; at = prev[at] {
		route = append([]domain.NodeID{at}, route...)
	}
	return route
}

// edgeCost prices the hop from a to b. Virus nodes are never entered, and
// stored but expired links cannot be rebuilt.
func (p *Autopilot) edgeCost(m *Match, a, b domain.NodeID, kind domain.ConnectionKind, maxLen float64) (int, bool) {
	g := m.Graph()
	if a == b || g.Kind(b) == domain.NodeVirus {
		return 0, false
	}
	if g.ActiveLink(a, b) {
		return 0, true
	}
	if _, stored := g.Linked(a, b); stored {
		return 0, false
	}
	if g.Distance(a, b) > maxLen {
		return 0, false
	}
	ka, kb := g.Kind(a), g.Kind(b)
	if (ka == domain.NodeStart && kb == domain.NodeFinish) || (ka == domain.NodeFinish && kb == domain.NodeStart) {
		return 0, false
	}
	_, cost := m.Connections().Quote(a, b, kind, m.Profile())
	return cost, true
}

type routeItem struct {
	node domain.NodeID
	cost int
}

// routeQueue is a min-heap of route items ordered by cost, then node.
type routeQueue []routeItem

func (q routeQueue) Len() int { return len(q) }
func (q routeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].node < q[j].node
}
func (q routeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *routeQueue) Push(x any) { *q = append(*q, x.(routeItem)) }
func (q *routeQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

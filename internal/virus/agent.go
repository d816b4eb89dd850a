// Package virus implements the autonomous agent bound to each virus node.
package virus

import (
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/network"
)

const (
	InitialHealth = 3
	MaxHealth     = 5

	MinSpreadInterval  = 4 * time.Second
	MaxSpreadInterval  = 8 * time.Second
	SpreadFloor        = 2 * time.Second
	SpreadStep         = 1 * time.Second
	AttackInterval     = 10 * time.Second
	MoveInterval       = 15 * time.Second
	EvolutionInterval  = 45 * time.Second
	normalAttackWeight = 2
	otherAttackWeight  = 1
)

// Actions reports what an agent did during one Update.
type Actions struct {
	Evolved  bool
	Infected domain.NodeID
	Severed  *domain.Connection
	Moved    bool
	From, To domain.NodeID
}

// Agent is the per-virus state machine. Its four countdowns run
// independently and are re-armed when they fire.
type Agent struct {
	node           domain.NodeID
	health         int
	stage          int
	spreadInterval time.Duration

	spreadLeft time.Duration
	attackLeft time.Duration
	moveLeft   time.Duration
	evolveLeft time.Duration

	rng domain.Random
}

// NewAgent binds an agent to a virus node. The spread interval is drawn
// uniformly from [4s, 8s] at millisecond granularity.
func NewAgent(node domain.NodeID, rng domain.Random) *Agent {
	spread := randomDuration(rng, MinSpreadInterval, MaxSpreadInterval)
	return &Agent{
		node:           node,
		health:         InitialHealth,
		stage:          1,
		spreadInterval: spread,
		spreadLeft:     spread,
		attackLeft:     AttackInterval,
		moveLeft:       MoveInterval,
		evolveLeft:     EvolutionInterval,
		rng:            rng,
	}
}

func randomDuration(rng domain.Random, lo, hi time.Duration) time.Duration {
	spanMs := int((hi - lo) / time.Millisecond)
	return lo + time.Duration(rng.IntN(spanMs+1))*time.Millisecond
}

// Node returns the handle of the host node.
func (a *Agent) Node() domain.NodeID { return a.node }

// Health returns the hit points, capped at MaxHealth.
func (a *Agent) Health() int { return a.health }

// Stage returns the evolution stage, starting at 1.
func (a *Agent) Stage() int { return a.stage }

// SpreadInterval returns the current delay between spread attempts.
func (a *Agent) SpreadInterval() time.Duration { return a.spreadInterval }

// Alive reports whether the host node still has virus kind.
func (a *Agent) Alive(g *network.Graph) bool {
	return g.Kind(a.node) == domain.NodeVirus
}

// Update advances the countdowns by dt and fires evolve, spread, attack and
// move in that order.
func (a *Agent) Update(g *network.Graph, dt time.Duration) Actions {
	acts := Actions{Infected: domain.NoNode, From: domain.NoNode, To: domain.NoNode}

	a.evolveLeft -= dt
	a.spreadLeft -= dt
	a.attackLeft -= dt
	a.moveLeft -= dt

	if a.evolveLeft <= 0 {
		a.evolveLeft = EvolutionInterval
		a.Evolve()
		acts.Evolved = true
	}

	if a.spreadLeft <= 0 {
		a.spreadLeft = a.spreadInterval
		acts.Infected = a.Spread(g)
	}

	if a.attackLeft <= 0 {
		a.attackLeft = AttackInterval
		acts.Severed = a.Attack(g)
	}

	if a.moveLeft <= 0 {
		a.moveLeft = MoveInterval
		from := a.node
		if a.Move(g) {
			acts.Moved = true
			acts.From, acts.To = from, a.node
		}
	}

	return acts
}

// Evolve makes the agent stronger: stage up, health up to the cap, spread
// interval down to the floor.
func (a *Agent) Evolve() {
	a.stage++
	if a.health < MaxHealth {
		a.health++
	}
	a.spreadInterval -= SpreadStep
	if a.spreadInterval < SpreadFloor {
		a.spreadInterval = SpreadFloor
	}
	if a.spreadLeft > a.spreadInterval {
		a.spreadLeft = a.spreadInterval
	}
}

// Spread infects one neutral neighbour, preferring nodes close to the start
// node. Neighbours linked to a firewall node are protected. It returns the
// infected handle or NoNode.
func (a *Agent) Spread(g *network.Graph) domain.NodeID {
	candidates := a.spreadCandidates(g)
	if len(candidates) == 0 {
		return domain.NoNode
	}

	start := g.FirstOfKind(domain.NodeStart)
	weights := make([]float64, len(candidates))
	for i, id := range candidates {
		if start != domain.NoNode {
			weights[i] = 1.0 / (1.0 + g.Distance(id, start))
		}
	}

	target := candidates[weightedIndex(a.rng, weights)]
	g.SetKind(target, domain.NodeVirus)
	return target
}

func (a *Agent) spreadCandidates(g *network.Graph) []domain.NodeID {
	firewalls := g.OfKind(domain.NodeFirewall)
	var out []domain.NodeID
	seen := make(map[domain.NodeID]bool)
	for _, id := range g.Neighbors(a.node) {
		if seen[id] || g.Kind(id) != domain.NodeNeutral {
			continue
		}
		seen[id] = true
		if protectedByFirewall(g, id, firewalls) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func protectedByFirewall(g *network.Graph, id domain.NodeID, firewalls []domain.NodeID) bool {
	for _, fw := range firewalls {
		if g.ActiveLink(fw, id) {
			return true
		}
	}
	return false
}

// Attack severs one active connection touching the host. Enhanced and
// firewall links are immune; normal links are twice as likely to be hit.
// It returns the removed connection, or nil.
func (a *Agent) Attack(g *network.Graph) *domain.Connection {
	var targets []*domain.Connection
	var weights []float64
	for _, c := range g.Touching(a.node) {
		switch c.Kind {
		case domain.ConnEnhanced, domain.ConnFirewall:
			continue
		case domain.ConnNormal:
			weights = append(weights, normalAttackWeight)
		default:
			weights = append(weights, otherAttackWeight)
		}
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return nil
	}

	target := targets[weightedIndex(a.rng, weights)]
	if !g.Remove(target) {
		return nil
	}
	return target
}

// Move relocates the agent to a random linked neutral node. The old host
// reverts to neutral.
func (a *Agent) Move(g *network.Graph) bool {
	var options []domain.NodeID
	for _, id := range g.Neighbors(a.node) {
		if g.Kind(id) == domain.NodeNeutral {
			options = append(options, id)
		}
	}
	if len(options) == 0 {
		return false
	}

	next := options[a.rng.IntN(len(options))]
	g.SetKind(a.node, domain.NodeNeutral)
	g.SetKind(next, domain.NodeVirus)
	a.node = next
	return true
}

// weightedIndex picks an index with probability proportional to its weight.
// All-zero weights fall back to a uniform pick.
func weightedIndex(rng domain.Random, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}

	r := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}

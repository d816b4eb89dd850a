// Package usecase contains application business logic.
package usecase

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/network"
	"github.com/eliteGoblin/synapsis/internal/profile"
	"github.com/eliteGoblin/synapsis/internal/silence"
	"github.com/eliteGoblin/synapsis/internal/virus"
)

// simClock is the match's simulated time. It only moves when the match
// advances, so timed links expire against elapsed game time.
type simClock struct {
	now time.Time
}

func (c *simClock) Now() time.Time { return c.now }

// simEpoch is the simulated wall time at which every match starts.
var simEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Match runs one level: the graph, the hazards, the player's energy and
// the win/lose state. It is single-threaded; callers serialise access.
type Match struct {
	id       string
	level    domain.Level
	profile  *profile.Profile
	graph    *network.Graph
	conns    *network.Manager
	hazard   *silence.Hazard
	viruses  []*virus.Agent
	clock    *simClock
	recorder domain.Recorder
	logger   *zap.Logger

	start, finish domain.NodeID

	energy   int
	timeLeft time.Duration
	elapsed  time.Duration
	enhanced bool

	state  domain.MatchState
	reason domain.LoseReason
	stars  int
}

// NewMatch loads a level into a fresh match. A nil profile gets a new
// starting profile; a nil recorder discards events.
func NewMatch(
	level domain.Level,
	prof *profile.Profile,
	rng domain.Random,
	recorder domain.Recorder,
	logger *zap.Logger,
) *Match {
	if prof == nil {
		prof = profile.New()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	level = level.WithDefaults()
	prof.UnlockForLevel(level.Number)

	id := uuid.NewString()
	clock := &simClock{now: simEpoch}
	graph := network.NewGraph(level.Nodes, clock)

	m := &Match{
		id:       id,
		level:    level,
		profile:  prof,
		graph:    graph,
		conns:    network.NewManager(graph),
		hazard:   silence.New(silence.ConfigFromLevel(level), rng),
		clock:    clock,
		recorder: recorder,
		logger:   logger.With(zap.String("match", id), zap.Int("level", level.Number)),
		start:    graph.FirstOfKind(domain.NodeStart),
		finish:   graph.FirstOfKind(domain.NodeFinish),
		energy:   level.StartEnergy,
		timeLeft: level.TimeLimit,
		state:    domain.StatePlaying,
	}

	for _, l := range level.Links {
		if !m.conns.Seed(l.A, l.B, l.Kind) {
			m.logger.Warn("skipping invalid level link",
				zap.Int("a", int(l.A)),
				zap.Int("b", int(l.B)))
		}
	}

	for _, node := range graph.OfKind(domain.NodeVirus) {
		m.viruses = append(m.viruses, virus.NewAgent(node, rng))
	}

	m.logger.Info("match started",
		zap.String("name", level.Name),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("viruses", len(m.viruses)),
		zap.Int("energy", m.energy),
		zap.Duration("time_limit", level.TimeLimit),
		zap.Bool("waves", level.Waves))

	return m
}

// Advance steps the simulation by dt. The order is fixed: timer, node
// animation, link expiry, silence wave, virus agents, start-node check,
// victory check. A finished match ignores further calls.
func (m *Match) Advance(dt time.Duration) {
	if m.state != domain.StatePlaying || dt <= 0 {
		return
	}
	m.clock.now = m.clock.now.Add(dt)
	m.elapsed += dt

	// 1. Timer
	if m.level.TimeLimit > 0 {
		m.timeLeft -= dt
		if m.timeLeft <= 0 {
			m.timeLeft = 0
			m.lose(domain.LoseTimeout)
			return
		}
	}

	// 2. Node animation
	m.graph.AdvanceNodes(dt)

	// 3. Expiry
	if expired := m.conns.Advance(dt); len(expired) > 0 {
		m.recorder.ConnectionsSevered(domain.SeverExpired, len(expired))
		m.logger.Debug("connections expired", zap.Int("count", len(expired)))
	}

	// 4. Silence wave
	wave := m.hazard.Advance(m.graph, dt)
	if wave.Started {
		m.logger.Info("silence wave started", zap.Duration("next_interval", m.hazard.NextInterval()))
	}
	if wave.Completed {
		m.recorder.WaveCompleted()
		m.recorder.ConnectionsSevered(domain.SeverSilence, len(wave.Removed))
		m.logger.Info("silence wave completed",
			zap.Int("wave", m.hazard.Waves()),
			zap.Int("removed", len(wave.Removed)))
	}

	// 5. Viruses
	m.updateViruses(dt)

	// 6. Start node
	if m.graph.Kind(m.start) == domain.NodeVirus {
		m.lose(domain.LoseStartInfected)
		return
	}

	// 7. Victory
	if m.CheckVictory() {
		m.win()
	}
}

func (m *Match) updateViruses(dt time.Duration) {
	alive := m.viruses[:0]
	for _, v := range m.viruses {
		if v.Alive(m.graph) {
			alive = append(alive, v)
		}
	}
	for i := len(alive); i < len(m.viruses); i++ {
		m.viruses[i] = nil
	}
	m.viruses = alive

	for _, v := range m.viruses {
		acts := v.Update(m.graph, dt)
		if acts.Evolved {
			m.recorder.VirusEvolved()
			m.logger.Debug("virus evolved",
				zap.Int("node", int(v.Node())),
				zap.Int("stage", v.Stage()),
				zap.Int("health", v.Health()))
		}
		if acts.Infected != domain.NoNode {
			m.recorder.NodeInfected()
			m.logger.Info("node infected", zap.Int("node", int(acts.Infected)))
		}
		if acts.Severed != nil {
			m.recorder.ConnectionsSevered(domain.SeverVirus, 1)
			m.logger.Info("virus severed connection",
				zap.Int("a", int(acts.Severed.A)),
				zap.Int("b", int(acts.Severed.B)))
		}
		if acts.Moved {
			m.recorder.VirusMoved()
			m.logger.Debug("virus moved",
				zap.Int("from", int(acts.From)),
				zap.Int("to", int(acts.To)))
		}
	}
}

// CheckVictory reports whether start currently reaches finish over active
// links. It does not change the match state.
func (m *Match) CheckVictory() bool {
	if m.start == domain.NoNode || m.finish == domain.NoNode {
		return false
	}
	return m.conns.IsConnected(m.start, m.finish)
}

func (m *Match) win() {
	m.state = domain.StateWon
	m.stars = m.calculateStars()
	m.logger.Info("level complete",
		zap.Int("stars", m.stars),
		zap.Int("energy", m.energy),
		zap.Duration("time_left", m.timeLeft),
		zap.Duration("elapsed", m.elapsed))
	m.recorder.MatchFinished(m.Result())
}

func (m *Match) lose(reason domain.LoseReason) {
	m.state = domain.StateLost
	m.reason = reason
	m.logger.Info("level failed",
		zap.String("reason", string(reason)),
		zap.Duration("elapsed", m.elapsed))
	m.recorder.MatchFinished(m.Result())
}

func (m *Match) calculateStars() int {
	return ScoreStars(StarInputs{
		TimeLimit:      m.level.TimeLimit,
		TimeLeft:       m.timeLeft,
		TimeBonus:      m.level.TimeBonus,
		StartEnergy:    m.level.StartEnergy,
		Energy:         m.energy,
		EnergyBonus:    m.level.EnergyBonus,
		Connections:    m.graph.ConnectionCount(),
		MaxConnections: m.level.MaxConnections,
		Paths:          len(m.conns.FindAllPaths(m.start, m.finish)),
	})
}

// NextKind returns the connection kind the next Connect call would request.
func (m *Match) NextKind() (domain.ConnectionKind, time.Duration) {
	switch {
	case m.level.TemporaryConnections:
		return domain.ConnTemporary, m.level.TemporaryDuration
	case m.enhanced:
		return domain.ConnEnhanced, 0
	default:
		return domain.ConnNormal, 0
	}
}

// Connect is the player's link action. Virus endpoints are refused; the
// kind follows the level and the enhanced-mode toggle.
func (m *Match) Connect(a, b domain.NodeID) domain.Outcome {
	if m.state != domain.StatePlaying {
		return domain.OutcomeRejected
	}
	if m.graph.Kind(a) == domain.NodeVirus || m.graph.Kind(b) == domain.NodeVirus {
		m.recorder.ConnectionRejected(domain.OutcomeVirusEndpoint)
		m.logger.Debug("cannot connect virus node",
			zap.Int("a", int(a)),
			zap.Int("b", int(b)))
		return domain.OutcomeVirusEndpoint
	}
	kind, duration := m.NextKind()
	return m.CreateConnection(a, b, kind, duration)
}

// CreateConnection links a and b with an explicit kind and duration, under
// the level's maximum link length.
func (m *Match) CreateConnection(a, b domain.NodeID, kind domain.ConnectionKind, duration time.Duration) domain.Outcome {
	if m.state != domain.StatePlaying {
		return domain.OutcomeRejected
	}
	energy, outcome := m.conns.CreateConnection(a, b, kind, m.profile, m.energy, m.level.MaxConnectionLength, duration)
	if !outcome.Spent() {
		m.recorder.ConnectionRejected(outcome)
		m.logger.Debug("connection refused",
			zap.Int("a", int(a)),
			zap.Int("b", int(b)),
			zap.String("outcome", outcome.String()))
		return outcome
	}

	spent := m.energy - energy
	m.energy = energy
	c, _ := m.graph.Linked(a, b)
	m.recorder.ConnectionCreated(c.Kind)
	m.logger.Info("connection created",
		zap.Int("a", int(a)),
		zap.Int("b", int(b)),
		zap.String("kind", string(c.Kind)),
		zap.Int("cost", spent),
		zap.Int("energy", m.energy))
	return outcome
}

// ToggleEnhancedMode flips enhanced mode if the ability is unlocked and
// reports the new setting.
func (m *Match) ToggleEnhancedMode() bool {
	if !m.profile.CanUseEnhancedConnections() {
		return m.enhanced
	}
	m.enhanced = !m.enhanced
	m.logger.Debug("enhanced mode", zap.Bool("on", m.enhanced))
	return m.enhanced
}

// IsIsolated reports whether a virus node is cut off from the start node:
// it has no active links, or none of them leads back to start without
// crossing another virus.
func (m *Match) IsIsolated(id domain.NodeID) bool {
	if len(m.graph.Touching(id)) == 0 {
		return true
	}
	if m.start == domain.NoNode {
		return true
	}
	return !m.conns.Reaches(m.start, id)
}

// DestroyVirus clears a virus node, free if it is isolated, otherwise for
// AntivirusCost energy when antivirus is unlocked. The node becomes
// neutral. It returns the method used, or DestroyNone if nothing happened.
func (m *Match) DestroyVirus(id domain.NodeID) domain.DestroyMethod {
	if m.state != domain.StatePlaying || m.graph.Kind(id) != domain.NodeVirus {
		return domain.DestroyNone
	}

	method := domain.DestroyNone
	switch {
	case m.IsIsolated(id):
		method = domain.DestroyIsolation
	case m.profile.CanUseAntivirus() && m.energy >= profile.AntivirusCost:
		m.energy -= profile.AntivirusCost
		method = domain.DestroyAntivirus
	default:
		m.logger.Debug("virus not isolated", zap.Int("node", int(id)))
		return domain.DestroyNone
	}

	m.graph.SetKind(id, domain.NodeNeutral)
	m.dropAgent(id)
	m.recorder.VirusDestroyed(method)
	m.logger.Info("virus destroyed",
		zap.Int("node", int(id)),
		zap.String("method", string(method)),
		zap.Int("energy", m.energy))
	return method
}

func (m *Match) dropAgent(id domain.NodeID) {
	kept := m.viruses[:0]
	for _, v := range m.viruses {
		if v.Node() != id {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(m.viruses); i++ {
		m.viruses[i] = nil
	}
	m.viruses = kept
}

// Result summarises the match so far.
func (m *Match) Result() domain.MatchResult {
	return domain.MatchResult{
		MatchID:     m.id,
		Level:       m.level.Number,
		State:       m.state,
		Reason:      m.reason,
		Stars:       m.stars,
		Elapsed:     m.elapsed,
		TimeLeft:    m.timeLeft,
		Energy:      m.energy,
		Connections: m.graph.ConnectionCount(),
		Viruses:     len(m.graph.OfKind(domain.NodeVirus)),
		Waves:       m.hazard.Waves(),
	}
}

func (m *Match) ID() string { return m.id }
func (m *Match) Level() domain.Level { return m.level }
func (m *Match) Profile() *profile.Profile { return m.profile }
func (m *Match) Graph() *network.Graph { return m.graph }
func (m *Match) Connections() *network.Manager { return m.conns }
func (m *Match) Hazard() *silence.Hazard { return m.hazard }
func (m *Match) Viruses() []*virus.Agent { return m.viruses }
func (m *Match) Start() domain.NodeID { return m.start }
func (m *Match) Finish() domain.NodeID { return m.finish }
func (m *Match) Energy() int { return m.energy }
func (m *Match) TimeLeft() time.Duration { return m.timeLeft }
func (m *Match) Elapsed() time.Duration { return m.elapsed }
func (m *Match) EnhancedMode() bool { return m.enhanced }
func (m *Match) State() domain.MatchState { return m.state }
func (m *Match) Reason() domain.LoseReason { return m.reason }

// Stars returns the rating fixed at victory, 0 otherwise.
func (m *Match) Stars() int { return m.stars }

// Now returns the simulated time.
func (m *Match) Now() time.Time { return m.clock.now }

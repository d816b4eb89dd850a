package usecase

import (
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/silence"
)

// LinkView is a connection as drawn on screen.
type LinkView struct {
	domain.Connection
	Remaining time.Duration // 0 for permanent links
	Timed     bool
}

// VirusView is one virus agent as drawn on screen.
type VirusView struct {
	Node   domain.NodeID
	Health int
	Stage  int
}

// Snapshot is a read-only copy of everything a renderer needs for a frame.
type Snapshot struct {
	MatchID      string
	Level        int
	LevelName    string
	Nodes        []domain.Node
	Links        []LinkView
	Viruses      []VirusView
	Energy       int
	TimeLeft     time.Duration
	TimeLimit    time.Duration
	Enhanced     bool
	State        domain.MatchState
	Reason       domain.LoseReason
	Stars        int
	WavePhase    silence.Phase
	WaveCharge   float64
	WaveIn       time.Duration
	WaveProgress float64
	Waves        int
}

// Snapshot copies the current match state.
func (m *Match) Snapshot() Snapshot {
	now := m.clock.now
	s := Snapshot{
		MatchID:      m.id,
		Level:        m.level.Number,
		LevelName:    m.level.Name,
		Energy:       m.energy,
		TimeLeft:     m.timeLeft,
		TimeLimit:    m.level.TimeLimit,
		Enhanced:     m.enhanced,
		State:        m.state,
		Reason:       m.reason,
		Stars:        m.stars,
		WavePhase:    m.hazard.Phase(),
		WaveCharge:   m.hazard.Charge(),
		WaveIn:       m.hazard.UntilNextWave(),
		WaveProgress: m.hazard.Progress(),
		Waves:        m.hazard.Waves(),
	}

	s.Nodes = make([]domain.Node, 0, m.graph.NodeCount())
	for _, n := range m.graph.Nodes() {
		s.Nodes = append(s.Nodes, *n)
	}

	for _, c := range m.graph.Active() {
		left, timed := c.Remaining(now)
		s.Links = append(s.Links, LinkView{Connection: *c, Remaining: left, Timed: timed})
	}

	for _, v := range m.viruses {
		if !v.Alive(m.graph) {
			continue
		}
		s.Viruses = append(s.Viruses, VirusView{Node: v.Node(), Health: v.Health(), Stage: v.Stage()})
	}

	return s
}

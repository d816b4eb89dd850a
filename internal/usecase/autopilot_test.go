package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

func TestAutopilot_Route(t *testing.T) {
	m, _ := newTestMatch(t, lineLevel(1))
	p := NewAutopilot(zap.NewNop())

	assert.Equal(t, []domain.NodeID{0, 1, 2, 3}, p.Route(m))
}

func TestAutopilot_RoutePrefersAmplifier(t *testing.T) {
	level := domain.Level{
		Number: 1,
		Nodes: []domain.NodeSpec{
			{X: 100, Y: 300, Kind: domain.NodeStart},     // 0
			{X: 300, Y: 200, Kind: domain.NodeNeutral},   // 1
			{X: 300, Y: 400, Kind: domain.NodeAmplifier}, // 2
			{X: 500, Y: 300, Kind: domain.NodeFinish},    // 3
		},
		StartEnergy: 100,
	}
	m, _ := newTestMatch(t, level)

	assert.Equal(t, []domain.NodeID{0, 2, 3}, NewAutopilot(nil).Route(m))
}

func TestAutopilot_RouteUsesExistingLinks(t *testing.T) {
	level := lineLevel(1)
	level.StartEnergy = 20
	level.Links = []domain.LinkSpec{{A: 0, B: 1}, {A: 1, B: 2}}
	m, _ := newTestMatch(t, level)

	assert.Equal(t, []domain.NodeID{0, 1, 2, 3}, NewAutopilot(nil).Route(m))
}

func TestAutopilot_RouteUnaffordable(t *testing.T) {
	level := lineLevel(1)
	level.StartEnergy = 59
	m, _ := newTestMatch(t, level)

	assert.Nil(t, NewAutopilot(nil).Route(m))
}

func TestAutopilot_RouteAvoidsViruses(t *testing.T) {
	level := domain.Level{
		Number: 1,
		Nodes: []domain.NodeSpec{
			{X: 100, Y: 300, Kind: domain.NodeStart},
			{X: 300, Y: 300, Kind: domain.NodeVirus},
			{X: 500, Y: 300, Kind: domain.NodeFinish},
		},
		StartEnergy: 100,
	}
	m, _ := newTestMatch(t, level)

	assert.Nil(t, NewAutopilot(nil).Route(m))
}

func TestAutopilot_Step(t *testing.T) {
	m, _ := newTestMatch(t, lineLevel(1))
	p := NewAutopilot(nil)

	assert.Equal(t, ActionDestroy, p.Step(m))
	assert.Equal(t, domain.NodeNeutral, m.Graph().Kind(4))

	assert.Equal(t, ActionConnect, p.Step(m))
	assert.True(t, m.Graph().ActiveLink(0, 1))
}

func TestAutopilot_WinsLineLevel(t *testing.T) {
	m, _ := newTestMatch(t, lineLevel(1))
	p := NewAutopilot(nil)

	for i := 0; i < 100 && m.State() == domain.StatePlaying; i++ {
		p.Step(m)
		m.Advance(frame)
	}

	require.Equal(t, domain.StateWon, m.State())
	assert.Equal(t, 40, m.Energy())
	assert.GreaterOrEqual(t, m.Stars(), 3)
}

func TestAutopilot_EnablesEnhancedOnWaveLevels(t *testing.T) {
	level := lineLevel(4)
	level.Waves = true
	level.StartEnergy = 200
	m, _ := newTestMatch(t, level)
	p := NewAutopilot(nil)

	p.Step(m) // isolated virus
	assert.Equal(t, ActionEnhanced, p.Step(m))
	assert.True(t, m.EnhancedMode())
}

func TestAutopilot_KeepsNormalWhenEnhancedUnaffordable(t *testing.T) {
	level := lineLevel(4)
	level.Waves = true
	m, _ := newTestMatch(t, level)
	p := NewAutopilot(nil)

	p.Step(m)
	assert.Equal(t, ActionConnect, p.Step(m))
	assert.False(t, m.EnhancedMode())
}

func TestAutopilot_AntivirusClearsBlocker(t *testing.T) {
	level := domain.Level{
		Number: 6,
		Nodes: []domain.NodeSpec{
			{X: 100, Y: 300, Kind: domain.NodeStart},
			{X: 300, Y: 300, Kind: domain.NodeVirus},
			{X: 500, Y: 300, Kind: domain.NodeFinish},
		},
		Links:       []domain.LinkSpec{{A: 0, B: 1}},
		StartEnergy: 100,
		TimeLimit:   time.Minute,
	}
	m, _ := newTestMatch(t, level)

	assert.Equal(t, ActionDestroy, NewAutopilot(nil).Step(m))
	assert.Equal(t, 50, m.Energy())
}

func TestAutopilot_IdleWhenFinished(t *testing.T) {
	level := lineLevel(1)
	level.TimeLimit = time.Millisecond
	m, _ := newTestMatch(t, level)
	m.Advance(frame)

	assert.Equal(t, ActionNone, NewAutopilot(nil).Step(m))
}

package silence

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/network"
)

type zeroRandom struct{}

func (zeroRandom) Float64() float64 { return 0 }
func (zeroRandom) IntN(int) int { return 0 }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// linkedGraph returns a chain with one link of each kind.
func linkedGraph() *network.Graph {
	specs := make([]domain.NodeSpec, 5)
	for i := range specs {
		specs[i] = domain.NodeSpec{X: float64(100 * i), Y: 100}
	}
	g := network.NewGraph(specs, fixedClock{now: time.Unix(0, 0)})
	m := network.NewManager(g)
	m.Seed(0, 1, domain.ConnNormal)
	m.Seed(1, 2, domain.ConnEnhanced)
	m.Seed(2, 3, domain.ConnTemporary)
	m.Seed(3, 4, domain.ConnFirewall)
	return g
}

func TestConfigFromLevel(t *testing.T) {
	cfg := ConfigFromLevel(domain.Level{Waves: true})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.FirstWave)
	assert.InDelta(t, 0.015, cfg.ProgressPerTick, 1e-12)

	cfg = ConfigFromLevel(domain.Level{WaveInterval: 12 * time.Second, SilenceSpeed: 0.1})
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 12*time.Second, cfg.FirstWave)
	assert.InDelta(t, 0.1, cfg.ProgressPerTick, 1e-12)
}

func TestHazard_Disabled(t *testing.T) {
	g := linkedGraph()
	h := New(Config{Enabled: false}, zeroRandom{})

	for i := 0; i < 100; i++ {
		w := h.Advance(g, time.Second)
		assert.False(t, w.Started)
		assert.False(t, w.Completed)
	}

	assert.Equal(t, PhaseDisabled, h.Phase())
	assert.False(t, h.Enabled())
	assert.Equal(t, 4, g.ConnectionCount())
	assert.Zero(t, h.Waves())
}

func TestHazard_WaveRemovesOnlyNormalLinks(t *testing.T) {
	g := linkedGraph()
	h := New(Config{Enabled: true, FirstWave: time.Second, ProgressPerTick: 0.5}, zeroRandom{})
	require.Equal(t, PhaseCharging, h.Phase())

	w := h.Advance(g, 500*time.Millisecond)
	assert.False(t, w.Started)
	assert.InDelta(t, 0.5, h.Charge(), 1e-9)
	assert.Equal(t, 500*time.Millisecond, h.UntilNextWave())

	w = h.Advance(g, 500*time.Millisecond)
	assert.True(t, w.Started)
	assert.False(t, w.Completed)
	assert.Equal(t, PhaseActive, h.Phase())
	assert.InDelta(t, 0.5, h.Progress(), 1e-9)
	assert.Equal(t, MinWaveInterval, h.NextInterval(), "next interval is drawn when the wave starts")

	w = h.Advance(g, 16*time.Millisecond)
	assert.True(t, w.Completed)
	require.Len(t, w.Removed, 1)
	assert.Equal(t, domain.ConnNormal, w.Removed[0].Kind)

	assert.Equal(t, 3, g.ConnectionCount())
	assert.False(t, g.ActiveLink(0, 1))
	assert.True(t, g.ActiveLink(1, 2))
	assert.True(t, g.ActiveLink(2, 3))
	assert.True(t, g.ActiveLink(3, 4))

	assert.Equal(t, PhaseCharging, h.Phase())
	assert.Zero(t, h.Progress())
	assert.Equal(t, 1, h.Waves())
}

func TestHazard_DefaultsFillZeroConfig(t *testing.T) {
	h := New(Config{Enabled: true}, zeroRandom{})

	assert.Equal(t, domain.DefaultWaveInterval, h.NextInterval())

	// 0.015 per tick needs 67 ticks to finish.
	g := linkedGraph()
	h.Advance(g, domain.DefaultWaveInterval)
	ticks := 1
	for h.Phase() == PhaseActive {
		h.Advance(g, 16*time.Millisecond)
		ticks++
	}
	assert.Equal(t, 67, ticks)
	assert.Equal(t, 1, h.Waves())
}

func TestHazard_IntervalRange(t *testing.T) {
	h := New(Config{Enabled: true, FirstWave: time.Millisecond, ProgressPerTick: 1}, rand.New(rand.NewPCG(3, 4)))
	g := linkedGraph()

	for i := 0; i < 200; i++ {
		h.Reset()
		h.Advance(g, time.Millisecond)
		assert.GreaterOrEqual(t, h.NextInterval(), MinWaveInterval)
		assert.LessOrEqual(t, h.NextInterval(), MaxWaveInterval)
	}
}

func TestHazard_Reset(t *testing.T) {
	h := New(Config{Enabled: true, FirstWave: time.Second, ProgressPerTick: 1}, zeroRandom{})
	g := linkedGraph()
	h.Advance(g, time.Second)
	require.Equal(t, 1, h.Waves())

	h.Reset()

	assert.Zero(t, h.Waves())
	assert.Equal(t, time.Second, h.NextInterval())
	assert.Zero(t, h.Charge())
	assert.Equal(t, PhaseCharging, h.Phase())
}

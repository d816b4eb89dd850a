// Package silence implements the periodic wave that wipes normal links.
package silence

import (
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/network"
)

const (
	MinWaveInterval = 25 * time.Second
	MaxWaveInterval = 35 * time.Second
)

// Phase is the hazard's current stage.
type Phase string

const (
	PhaseDisabled Phase = "disabled"
	PhaseCharging Phase = "charging"
	PhaseActive   Phase = "active"
)

// Config tunes a hazard for one level.
type Config struct {
	Enabled         bool
	FirstWave       time.Duration // delay before the first wave
	ProgressPerTick float64       // wave progress added each Advance while active
}

// ConfigFromLevel derives the hazard config from a level table.
func ConfigFromLevel(l domain.Level) Config {
	l = l.WithDefaults()
	return Config{
		Enabled:         l.Waves,
		FirstWave:       l.WaveInterval,
		ProgressPerTick: l.SilenceSpeed,
	}
}

// Wave reports what one Advance did.
type Wave struct {
	Started   bool
	Completed bool
	Removed   []*domain.Connection
}

// Hazard is the silence wave timer. One instance per match.
type Hazard struct {
	cfg       Config
	rng       domain.Random
	waveTimer time.Duration
	nextWave  time.Duration
	active    bool
	progress  float64
	waves     int
}

// New creates a hazard armed for its first wave.
func New(cfg Config, rng domain.Random) *Hazard {
	if cfg.FirstWave <= 0 {
		cfg.FirstWave = domain.DefaultWaveInterval
	}
	if cfg.ProgressPerTick <= 0 {
		cfg.ProgressPerTick = domain.DefaultSilenceSpeed
	}
	h := &Hazard{cfg: cfg, rng: rng}
	h.Reset()
	return h
}

// Reset returns the hazard to its level-start state.
func (h *Hazard) Reset() {
	h.waveTimer = 0
	h.active = false
	h.progress = 0
	h.waves = 0
	h.nextWave = h.cfg.FirstWave
}

// Advance steps the wave timer. When a running wave reaches full progress
// every normal connection is removed from g.
func (h *Hazard) Advance(g *network.Graph, dt time.Duration) Wave {
	var w Wave
	if !h.cfg.Enabled {
		return w
	}

	h.waveTimer += dt

	if h.waveTimer >= h.nextWave && !h.active {
		h.active = true
		h.progress = 0
		h.waveTimer = 0
		h.nextWave = h.drawInterval()
		w.Started = true
	}

	if h.active {
		h.progress += h.cfg.ProgressPerTick
		if h.progress >= 1.0 {
			h.active = false
			h.progress = 0
			h.waves++
			w.Completed = true
			w.Removed = g.RemoveWhere(func(c *domain.Connection) bool {
				return c.Kind == domain.ConnNormal
			})
		}
	}

	return w
}

func (h *Hazard) drawInterval() time.Duration {
	spanMs := int((MaxWaveInterval - MinWaveInterval) / time.Millisecond)
	return MinWaveInterval + time.Duration(h.rng.IntN(spanMs+1))*time.Millisecond
}

func (h *Hazard) Phase() Phase {
	switch {
	case !h.cfg.Enabled:
		return PhaseDisabled
	case h.active:
		return PhaseActive
	default:
		return PhaseCharging
	}
}

func (h *Hazard) Enabled() bool { return h.cfg.Enabled }

// Progress returns the running wave's progress in [0,1).
func (h *Hazard) Progress() float64 { return h.progress }

// Charge returns how far the timer is toward the next wave, in [0,1].
func (h *Hazard) Charge() float64 {
	if h.nextWave <= 0 {
		return 0
	}
	c := float64(h.waveTimer) / float64(h.nextWave)
	if c > 1 {
		c = 1
	}
	return c
}

// UntilNextWave returns the time left before the next wave starts.
func (h *Hazard) UntilNextWave() time.Duration {
	left := h.nextWave - h.waveTimer
	if left < 0 {
		return 0
	}
	return left
}

// NextInterval returns the currently armed wave interval.
func (h *Hazard) NextInterval() time.Duration { return h.nextWave }

// Waves returns the number of completed waves.
func (h *Hazard) Waves() int { return h.waves }

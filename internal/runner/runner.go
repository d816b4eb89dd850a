// Package runner drives a match in real time or as a fast headless batch.
package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/usecase"
)

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	FrameInterval  time.Duration // Simulation step (default 16ms, ~60 fps)
	PilotInterval  time.Duration // How often the pilot acts; 0 disables it
	StatusInterval time.Duration // How often to log progress
	MaxFrameDelta  time.Duration // Clamp for a late frame in real time
	MaxSimulated   time.Duration // Headless safety cap on simulated time
}

// DefaultRunnerConfig returns default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		FrameInterval:  16 * time.Millisecond,
		PilotInterval:  250 * time.Millisecond,
		StatusInterval: 5 * time.Second,
		MaxFrameDelta:  100 * time.Millisecond,
		MaxSimulated:   10 * time.Minute,
	}
}

// withDefaults fills zero or negative intervals from DefaultRunnerConfig.
// PilotInterval and MaxFrameDelta keep their zero meaning.
func (c RunnerConfig) withDefaults() RunnerConfig {
	d := DefaultRunnerConfig()
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.MaxSimulated <= 0 {
		c.MaxSimulated = d.MaxSimulated
	}
	return c
}

// Pilot decides player actions.
type Pilot interface {
	Step(m *usecase.Match) usecase.Action
}

// FrameObserver receives a copy of the state after every frame.
type FrameObserver interface {
	Frame(s usecase.Snapshot)
}

// Command is a player action queued from another goroutine. It runs on the
// runner's goroutine between frames.
type Command func(m *usecase.Match)

// Runner owns a match for the duration of Run. Everything that touches the
// match goes through the run loop.
type Runner struct {
	config   RunnerConfig
	match    *usecase.Match
	pilot    Pilot
	observer FrameObserver
	commands chan Command
	logger   *zap.Logger
}

// NewRunner creates a runner. pilot and observer may be nil.
func NewRunner(
	config RunnerConfig,
	match *usecase.Match,
	pilot Pilot,
	observer FrameObserver,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:   config.withDefaults(),
		match:    match,
		pilot:    pilot,
		observer: observer,
		commands: make(chan Command, 16),
		logger:   logger,
	}
}

// Submit queues a command for the run loop. It reports false if the queue
// is full.
func (r *Runner) Submit(cmd Command) bool {
	select {
	case r.commands <- cmd:
		return true
	default:
		return false
	}
}

// Run drives the match from wall-clock tickers until it is won or lost, or
// until ctx is canceled.
func (r *Runner) Run(ctx context.Context) (domain.MatchResult, error) {
	r.logger.Info("runner started",
		zap.String("match", r.match.ID()),
		zap.Duration("frame", r.config.FrameInterval),
		zap.Duration("pilot", r.config.PilotInterval))

	frameTicker := time.NewTicker(r.config.FrameInterval)
	statusTicker := time.NewTicker(r.config.StatusInterval)
	var pilotC <-chan time.Time
	if r.pilot != nil && r.config.PilotInterval > 0 {
		pilotTicker := time.NewTicker(r.config.PilotInterval)
		defer pilotTicker.Stop()
		pilotC = pilotTicker.C
	}

	defer func() {
		frameTicker.Stop()
		statusTicker.Stop()
	}()

	r.notify()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping", zap.String("state", string(r.match.State())))
			return r.match.Result(), ctx.Err()

		case cmd := <-r.commands:
			cmd(r.match)
			r.notify()

		case <-pilotC:
			if action := r.pilot.Step(r.match); action != usecase.ActionNone {
				r.logger.Debug("pilot acted", zap.String("action", string(action)))
			}

		case now := <-frameTicker.C:
			dt := now.Sub(last)
			last = now
			if r.config.MaxFrameDelta > 0 && dt > r.config.MaxFrameDelta {
				dt = r.config.MaxFrameDelta
			}
			r.match.Advance(dt)
			r.notify()
			if r.match.State() != domain.StatePlaying {
				result := r.match.Result()
				r.logger.Info("runner finished",
					zap.String("state", string(result.State)),
					zap.Int("stars", result.Stars))
				return result, nil
			}

		case <-statusTicker.C:
			r.logStatus()
		}
	}
}

func (r *Runner) notify() {
	if r.observer != nil {
		r.observer.Frame(r.match.Snapshot())
	}
}

func (r *Runner) logStatus() {
	r.logger.Info("match status",
		zap.Int("energy", r.match.Energy()),
		zap.Duration("time_left", r.match.TimeLeft()),
		zap.Int("connections", r.match.Graph().ConnectionCount()),
		zap.String("wave", string(r.match.Hazard().Phase())))
}

// RunHeadless steps the match with a fixed dt and no sleeping until it
// ends or MaxSimulated is reached. The pilot acts every PilotInterval of
// simulated time. The same seed and config always give the same result.
func RunHeadless(m *usecase.Match, pilot Pilot, config RunnerConfig) domain.MatchResult {
	config = config.withDefaults()
	var sincePilot time.Duration
	if pilot != nil {
		pilot.Step(m)
	}
	for m.State() == domain.StatePlaying && m.Elapsed() < config.MaxSimulated {
		m.Advance(config.FrameInterval)
		sincePilot += config.FrameInterval
		if pilot != nil && config.PilotInterval > 0 && sincePilot >= config.PilotInterval {
			sincePilot = 0
			pilot.Step(m)
		}
	}
	return m.Result()
}

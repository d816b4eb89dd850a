// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// CorridorYAML is a small valid level: a straight corridor with a virus
// hanging off the middle node.
const CorridorYAML = `number: 50
name: Corridor
description: Straight line with a virus on the side.
start_energy: 120
time_limit: 60s
nodes:
  - {x: 100, y: 350, kind: start}
  - {x: 300, y: 350, kind: neutral}
  - {x: 500, y: 350, kind: neutral}
  - {x: 700, y: 350, kind: finish}
  - {x: 400, y: 200, kind: virus}
  - {x: 600, y: 200, kind: neutral}
links:
  - {a: 4, b: 5}
`

// BrokenYAML fails validation: it has no finish node.
const BrokenYAML = `number: 51
name: Broken
start_energy: 10
nodes:
  - {x: 100, y: 350, kind: start}
  - {x: 300, y: 350, kind: neutral}
`

// LevelDir writes level tables into a directory, mimicking a user's level
// folder.
type LevelDir struct {
	Dir string
}

// NewLevelDir creates a level directory generator rooted at dir.
func NewLevelDir(dir string) *LevelDir {
	return &LevelDir{Dir: dir}
}

// Write stores body as name inside the directory and returns its path.
func (d *LevelDir) Write(name, body string) (string, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Exists checks whether a level file is present.
func (d *LevelDir) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.Dir, name))
	return err == nil
}

// Cleanup removes the directory.
func (d *LevelDir) Cleanup() error {
	return os.RemoveAll(d.Dir)
}

// Line returns a level with start, three relays and finish 200 apart on
// one row. Options adjust it for a scenario.
func Line(opts ...func(*domain.Level)) domain.Level {
	l := domain.Level{
		Number: 20,
		Name:   "Line",
		Nodes: []domain.NodeSpec{
			{X: 50, Y: 350, Kind: domain.NodeStart},
			{X: 250, Y: 350, Kind: domain.NodeNeutral},
			{X: 450, Y: 350, Kind: domain.NodeNeutral},
			{X: 650, Y: 350, Kind: domain.NodeNeutral},
			{X: 850, Y: 350, Kind: domain.NodeFinish},
		},
		StartEnergy: 200,
		TimeLimit:   90 * time.Second,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithWaves turns on silence waves with the given first interval and
// per-tick speed.
func WithWaves(first time.Duration, speed float64) func(*domain.Level) {
	return func(l *domain.Level) {
		l.Waves = true
		l.WaveInterval = first
		l.SilenceSpeed = speed
	}
}

// WithVirusOn adds a virus above relay i, linked to it.
func WithVirusOn(i int) func(*domain.Level) {
	return func(l *domain.Level) {
		relay := l.Nodes[i]
		l.Nodes = append(l.Nodes, domain.NodeSpec{X: relay.X, Y: relay.Y - 150, Kind: domain.NodeVirus})
		l.Links = append(l.Links, domain.LinkSpec{
			A: domain.NodeID(len(l.Nodes) - 1),
			B: domain.NodeID(i),
		})
	}
}

// WithNumber sets the level number, which decides unlocked abilities.
func WithNumber(n int) func(*domain.Level) {
	return func(l *domain.Level) {
		l.Number = n
	}
}

// WithTimeLimit replaces the time limit.
func WithTimeLimit(d time.Duration) func(*domain.Level) {
	return func(l *domain.Level) {
		l.TimeLimit = d
	}
}

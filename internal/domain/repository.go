package domain

import (
	"errors"
	"time"
)

// ErrLevelNotFound is returned when a level number has no table.
var ErrLevelNotFound = errors.New("level not found")

// Clock supplies the time used to age timed connections.
// Implementation: wall clock for standalone use, manual clock inside a match.
type Clock interface {
	Now() time.Time
}

// Random is the pseudo-random source behind every randomized choice
// (virus targets, hazard intervals). Implementations must be seedable so
// matches can be replayed.
type Random interface {
	// Float64 returns a number in [0, 1).
	Float64() float64

	// IntN returns a number in [0, n). n must be positive.
	IntN(n int) int
}

// CostTable prices a connection kind in energy units.
type CostTable interface {
	ConnectionCost(kind ConnectionKind) int
}

// LevelStore provides access to level configurations.
// Implementation: embedded YAML tables.
type LevelStore interface {
	// GetAll returns every level ordered by number.
	GetAll() []Level

	// GetByNumber returns one level.
	GetByNumber(n int) (*Level, error)

	// Load returns level n, falling back to level 1 when n is unknown.
	Load(n int) Level

	// List returns all level numbers in order.
	List() []int
}

// Recorder receives match events for metrics.
// Implementation: prometheus collectors.
type Recorder interface {
	ConnectionCreated(kind ConnectionKind)
	ConnectionRejected(outcome Outcome)
	ConnectionsSevered(cause SeverCause, n int)
	WaveCompleted()
	NodeInfected()
	VirusMoved()
	VirusEvolved()
	VirusDestroyed(method DestroyMethod)
	MatchFinished(result MatchResult)
}

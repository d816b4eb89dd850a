// Package domain contains core game entities and interfaces.
// This is the innermost layer - no external dependencies.
package domain

import (
	"math"
	"slices"
	"time"
)

// NodeID is a stable handle into a network's node arena.
type NodeID int

// NoNode marks the absence of a node handle.
const NoNode NodeID = -1

// NodeKind identifies the role a node plays in the network.
type NodeKind string

const (
	NodeStart     NodeKind = "start"
	NodeFinish    NodeKind = "finish"
	NodeNeutral   NodeKind = "neutral"
	NodeVirus     NodeKind = "virus"
	NodeFirewall  NodeKind = "firewall"
	NodeAmplifier NodeKind = "amplifier"
	NodeDecoy     NodeKind = "decoy"
	NodeCodex     NodeKind = "codex"
)

// DefaultNodeRadius is the click radius of a node on the canvas.
const DefaultNodeRadius = 20.0

// Node is a vertex of the play network. Its kind mutates during a level
// (infection, virus destruction) but the node itself is never removed.
type Node struct {
	ID     NodeID
	X, Y   float64
	Radius float64
	Kind   NodeKind
	Pulse  float64 // cosmetic animation phase in [0,1)
}

// DistanceTo returns the Euclidean distance between two nodes.
func (n *Node) DistanceTo(other *Node) float64 {
	return math.Hypot(n.X-other.X, n.Y-other.Y)
}

// ConnectionKind identifies the durability/cost class of a connection.
type ConnectionKind string

const (
	ConnNormal    ConnectionKind = "normal"
	ConnEnhanced  ConnectionKind = "enhanced"
	ConnTemporary ConnectionKind = "temporary"
	ConnFirewall  ConnectionKind = "firewall"
)

// ConnectionKinds lists every connection kind.
var ConnectionKinds = []ConnectionKind{ConnNormal, ConnEnhanced, ConnTemporary, ConnFirewall}

// Valid reports whether k is one of ConnectionKinds.
func (k ConnectionKind) Valid() bool {
	return slices.Contains(ConnectionKinds, k)
}

// Connection links two nodes. A zero Duration means the link is permanent.
type Connection struct {
	A, B      NodeID
	Kind      ConnectionKind
	CreatedAt time.Time
	Duration  time.Duration
	Age       time.Duration // cosmetic animation time
}

// Touches reports whether id is one of the endpoints.
func (c *Connection) Touches(id NodeID) bool {
	return c.A == id || c.B == id
}

// Links reports whether the connection joins a and b in either order.
func (c *Connection) Links(a, b NodeID) bool {
	return (c.A == a && c.B == b) || (c.A == b && c.B == a)
}

// Other returns the endpoint opposite id, or NoNode if id is not an endpoint.
func (c *Connection) Other(id NodeID) NodeID {
	switch id {
	case c.A:
		return c.B
	case c.B:
		return c.A
	}
	return NoNode
}

// Expired reports whether a timed connection has outlived its duration.
// The comparison is strict: a link is still present at exactly Duration.
func (c *Connection) Expired(now time.Time) bool {
	if c.Duration <= 0 {
		return false
	}
	return now.Sub(c.CreatedAt) > c.Duration
}

// Remaining returns the time left on a timed connection, and false for
// permanent ones.
func (c *Connection) Remaining(now time.Time) (time.Duration, bool) {
	if c.Duration <= 0 {
		return 0, false
	}
	left := c.Duration - now.Sub(c.CreatedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Outcome is the result of a connection attempt.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeTooLong
	OutcomeInvalidEndpoints
	OutcomeRejected // insufficient energy or duplicate pair
	OutcomeVirusEndpoint
	OutcomeInvalidKind
)

// Spent reports whether the attempt consumed energy.
func (o Outcome) Spent() bool {
	return o == OutcomeCreated
}

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeTooLong:
		return "too_long"
	case OutcomeInvalidEndpoints:
		return "invalid_endpoints"
	case OutcomeRejected:
		return "insufficient_energy_or_duplicate"
	case OutcomeVirusEndpoint:
		return "virus_endpoint"
	case OutcomeInvalidKind:
		return "invalid_kind"
	}
	return "unknown"
}

// MatchState is the lifecycle state of a match.
type MatchState string

const (
	StatePlaying MatchState = "playing"
	StateWon     MatchState = "won"
	StateLost    MatchState = "lost"
)

// LoseReason explains why a match was lost.
type LoseReason string

const (
	LoseNone          LoseReason = ""
	LoseTimeout       LoseReason = "timeout"
	LoseStartInfected LoseReason = "start_infected"
)

// DestroyMethod records how a virus node was cleared.
type DestroyMethod string

const (
	DestroyNone      DestroyMethod = ""
	DestroyIsolation DestroyMethod = "isolation"
	DestroyAntivirus DestroyMethod = "antivirus"
)

// SeverCause records why connections were removed.
type SeverCause string

const (
	SeverExpired SeverCause = "expired"
	SeverSilence SeverCause = "silence"
	SeverVirus   SeverCause = "virus"
)

// NodeSpec places one node in a level.
type NodeSpec struct {
	X    float64
	Y    float64
	Kind NodeKind
}

// LinkSpec is a connection that exists when a level loads.
type LinkSpec struct {
	A, B NodeID
	Kind ConnectionKind
}

// Level is the static configuration of one level.
// Zero values of optional fields mean "not set"; see the Default* constants.
type Level struct {
	Number      int
	Name        string
	Description string
	Nodes       []NodeSpec
	Links       []LinkSpec // pre-wired connections, free of charge
	StartEnergy int
	TimeLimit   time.Duration // 0 = no limit

	Waves        bool
	WaveInterval time.Duration // delay before the first wave
	SilenceSpeed float64       // wave progress per tick

	TemporaryConnections bool
	TemporaryDuration    time.Duration

	MaxConnectionLength float64
	TimeBonus           float64
	EnergyBonus         float64
	MaxConnections      int // 0 = no cap
}

const (
	DefaultMaxConnectionLength = 250.0
	DefaultTimeBonus           = 0.7
	DefaultEnergyBonus         = 0.3
	DefaultTemporaryDuration   = 10 * time.Second
	DefaultWaveInterval        = 30 * time.Second
	DefaultSilenceSpeed        = 0.015
)

// WithDefaults returns a copy of the level with unset optional fields filled.
func (l Level) WithDefaults() Level {
	if l.MaxConnectionLength <= 0 {
		l.MaxConnectionLength = DefaultMaxConnectionLength
	}
	if l.TimeBonus <= 0 {
		l.TimeBonus = DefaultTimeBonus
	}
	if l.EnergyBonus <= 0 {
		l.EnergyBonus = DefaultEnergyBonus
	}
	if l.TemporaryDuration <= 0 {
		l.TemporaryDuration = DefaultTemporaryDuration
	}
	if l.WaveInterval <= 0 {
		l.WaveInterval = DefaultWaveInterval
	}
	if l.SilenceSpeed <= 0 {
		l.SilenceSpeed = DefaultSilenceSpeed
	}
	return l
}

// MatchResult summarises a finished (or abandoned) match.
type MatchResult struct {
	MatchID     string
	Level       int
	State       MatchState
	Reason      LoseReason
	Stars       int
	Elapsed     time.Duration
	TimeLeft    time.Duration
	Energy      int
	Connections int
	Viruses     int
	Waves       int
}

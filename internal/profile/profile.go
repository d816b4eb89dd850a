// Package profile holds the player agent's capabilities and connection
// pricing.
package profile

import (
	"sort"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// Ability names a player capability.
type Ability string

const (
	BasicRepair         Ability = "basic_repair"
	EnhancedConnections Ability = "enhanced_connections"
	Firewall            Ability = "firewall"
	DataRedirect        Ability = "data_redirect"
	NeuralOverride      Ability = "neural_override"
	Antivirus           Ability = "antivirus"
)

const (
	DefaultEnergyCapacity = 100

	// AntivirusCost is the energy price of a paid virus removal.
	AntivirusCost = 50

	// Level thresholds at which abilities unlock.
	EnhancedUnlockLevel  = 4
	AntivirusUnlockLevel = 6
)

// baseCosts is the energy price of each connection kind before multipliers.
var baseCosts = map[domain.ConnectionKind]int{
	domain.ConnNormal:    20,
	domain.ConnEnhanced:  40,
	domain.ConnTemporary: 15,
	domain.ConnFirewall:  30,
}

// Profile is the player's capability set. Unlocks are one-way.
type Profile struct {
	abilities      map[Ability]bool
	EnergyCapacity int
	CostMultiplier float64
}

// New creates a starting profile: only basic repair is unlocked.
func New() *Profile {
	return &Profile{
		abilities: map[Ability]bool{
			BasicRepair:         true,
			EnhancedConnections: false,
			Firewall:            false,
			DataRedirect:        false,
			NeuralOverride:      false,
			Antivirus:           false,
		},
		EnergyCapacity: DefaultEnergyCapacity,
		CostMultiplier: 1.0,
	}
}

// Unlock enables an ability. It reports false for unknown names.
func (p *Profile) Unlock(a Ability) bool {
	if _, known := p.abilities[a]; !known {
		return false
	}
	p.abilities[a] = true
	return true
}

// UnlockForLevel applies the unlocks earned by reaching level n.
func (p *Profile) UnlockForLevel(n int) {
	if n >= EnhancedUnlockLevel {
		p.Unlock(EnhancedConnections)
	}
	if n >= AntivirusUnlockLevel {
		p.Unlock(Antivirus)
	}
}

// Has reports whether an ability is unlocked.
func (p *Profile) Has(a Ability) bool {
	return p.abilities[a]
}

func (p *Profile) CanUseEnhancedConnections() bool {
	return p.Has(EnhancedConnections)
}

func (p *Profile) CanUseAntivirus() bool {
	return p.Has(Antivirus)
}

// Unlocked returns the unlocked abilities in name order.
func (p *Profile) Unlocked() []Ability {
	var out []Ability
	for a, on := range p.abilities {
		if on {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConnectionCost returns the price of a connection kind, truncated to an
// integer. Unknown kinds are priced as normal links.
func (p *Profile) ConnectionCost(kind domain.ConnectionKind) int {
	base, ok := baseCosts[kind]
	if !ok {
		base = baseCosts[domain.ConnNormal]
	}
	return int(float64(base) * p.CostMultiplier)
}

// Ensure Profile implements domain.CostTable.
var _ domain.CostTable = (*Profile)(nil)

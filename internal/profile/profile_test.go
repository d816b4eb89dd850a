package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

func TestNew(t *testing.T) {
	p := New()

	assert.Equal(t, []Ability{BasicRepair}, p.Unlocked())
	assert.False(t, p.CanUseEnhancedConnections())
	assert.False(t, p.CanUseAntivirus())
	assert.Equal(t, DefaultEnergyCapacity, p.EnergyCapacity)
}

func TestUnlock(t *testing.T) {
	p := New()

	assert.True(t, p.Unlock(Firewall))
	assert.True(t, p.Has(Firewall))
	assert.True(t, p.Unlock(Firewall), "unlocking twice is harmless")
	assert.False(t, p.Unlock("teleport"))
	assert.False(t, p.Has("teleport"))
}

func TestUnlockForLevel(t *testing.T) {
	tests := []struct {
		level     int
		enhanced  bool
		antivirus bool
	}{
		{1, false, false},
		{3, false, false},
		{4, true, false},
		{5, true, false},
		{6, true, true},
		{10, true, true},
	}

	for _, tt := range tests {
		p := New()
		p.UnlockForLevel(tt.level)
		assert.Equal(t, tt.enhanced, p.CanUseEnhancedConnections(), "level %d", tt.level)
		assert.Equal(t, tt.antivirus, p.CanUseAntivirus(), "level %d", tt.level)
	}
}

func TestUnlockForLevel_NeverRelocks(t *testing.T) {
	p := New()
	p.UnlockForLevel(6)
	p.UnlockForLevel(1)

	assert.True(t, p.CanUseEnhancedConnections())
	assert.True(t, p.CanUseAntivirus())
}

func TestConnectionCost(t *testing.T) {
	p := New()

	assert.Equal(t, 20, p.ConnectionCost(domain.ConnNormal))
	assert.Equal(t, 40, p.ConnectionCost(domain.ConnEnhanced))
	assert.Equal(t, 15, p.ConnectionCost(domain.ConnTemporary))
	assert.Equal(t, 30, p.ConnectionCost(domain.ConnFirewall))
	assert.Equal(t, 20, p.ConnectionCost("unknown"), "unknown kinds cost as normal")

	p.CostMultiplier = 0.5
	assert.Equal(t, 7, p.ConnectionCost(domain.ConnTemporary), "fractions truncate")
}

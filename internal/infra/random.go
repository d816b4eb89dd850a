package infra

import (
	"math/rand/v2"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// NewRandom returns a seeded PCG source. The same seed replays the same
// match.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var _ domain.Random = (*rand.Rand)(nil)

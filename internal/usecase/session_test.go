package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/profile"
)

// fakeLevelStore serves line levels 1 through last.
type fakeLevelStore struct {
	last int
}

func (f fakeLevelStore) GetAll() []domain.Level {
	var all []domain.Level
	for _, n := range f.List() {
		all = append(all, lineLevel(n))
	}
	return all
}

func (f fakeLevelStore) GetByNumber(n int) (*domain.Level, error) {
	if n < 1 || n > f.last {
		return nil, fmt.Errorf("level %d: %w", n, domain.ErrLevelNotFound)
	}
	l := lineLevel(n)
	return &l, nil
}

func (f fakeLevelStore) Load(n int) domain.Level {
	if l, err := f.GetByNumber(n); err == nil {
		return *l
	}
	return lineLevel(1)
}

func (f fakeLevelStore) List() []int {
	nums := make([]int, 0, f.last)
	for n := 1; n <= f.last; n++ {
		nums = append(nums, n)
	}
	return nums
}

var _ domain.LevelStore = fakeLevelStore{}

func newTestSession(first int, last int, prof *profile.Profile) *Session {
	return NewSession(fakeLevelStore{last: last}, lineLevel(first), prof, stubRandom{}, nil, zap.NewNop())
}

func win(t *testing.T, m *Match) {
	t.Helper()
	require.Equal(t, domain.OutcomeCreated, m.Connect(0, 1))
	require.Equal(t, domain.OutcomeCreated, m.Connect(1, 2))
	require.Equal(t, domain.OutcomeCreated, m.Connect(2, 3))
	m.Advance(frame)
	require.Equal(t, domain.StateWon, m.State())
}

func TestSession_Restart(t *testing.T) {
	s := newTestSession(2, 10, nil)
	first := s.Current()
	require.Equal(t, domain.OutcomeCreated, first.Connect(0, 1))

	m := s.Restart()

	assert.NotSame(t, first, m)
	assert.Same(t, m, s.Current())
	assert.Equal(t, 2, m.Level().Number)
	assert.Zero(t, m.Graph().ConnectionCount())
	assert.Equal(t, 100, m.Energy())
	assert.Same(t, first.Profile(), m.Profile())
}

func TestSession_NextRequiresWin(t *testing.T) {
	s := newTestSession(1, 10, nil)

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrNotWon)
	assert.Equal(t, 1, s.Current().Level().Number)
}

func TestSession_NextAdvancesWithSameProfile(t *testing.T) {
	s := newTestSession(3, 10, nil)
	win(t, s.Current())
	assert.False(t, s.Profile().CanUseEnhancedConnections())

	m, err := s.Next()
	require.NoError(t, err)

	assert.Equal(t, 4, m.Level().Number)
	assert.Same(t, s.Profile(), m.Profile())
	assert.True(t, m.Profile().CanUseEnhancedConnections())
}

func TestSession_NextStopsAtLastLevel(t *testing.T) {
	s := newTestSession(10, 10, nil)
	win(t, s.Current())

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrLastLevel)
	assert.Equal(t, 10, s.Current().Level().Number)
}

func TestSession_UnlocksSurviveEarlierLevels(t *testing.T) {
	s := newTestSession(6, 10, nil)
	require.True(t, s.Profile().CanUseAntivirus())

	replay := newTestSession(1, 10, s.Profile())

	assert.True(t, replay.Current().Profile().CanUseAntivirus())
	assert.True(t, replay.Current().Profile().CanUseEnhancedConnections())
	replay.Restart()
	assert.True(t, replay.Profile().CanUseAntivirus())
}

package usecase

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/profile"
)

var (
	// ErrNotWon is returned when advancing from a level that is not won.
	ErrNotWon = errors.New("current level not won")

	// ErrLastLevel is returned when there is no level after the current one.
	ErrLastLevel = errors.New("no next level")
)

// Session plays a sequence of matches with one player profile, so unlocks
// earned on a level stay earned on every later match, restarts included.
// It is not safe for concurrent use.
type Session struct {
	store    domain.LevelStore
	profile  *profile.Profile
	rng      domain.Random
	recorder domain.Recorder
	logger   *zap.Logger

	current *Match
}

// NewSession starts a session on first. A nil profile gets a new starting
// profile.
func NewSession(
	store domain.LevelStore,
	first domain.Level,
	prof *profile.Profile,
	rng domain.Random,
	recorder domain.Recorder,
	logger *zap.Logger,
) *Session {
	if prof == nil {
		prof = profile.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		store:    store,
		profile:  prof,
		rng:      rng,
		recorder: recorder,
		logger:   logger,
	}
	s.current = s.play(first)
	return s
}

// Current returns the match being played.
func (s *Session) Current() *Match {
	return s.current
}

// Profile returns the profile shared by every match of the session.
func (s *Session) Profile() *profile.Profile {
	return s.profile
}

// Restart replaces the current match with a fresh one on the same level.
func (s *Session) Restart() *Match {
	s.logger.Info("restarting level", zap.Int("level", s.current.Level().Number))
	s.current = s.play(s.current.Level())
	return s.current
}

// Next moves on to the following level. The current match must be won and
// a higher-numbered level must exist in the store.
func (s *Session) Next() (*Match, error) {
	if s.current.State() != domain.StateWon {
		return nil, ErrNotWon
	}
	n := s.current.Level().Number + 1
	if s.store == nil {
		return nil, ErrLastLevel
	}
	next, err := s.store.GetByNumber(n)
	if errors.Is(err, domain.ErrLevelNotFound) {
		return nil, ErrLastLevel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load level %d: %w", n, err)
	}
	s.logger.Info("advancing level", zap.Int("level", n))
	s.current = s.play(*next)
	return s.current, nil
}

func (s *Session) play(l domain.Level) *Match {
	return NewMatch(l, s.profile, s.rng, s.recorder, s.logger)
}

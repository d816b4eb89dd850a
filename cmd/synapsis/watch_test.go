package main

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/infra"
	"github.com/eliteGoblin/synapsis/internal/level"
	"github.com/eliteGoblin/synapsis/internal/runner"
	"github.com/eliteGoblin/synapsis/internal/usecase"
	"github.com/eliteGoblin/synapsis/internal/view"
)

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(120, 40)
	t.Cleanup(screen.Fini)
	return view.NewRenderer(screen)
}

// watchRequests runs watchSession, sending each request once a match has
// started, and cancels after the last one. It returns every match handed
// to a runner, in order.
func watchRequests(t *testing.T, session *usecase.Session, reqs ...view.Request) []*usecase.Match {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requests := make(chan view.Request, 1)
	var played []*usecase.Match
	newRunner := func(m *usecase.Match) *runner.Runner {
		played = append(played, m)
		if n := len(played); n <= len(reqs) {
			requests <- reqs[n-1]
		} else {
			cancel()
		}
		return runner.NewRunner(runner.DefaultRunnerConfig(), m, nil, nil, zap.NewNop())
	}

	_, err := watchSession(ctx, session, requests, newRunner, newTestRenderer(t), zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	return played
}

func TestWatchSession_Restart(t *testing.T) {
	store, err := level.NewStore(nil)
	require.NoError(t, err)
	session := usecase.NewSession(store, store.Load(6), nil, infra.NewRandom(1), nil, zap.NewNop())

	played := watchRequests(t, session, view.RequestRestart)

	require.Len(t, played, 2)
	assert.NotSame(t, played[0], played[1])
	assert.Equal(t, 6, played[1].Level().Number)
	assert.Same(t, played[0].Profile(), played[1].Profile())
	assert.True(t, played[1].Profile().CanUseAntivirus())
}

func TestWatchSession_NextRefusedWhilePlaying(t *testing.T) {
	store, err := level.NewStore(nil)
	require.NoError(t, err)
	session := usecase.NewSession(store, store.Load(1), nil, infra.NewRandom(1), nil, zap.NewNop())

	played := watchRequests(t, session, view.RequestNext)

	require.Len(t, played, 2)
	assert.Same(t, played[0], played[1], "the unfinished match resumes")
	assert.Equal(t, 1, session.Current().Level().Number)
}

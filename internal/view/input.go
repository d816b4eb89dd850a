package view

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/usecase"
)

// Stepper is anything that can take one automated turn.
type Stepper interface {
	Step(m *usecase.Match) usecase.Action
}

// Input turns terminal events into match commands. It keeps the node
// selection between clicks and must be used from a single goroutine.
type Input struct {
	renderer *Renderer
	pilot    Stepper
	selected domain.NodeID
}

// NewInput creates an input handler. pilot may be nil, which disables the
// hint key.
func NewInput(renderer *Renderer, pilot Stepper) *Input {
	return &Input{renderer: renderer, pilot: pilot, selected: domain.NoNode}
}

// Help is the key summary shown under the board.
const Help = "click two nodes to connect | x destroy virus | e enhanced | h hint | r restart | n next | q quit"

// Request is a session-level action that replaces or ends the match rather
// than acting on it.
type Request int

const (
	RequestNone Request = iota
	RequestQuit
	RequestRestart
	RequestNext
)

// Handle maps an event to either a match command or a session request.
// A nil command with RequestNone means nothing to do.
func (in *Input) Handle(ev tcell.Event) (cmd func(*usecase.Match), req Request) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return in.key(ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return nil, RequestNone
		}
		x, y := ev.Position()
		return in.click(x, y), RequestNone
	case *tcell.EventResize:
		in.renderer.screen.Sync()
	}
	return nil, RequestNone
}

func (in *Input) key(ev *tcell.EventKey) (func(*usecase.Match), Request) {
	switch ev.Key() {
	case tcell.KeyEscape:
		if in.selected != domain.NoNode {
			in.selectNode(domain.NoNode)
			return nil, RequestNone
		}
		return nil, RequestQuit
	case tcell.KeyCtrlC:
		return nil, RequestQuit
	case tcell.KeyRune:
	default:
		return nil, RequestNone
	}

	switch ev.Rune() {
	case 'q':
		return nil, RequestQuit
	case 'r', 'R':
		in.selectNode(domain.NoNode)
		return nil, RequestRestart
	case 'n', 'N':
		in.selectNode(domain.NoNode)
		return nil, RequestNext
	case 'e':
		return func(m *usecase.Match) {
			on := m.ToggleEnhancedMode()
			in.renderer.Message(fmt.Sprintf("enhanced mode %v", on))
		}, RequestNone
	case 'x':
		target := in.selected
		in.selectNode(domain.NoNode)
		if target == domain.NoNode {
			return nil, RequestNone
		}
		return func(m *usecase.Match) {
			method := m.DestroyVirus(target)
			if method == domain.DestroyNone {
				in.renderer.Message(fmt.Sprintf("cannot destroy node %d", target))
				return
			}
			in.renderer.Message(fmt.Sprintf("virus %d destroyed by %s", target, method))
		}, RequestNone
	case 'h':
		if in.pilot == nil {
			return nil, RequestNone
		}
		return func(m *usecase.Match) {
			if action := in.pilot.Step(m); action != usecase.ActionNone {
				in.renderer.Message(fmt.Sprintf("hint: %s", action))
			}
		}, RequestNone
	}
	return nil, RequestNone
}

func (in *Input) click(col, row int) func(*usecase.Match) {
	id, ok := in.renderer.NodeAt(col, row)
	if !ok {
		in.selectNode(domain.NoNode)
		return nil
	}
	if in.selected == domain.NoNode || in.selected == id {
		in.selectNode(id)
		return nil
	}

	a, b := in.selected, id
	in.selectNode(domain.NoNode)
	return func(m *usecase.Match) {
		outcome := m.Connect(a, b)
		if outcome != domain.OutcomeCreated {
			in.renderer.Message(fmt.Sprintf("%d-%d: %s", a, b, outcome))
			return
		}
		in.renderer.Message(fmt.Sprintf("linked %d-%d", a, b))
	}
}

func (in *Input) selectNode(id domain.NodeID) {
	in.selected = id
	in.renderer.Select(id)
}

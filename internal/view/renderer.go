// Package view draws match snapshots on a terminal screen and turns
// keyboard and mouse events into match commands.
package view

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/level"
	"github.com/eliteGoblin/synapsis/internal/silence"
	"github.com/eliteGoblin/synapsis/internal/usecase"
)

// statusRows is the number of rows kept below the board.
const statusRows = 2

type glyph struct {
	r     rune
	style tcell.Style
}

var nodeGlyphs = map[domain.NodeKind]glyph{
	domain.NodeStart:     {'S', tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)},
	domain.NodeFinish:    {'F', tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)},
	domain.NodeNeutral:   {'o', tcell.StyleDefault.Foreground(tcell.ColorWhite)},
	domain.NodeVirus:     {'V', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
	domain.NodeFirewall:  {'#', tcell.StyleDefault.Foreground(tcell.ColorYellow)},
	domain.NodeAmplifier: {'A', tcell.StyleDefault.Foreground(tcell.ColorPurple)},
	domain.NodeDecoy:     {'d', tcell.StyleDefault.Foreground(tcell.ColorGray)},
	domain.NodeCodex:     {'C', tcell.StyleDefault.Foreground(tcell.ColorTeal)},
}

var linkGlyphs = map[domain.ConnectionKind]glyph{
	domain.ConnNormal:    {'.', tcell.StyleDefault.Foreground(tcell.ColorSilver)},
	domain.ConnEnhanced:  {'=', tcell.StyleDefault.Foreground(tcell.ColorAqua)},
	domain.ConnTemporary: {':', tcell.StyleDefault.Foreground(tcell.ColorOlive)},
	domain.ConnFirewall:  {'+', tcell.StyleDefault.Foreground(tcell.ColorYellow)},
}

var (
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	wonStyle    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	lostStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Renderer draws snapshots on a tcell screen. It implements the runner's
// frame observer and is safe to call from the run loop while the input
// goroutine reads node positions.
type Renderer struct {
	screen tcell.Screen

	mu       sync.Mutex
	last     usecase.Snapshot
	selected domain.NodeID
	message  string
}

// NewRenderer creates a renderer on an initialized screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen, selected: domain.NoNode}
}

// Frame redraws the whole screen from s.
func (r *Renderer) Frame(s usecase.Snapshot) {
	r.mu.Lock()
	r.last = s
	selected := r.selected
	message := r.message
	r.mu.Unlock()

	r.screen.Clear()
	cols, rows := r.screen.Size()
	board := rows - statusRows
	if cols < 2 || board < 2 {
		r.screen.Show()
		return
	}

	for _, l := range s.Links {
		r.drawLink(s, l, cols, board)
	}
	for _, n := range s.Nodes {
		g, ok := nodeGlyphs[n.Kind]
		if !ok {
			g = glyph{'?', statusStyle}
		}
		style := g.style
		if n.ID == selected {
			style = style.Reverse(true)
		}
		x, y := toCell(n.X, n.Y, cols, board)
		r.screen.SetContent(x, y, g.r, nil, style)
		r.drawText(x+1, y, fmt.Sprint(int(n.ID)), tcell.StyleDefault.Foreground(tcell.ColorGray).Dim(true))
	}

	r.drawStatus(s, message, cols, board)
	r.screen.Show()
}

// Select highlights a node, or clears the highlight with domain.NoNode.
func (r *Renderer) Select(id domain.NodeID) {
	r.mu.Lock()
	r.selected = id
	r.mu.Unlock()
}

// Message sets the hint shown on the second status row.
func (r *Renderer) Message(msg string) {
	r.mu.Lock()
	r.message = msg
	r.mu.Unlock()
}

// NodeAt returns the node drawn at or next to a screen cell in the last
// frame.
func (r *Renderer) NodeAt(col, row int) (domain.NodeID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cols, rows := r.screen.Size()
	board := rows - statusRows
	best, bestDist := domain.NoNode, math.MaxInt
	for _, n := range r.last.Nodes {
		x, y := toCell(n.X, n.Y, cols, board)
		dx, dy := abs(x-col), abs(y-row)
		if dx > 1 || dy > 1 {
			continue
		}
		if d := dx + dy; d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best, best != domain.NoNode
}

// Last returns the most recent snapshot.
func (r *Renderer) Last() usecase.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Renderer) drawLink(s usecase.Snapshot, l usecase.LinkView, cols, rows int) {
	a, okA := findNode(s.Nodes, l.A)
	b, okB := findNode(s.Nodes, l.B)
	if !okA || !okB {
		return
	}
	g, ok := linkGlyphs[l.Kind]
	if !ok {
		g = linkGlyphs[domain.ConnNormal]
	}
	style := g.style
	if l.Timed && l.Remaining < 3*time.Second {
		style = style.Dim(true)
	}
	x0, y0 := toCell(a.X, a.Y, cols, rows)
	x1, y1 := toCell(b.X, b.Y, cols, rows)
	line(x0, y0, x1, y1, func(x, y int) {
		if (x == x0 && y == y0) || (x == x1 && y == y1) {
			return
		}
		r.screen.SetContent(x, y, g.r, nil, style)
	})
}

func (r *Renderer) drawStatus(s usecase.Snapshot, message string, cols, board int) {
	var b strings.Builder
	fmt.Fprintf(&b, "L%d %s | energy %d", s.Level, s.LevelName, s.Energy)
	if s.TimeLimit > 0 {
		fmt.Fprintf(&b, " | time %s", formatClock(s.TimeLeft))
	}
	switch s.WavePhase {
	case silence.PhaseDisabled:
	case silence.PhaseActive:
		fmt.Fprintf(&b, " | WAVE %d%%", int(s.WaveProgress*100))
	default:
		fmt.Fprintf(&b, " | wave %d%% in %s", int(s.WaveCharge*100), formatClock(s.WaveIn))
	}
	if s.Enhanced {
		b.WriteString(" | enhanced")
	}
	if n := len(s.Viruses); n > 0 {
		fmt.Fprintf(&b, " | viruses %d", n)
	}
	r.drawText(0, board, truncate(b.String(), cols), statusStyle)

	second, style := message, statusStyle.Dim(true)
	switch s.State {
	case domain.StateWon:
		second = fmt.Sprintf("CONNECTED  %s", stars(s.Stars))
		style = wonStyle
	case domain.StateLost:
		second = fmt.Sprintf("LOST (%s)", s.Reason)
		style = lostStyle
	}
	r.drawText(0, board+1, truncate(second, cols), style)
}

func (r *Renderer) drawText(x, y int, text string, style tcell.Style) {
	for _, c := range text {
		r.screen.SetContent(x, y, c, nil, style)
		x++
	}
}

// toCell maps a canvas point onto a cols x rows board.
func toCell(x, y float64, cols, rows int) (int, int) {
	cx := int(math.Round(x / level.CanvasWidth * float64(cols-1)))
	cy := int(math.Round(y / level.CanvasHeight * float64(rows-1)))
	return clamp(cx, 0, cols-1), clamp(cy, 0, rows-1)
}

// line walks the cells between two points (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func findNode(nodes []domain.Node, id domain.NodeID) (domain.Node, bool) {
	if int(id) >= 0 && int(id) < len(nodes) && nodes[id].ID == id {
		return nodes[id], true
	}
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Node{}, false
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func stars(n int) string {
	return strings.Repeat("*", n) + strings.Repeat("-", usecase.MaxStars-n)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

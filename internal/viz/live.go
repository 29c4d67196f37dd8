package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/diceroll/internal/world"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 240
	tickRate        = time.Second / 60
)

type TickMsg time.Time

// Model is the live terminal view. Each tick converts the wall-clock delta
// into fixed physics steps and redraws the scene.
type Model struct {
	world   *world.World
	rethrow func(*world.World) error
	dt      float64
	clock   *world.FrameClock
	scene   *Scene
	canvas  *Canvas
	frame   world.Frame
	heights [][]float64
	last    time.Time
	running bool
	theme   int
	styles  styles
	title   string
	err     error
}

// NewModel wraps a world whose dice are already thrown. rethrow is called on
// the r key to throw every die again.
func NewModel(w *world.World, dt float64, rethrow func(*world.World) error, title string) Model {
	m := Model{
		world:   w,
		rethrow: rethrow,
		dt:      dt,
		clock:   world.NewFrameClock(dt, 8),
		scene:   NewScene(),
		canvas:  NewCanvas(width, height),
		running: true,
		styles:  newStyles(Themes[0]),
		title:   title,
	}
	m.resetHistory()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.last = time.Time{}
		case "r":
			m.Rethrow()
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		}
	case TickMsg:
		now := time.Time(msg)
		elapsed := tickRate.Seconds()
		if !m.last.IsZero() {
			elapsed = now.Sub(m.last).Seconds()
		}
		m.last = now
		if m.running {
			m.Advance(elapsed)
		}
		return m, tick()
	}
	return m, nil
}

// Advance runs as many physics steps as elapsed seconds of wall time allow.
func (m *Model) Advance(elapsed float64) int {
	if m.err != nil {
		return 0
	}
	n := m.clock.Advance(elapsed)
	for i := 0; i < n; i++ {
		f, err := m.world.Step(m.dt)
		if err != nil {
			m.err = err
			m.running = false
			return i
		}
		m.frame = f
		m.record(f)
	}
	return n
}

// Rethrow throws every die again and clears the history.
func (m *Model) Rethrow() {
	if m.rethrow == nil {
		return
	}
	if err := m.rethrow(m.world); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.clock.Reset()
	m.resetHistory()
}

func (m *Model) resetHistory() {
	m.frame = m.world.Frame()
	m.heights = make([][]float64, len(m.frame.Poses))
	m.record(m.frame)
}

func (m *Model) record(f world.Frame) {
	for i, p := range f.Poses {
		if i >= len(m.heights) {
			break
		}
		h := append(m.heights[i], p.Position.Y())
		if len(h) > historyCapacity {
			h = h[len(h)-historyCapacity:]
		}
		m.heights[i] = h
	}
}

func (m Model) Frame() world.Frame { return m.frame }
func (m Model) Running() bool      { return m.running }
func (m Model) Err() error         { return m.err }

func (m Model) View() string {
	m.scene.Draw(m.canvas, m.frame)
	canvasView := m.styles.canvas.Render(m.canvas.String())
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.paused.Render("ERROR: "+m.err.Error()) + "\n\n")
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	case m.frame.AllResting():
		s.WriteString(st.running.Render("AT REST") + "\n\n")
	default:
		s.WriteString(st.running.Render("ROLLING") + "\n\n")
	}

	if len(m.heights) > 0 && len(m.heights[0]) > 1 {
		chart := asciigraph.PlotMany(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("height"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	s.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.2fs", m.frame.Time)) + "\n")
	for _, p := range m.frame.Poses {
		euler := p.Euler()
		s.WriteString(st.label.Render(p.Name) + st.value.Render(fmt.Sprintf("y=%6.2f  %s", p.Position.Y(), p.State)) + "\n")
		s.WriteString(st.label.Render("") + st.value.Render(fmt.Sprintf("rot=(%.2f, %.2f, %.2f)", euler.X(), euler.Y(), euler.Z())) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Rethrow T:Theme Q:Quit"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
}

package viz

import (
	"fmt"
	"math/cmplx"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	maxSpeed        = 64
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a trajectory.Run a few steps per frame and draws the wrapped
// path inside the fundamental cell.
type Model struct {
	params        lattice.Params
	cfg           trajectory.Config
	z0, v0        complex128
	wrapThreshold float64
	title         string

	run     *trajectory.Run
	view    *CellView
	poles   []complex128
	history []float64

	running  bool
	speed    int
	showHelp bool
}

// NewModel validates the run up front so that the TUI never starts on a bad
// config.
func NewModel(params lattice.Params, z0, v0 complex128, cfg trajectory.Config, wrapThreshold float64, title string) (Model, error) {
	run, err := trajectory.NewRun(params, z0, v0, cfg)
	if err != nil {
		return Model{}, err
	}
	return Model{
		params:        params,
		cfg:           cfg,
		z0:            z0,
		v0:            v0,
		wrapThreshold: wrapThreshold,
		title:         title,
		run:           run,
		view:          NewCellView(width, height, params.P(), params.Q()),
		poles:         params.CellPoles(),
		history:       make([]float64, 0, historyCapacity),
		running:       true,
		speed:         1,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs up to speed steps, stopping early when the run ends.
func (m *Model) advance() {
	for i := 0; i < m.speed && !m.run.Done(); i++ {
		m.run.Step()
		m.history = append(m.history, cmplx.Abs(m.run.State().Z))
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
	}
}

func (m *Model) reset() {
	// z0, v0 and cfg were accepted by NewModel, so this cannot fail.
	m.run, _ = trajectory.NewRun(m.params, m.z0, m.v0, m.cfg)
	m.history = m.history[:0]
	m.running = true
}

func (m Model) draw() string {
	m.view.Clear()
	m.view.MarkPoles(m.poles)
	m.view.PlotWrapped(torus.WrapWithBreaks(m.run.Points(), m.params.P(), m.params.Q(), m.wrapThreshold))
	m.view.Marker(torus.WrapPoint(m.run.State().Z, m.params.P(), m.params.Q()))
	return lipgloss.NewStyle().Foreground(CurrentTheme.Trace).Render(m.view.String())
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.draw())

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := StatusBadge(m.run.Status())
	if !m.running && !m.run.Done() {
		status = Subtle.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if chart := Graph(m.history, "|z(t)|", 30, 4); chart != "" {
		s.WriteString(GraphStyle.Render(chart) + "\n\n")
	}

	state := m.run.State()
	s.WriteString(KeyValue("Lattice", m.params.String()))
	s.WriteString(KeyValue("Time", fmt.Sprintf("%.3f / %.3f", m.run.Time(), m.cfg.Duration)))
	s.WriteString(KeyValue("Step", fmt.Sprintf("%d", m.run.Steps())))
	s.WriteString(KeyValue("z", FormatComplex(state.Z)))
	s.WriteString(KeyValue("wrapped", FormatComplex(torus.WrapPoint(state.Z, m.params.P(), m.params.Q()))))
	s.WriteString(KeyValue("|v|", fmt.Sprintf("%.4f", cmplx.Abs(state.V))))
	s.WriteString(KeyValue("Speed", fmt.Sprintf("%dx", m.speed)))
	if m.cfg.Duration > 0 {
		s.WriteString(ProgressBar(m.run.Time()/m.cfg.Duration, 30) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Restart Q:Quit\n+/-:Speed T:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart from z0          ║
║  Q        - Quit                     ║
║  + / -    - Double/halve speed       ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// RunLive starts the live view in the alternate screen.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

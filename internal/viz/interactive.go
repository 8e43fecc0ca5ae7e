package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/wpsim/internal/config"
)

var presetInfo = map[string]string{
	"reference":  "p=11 q=5, z0=5.5, v0=i",
	"square":     "unit square lattice",
	"pole-dive":  "falls into the origin",
	"blowup":     "tiny blow threshold",
	"long":       "adaptive RK45, T=30",
	"fine-field": "N=8 field preset",
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// App picks a preset, lets the user tweak the initial conditions and then
// hands over to the live view.
type App struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	live          Model
}

func NewApp() App {
	return App{state: stateMenu, presets: config.ListPresets()}
}

func (m App) Init() tea.Cmd { return nil }

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(key)
		case stateConfig:
			return m.configKey(key)
		}
	}
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	return m, nil
}

func (m App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m App) configKey(msg tea.KeyMsg) (App, tea.Cmd) {
	name := config.TunableNames[m.paramCursor]
	val, _ := m.cfg.Get(name)
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				_ = m.cfg.Set(name, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(config.TunableNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, strconv.FormatFloat(val, 'g', -1, 64)
	case "left", "h":
		_ = m.cfg.Set(name, val-step(name))
	case "right", "l":
		_ = m.cfg.Set(name, val+step(name))
	case "s":
		return m.start()
	}
	return m, nil
}

// step is the h/l increment for a setting.
func step(name string) float64 {
	switch name {
	case "n":
		return 1
	case "dt", "pole_eps":
		return 0.001
	}
	return 0.1
}

func (m App) start() (App, tea.Cmd) {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	params, _ := m.cfg.Params()
	live, err := NewModel(params, m.cfg.Integrate.Z0.Value(), m.cfg.Integrate.V0.Value(), m.cfg.Trajectory(), m.cfg.WrapThreshold, m.selected)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live, m.state, m.err = live, stateSim, nil
	return m, m.live.Init()
}

func (m App) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func header(title, sub string) string {
	return "\n\n    " + titleStyle.Render(title) + "\n    " + subStyle.Render(sub) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n"
}

func hints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (m App) viewMenu() string {
	var b strings.Builder
	b.WriteString(header("WPSIM", "weierstrass lattice dynamics"))
	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-12s", name)), accentStyle.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", name)), subStyle.Render(presetInfo[name])))
		}
	}
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m App) viewConfig() string {
	var b strings.Builder
	b.WriteString(header(strings.ToUpper(m.selected), presetInfo[m.selected]))
	for i, name := range config.TunableNames {
		val, _ := m.cfg.Get(name)
		valStr := fmt.Sprintf("%8.3f", val)
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-12s", name)), accentStyle.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", name)), subStyle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back"))
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewApp(), tea.WithAltScreen()).Run()
	return err
}

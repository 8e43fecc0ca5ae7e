package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wpsim/internal/trajectory"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	GraphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("49")).
			Padding(1, 0)

	statusStyles = map[trajectory.Status]lipgloss.Style{
		trajectory.Running:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff")),
		trajectory.Completed:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")),
		trajectory.PoleHalt:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00")),
		trajectory.BlowUp:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")),
		trajectory.NumericFailure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff")),
	}
)

// StatusBadge renders a status name in its color.
func StatusBadge(s trajectory.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return strings.ToUpper(s.String())
	}
	return style.Render(strings.ToUpper(s.String()))
}

// KeyValue renders one aligned label/value line.
func KeyValue(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value) + "\n"
}

// FormatComplex prints z as "a+bi" with fixed precision.
func FormatComplex(z complex128) string {
	return fmt.Sprintf("%.4f%+.4fi", real(z), imag(z))
}

// ProgressBar renders a fraction in [0,1] as a bar of the given width.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(bar)
}

// Graph plots values with asciigraph. Fewer than two values give "".
func Graph(values []float64, caption string, width, height int) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
}

// TrajectorySummary renders the outcome of one trajectory as a block of
// label/value lines.
func TrajectorySummary(tr *trajectory.Trajectory) string {
	var s strings.Builder
	s.WriteString(KeyValue("Status", StatusBadge(tr.Status())))
	s.WriteString(KeyValue("Points", fmt.Sprintf("%d", tr.Len())))
	s.WriteString(KeyValue("Time", fmt.Sprintf("%.4f", tr.Times[len(tr.Times)-1])))
	s.WriteString(KeyValue("Final z", FormatComplex(tr.Last())))
	if tr.Halt != nil {
		s.WriteString(KeyValue("Halt at", fmt.Sprintf("%s (step %d, t=%.4f)", FormatComplex(tr.Halt.Position), tr.Halt.Step, tr.Halt.Time)))
	}
	return s.String()
}

package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name   string
	Trace  lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemePhosphor = Theme{
		Name:   "phosphor",
		Trace:  lipgloss.Color("#00ff88"),
		Accent: lipgloss.Color("#00ffff"),
		Muted:  lipgloss.Color("#005533"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Trace:  lipgloss.Color("#00a8cc"),
		Accent: lipgloss.Color("#ffd700"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	ThemeSunset = Theme{
		Name:   "sunset",
		Trace:  lipgloss.Color("#ff6b6b"),
		Accent: lipgloss.Color("#feca57"),
		Muted:  lipgloss.Color("#8b6b8c"),
	}

	CurrentTheme = ThemePhosphor

	Themes = []Theme{ThemePhosphor, ThemeOcean, ThemeSunset}
)

// GetTheme returns a theme by name, falling back to phosphor.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePhosphor
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemePhosphor
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

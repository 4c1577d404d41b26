package tui

import "github.com/charmbracelet/lipgloss"

// Theme names accepted by Options.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Theme is the set of styles for one color scheme.
type Theme struct {
	Name string

	App          lipgloss.Style
	Title        lipgloss.Style
	Header       lipgloss.Style
	Sidebar      lipgloss.Style
	SidebarTitle lipgloss.Style
	Item         lipgloss.Style
	SelectedItem lipgloss.Style
	Transcript   lipgloss.Style
	User         lipgloss.Style
	Bot          lipgloss.Style
	Failed       lipgloss.Style
	Input        lipgloss.Style
	Button       lipgloss.Style
	ButtonBusy   lipgloss.Style
	Notice       lipgloss.Style
	Muted        lipgloss.Style
}

type palette struct {
	fg, bg, accent, user, bot, failed, muted, border lipgloss.Color
}

func newTheme(name string, p palette) Theme {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border)
	return Theme{
		Name:         name,
		App:          lipgloss.NewStyle().Foreground(p.fg).Background(p.bg),
		Title:        lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Header:       lipgloss.NewStyle().Foreground(p.fg).Padding(0, 1),
		Sidebar:      border.Padding(0, 1),
		SidebarTitle: lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Item:         lipgloss.NewStyle().Foreground(p.fg),
		SelectedItem: lipgloss.NewStyle().Bold(true).Foreground(p.bg).Background(p.accent),
		Transcript:   border.Padding(0, 1),
		User:         lipgloss.NewStyle().Bold(true).Foreground(p.user),
		Bot:          lipgloss.NewStyle().Bold(true).Foreground(p.bot),
		Failed:       lipgloss.NewStyle().Bold(true).Foreground(p.failed),
		Input:        border,
		Button:       lipgloss.NewStyle().Bold(true).Foreground(p.bg).Background(p.accent).Padding(0, 2),
		ButtonBusy:   lipgloss.NewStyle().Foreground(p.muted).Background(p.border).Padding(0, 2),
		Notice:       lipgloss.NewStyle().Foreground(p.failed),
		Muted:        lipgloss.NewStyle().Foreground(p.muted),
	}
}

var (
	lightTheme = newTheme(ThemeLight, palette{
		fg: "#1f2328", bg: "#ffffff", accent: "#0969da", user: "#8250df",
		bot: "#1a7f37", failed: "#cf222e", muted: "#6e7781", border: "#d0d7de",
	})
	darkTheme = newTheme(ThemeDark, palette{
		fg: "#e6edf3", bg: "#0d1117", accent: "#2f81f7", user: "#d2a8ff",
		bot: "#3fb950", failed: "#f85149", muted: "#8b949e", border: "#30363d",
	})
)

// ThemeByName returns the named theme, light for anything unknown.
func ThemeByName(name string) Theme {
	if name == ThemeDark {
		return darkTheme
	}
	return lightTheme
}

// Toggle switches between light and dark.
func (t Theme) Toggle() Theme {
	if t.Name == ThemeDark {
		return lightTheme
	}
	return darkTheme
}

// ToggleLabel is the caption for the theme switch.
func (t Theme) ToggleLabel() string {
	if t.Name == ThemeDark {
		return "Light Mode"
	}
	return "Dark Mode"
}

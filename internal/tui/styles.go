package tui

import "github.com/charmbracelet/lipgloss"

// Theme names accepted by New.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type styles struct {
	title     lipgloss.Style
	label     lipgloss.Style
	status    lipgloss.Style
	errStatus lipgloss.Style
	header    lipgloss.Style
	section   lipgloss.Style
	rule      lipgloss.Style
	help      lipgloss.Style
	input     lipgloss.Style
}

func themeStyles(theme string) styles {
	fg, accent, muted, bad := lipgloss.Color("252"), lipgloss.Color("212"), lipgloss.Color("241"), lipgloss.Color("203")
	if theme == ThemeLight {
		fg, accent, muted, bad = lipgloss.Color("235"), lipgloss.Color("125"), lipgloss.Color("245"), lipgloss.Color("160")
	}
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent),
		label:     lipgloss.NewStyle().Foreground(fg),
		status:    lipgloss.NewStyle().Foreground(muted),
		errStatus: lipgloss.NewStyle().Foreground(bad).Bold(true),
		header:    lipgloss.NewStyle().Foreground(muted),
		section:   lipgloss.NewStyle().Bold(true).Foreground(fg),
		rule:      lipgloss.NewStyle().Foreground(muted),
		help:      lipgloss.NewStyle().Foreground(muted),
		input:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
	}
}

package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds every style the job watch view uses.
type Theme struct {
	Pending    lipgloss.Style
	Processing lipgloss.Style
	Completed  lipgloss.Style
	Failed     lipgloss.Style

	Border lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Processing: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Completed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Failed:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(purple).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")),
		Dim: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

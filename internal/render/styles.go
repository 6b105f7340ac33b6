package render

import "github.com/charmbracelet/lipgloss"

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorOrange = lipgloss.Color("#FFB86C")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Align(lipgloss.Center)

	text1Style = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	text2Style = lipgloss.NewStyle().Foreground(colorWhite)
	labelStyle = lipgloss.NewStyle().Foreground(colorGray)
	frameStyle = lipgloss.NewStyle().Foreground(colorCyan)
	dimStyle   = lipgloss.NewStyle().Foreground(colorGray)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

func priorityColor(priority string) lipgloss.Color {
	switch priority {
	case "highest", "high":
		return colorRed
	case "mid":
		return colorOrange
	case "low", "lower":
		return colorYellow
	default:
		return colorGray
	}
}

func stateStyle(state string) lipgloss.Style {
	switch state {
	case "enabled":
		return okStyle
	case "softDisabling":
		return warnStyle
	default:
		return dimStyle
	}
}

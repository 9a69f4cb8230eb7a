package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/logiq/internal/model"
)

var (
	ColorWhite  = lipgloss.Color("7")
	ColorGray   = lipgloss.Color("8")
	ColorBlue   = lipgloss.Color("39")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorPink   = lipgloss.Color("201")
	ColorGreen  = lipgloss.Color("42")
	ColorDebug  = lipgloss.Color("244")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	activeSectionStyle = sectionStyle.
				BorderForeground(ColorBlue)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true).
			Underline(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6666")).
			Bold(true)
)

// severityColor maps a severity to its chart and row color.
func severityColor(sev model.Severity) lipgloss.Color {
	switch sev {
	case model.SeverityCritical:
		return ColorPink
	case model.SeverityError:
		return ColorRed
	case model.SeverityWarn:
		return ColorOrange
	case model.SeverityInfo:
		return ColorBlue
	default:
		return ColorDebug
	}
}

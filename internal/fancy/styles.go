package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles for domain elements
var (
	JobStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	StageStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorPurple)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)
)

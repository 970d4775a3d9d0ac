package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

// Common colors for different types of elements
var (
	// Base colors
	ColorBlue     = lipgloss.Color("39")  // Blue
	ColorPurple   = lipgloss.Color("35")  // Purple
	ColorMagenta  = lipgloss.Color("201") // Bright Magenta
	ColorOrange   = lipgloss.Color("208") // Orange
	ColorGreen    = lipgloss.Color("82")  // Green
	ColorCyan     = lipgloss.Color("45")  // Cyan
	ColorRed      = lipgloss.Color("196") // Red
	ColorGray     = lipgloss.Color("250") // Light gray
	ColorDarkGray = lipgloss.Color("240") // Dark gray for branches
)

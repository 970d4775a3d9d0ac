// Package fancy provides pretty printing utilities and styling for CLI output
package fancy

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

// Common styles that can be used across the application
var (
	// Style for root/main elements
	RootStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	// Style for descriptive information
	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	// Style for branch connectors in trees
	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorDarkGray)

	// Style for components/sections
	ComponentStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)
)

// Tree returns a new tree with common styling applied
func Tree() *tree.Tree {
	t := tree.New()
	t.EnumeratorStyle(BranchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	return t
}

// TruncateString truncates a string if it exceeds maxLength
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

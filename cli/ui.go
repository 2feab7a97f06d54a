package cli

import "github.com/charmbracelet/lipgloss"

var (
	errorColor = lipgloss.Color("#EF4444")
	infoColor  = lipgloss.Color("#3B82F6")

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(infoColor)
)

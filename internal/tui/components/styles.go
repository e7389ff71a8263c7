// Package components renders the individual boxes shown by the status
// view: the order book, the latest latency readings, open orders and
// positions.
package components

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("#00FF87")
	errorColor   = lipgloss.Color("#FF5555")
	warningColor = lipgloss.Color("#FFB86C")
	mutedColor   = lipgloss.Color("#6272A4")

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

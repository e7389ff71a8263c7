package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guyghost/deribit-trader/internal/tui/components"
)

var (
	successColor = lipgloss.Color("#00FF87")
	errorColor   = lipgloss.Color("#FF5555")
	mutedColor   = lipgloss.Color("#6272A4")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		components.RenderOrderBook(m.bookBids, m.bookAsks, 8),
		lipgloss.JoinVertical(
			lipgloss.Left,
			components.RenderLatency(m.requestMs, m.propagationMs, m.processMs),
			components.RenderOpenOrders(m.openOrders),
			components.RenderPositions(m.positions),
		),
	)
	help := helpStyle.Render("q: quit  •  r: refresh now")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("⚡ %s", m.instrument))

	status := "DISCONNECTED"
	statusStyle := errorStyle
	if m.connected {
		status = "CONNECTED"
		statusStyle = successStyle
	}

	spread := "-"
	if m.bid != nil && m.ask != nil {
		spread = m.ask.Price.Sub(m.bid.Price).StringFixed(2)
	}

	return strings.Join([]string{
		title,
		statusStyle.Render(status),
		mutedStyle.Render("spread " + spread),
		mutedStyle.Render(m.lastUpdate.Format("15:04:05")),
	}, "   ")
}

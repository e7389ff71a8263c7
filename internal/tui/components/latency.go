package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderLatency renders the most recent request, propagation and process
// latency observations.
func RenderLatency(requestMs, propagationMs, processMs float64) string {
	var content strings.Builder
	content.WriteString("Latency (ms)\n\n")

	content.WriteString(fmt.Sprintf("request:     %s\n", latencyStyle(requestMs, 50, 200).Render(fmt.Sprintf("%.1f", requestMs))))
	content.WriteString(fmt.Sprintf("propagation: %s\n", latencyStyle(propagationMs, 25, 100).Render(fmt.Sprintf("%.1f", propagationMs))))
	content.WriteString(fmt.Sprintf("process:     %s\n", latencyStyle(processMs, 5, 20).Render(fmt.Sprintf("%.1f", processMs))))

	return boxStyle.Render(content.String())
}

func latencyStyle(ms, warnAt, errAt float64) lipgloss.Style {
	switch {
	case ms >= errAt:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	case ms >= warnAt:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(successColor)
	}
}

package components

import (
	"fmt"
	"strings"

	"github.com/guyghost/deribit-trader/internal/jsonrpc"
)

// RenderOpenOrders renders the ids the trader currently considers open.
func RenderOpenOrders(ids []string) string {
	var content strings.Builder
	content.WriteString("Open Orders\n\n")

	if len(ids) == 0 {
		return boxStyle.Render(content.String() + mutedStyle.Render("none"))
	}

	for _, id := range ids {
		content.WriteString(fmt.Sprintf("• %s\n", id))
	}
	return boxStyle.Render(content.String())
}

// RenderPositions renders the current positions vector.
func RenderPositions(positions []jsonrpc.PositionInfo) string {
	var content strings.Builder
	content.WriteString("Positions\n\n")

	if len(positions) == 0 {
		return boxStyle.Render(content.String() + mutedStyle.Render("flat"))
	}

	content.WriteString(headerStyle.Render(fmt.Sprintf("%-16s %-10s %-10s\n", "Instrument", "Size", "Avg Px")))
	for _, pos := range positions {
		content.WriteString(fmt.Sprintf("%-16s %-10s %-10s\n", pos.Instrument, pos.Size.StringFixed(4), pos.AveragePrice.StringFixed(2)))
	}
	return boxStyle.Render(content.String())
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guyghost/deribit-trader/internal/jsonrpc"
)

// RenderOrderBook renders the top depth levels of the bid/ask mirror,
// asks above bids with the best of each nearest the spread.
func RenderOrderBook(bids, asks []jsonrpc.PriceLevel, depth int) string {
	var content strings.Builder
	content.WriteString("Order Book\n\n")

	if len(bids) == 0 && len(asks) == 0 {
		return boxStyle.Render(content.String() + mutedStyle.Render("No book data yet"))
	}

	content.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %-14s\n", "Price", "Size")))
	content.WriteString(strings.Repeat("─", 30) + "\n")

	askStyle := lipgloss.NewStyle().Foreground(errorColor)
	shownAsks := asks
	if len(shownAsks) > depth {
		shownAsks = shownAsks[:depth]
	}
	for i := len(shownAsks) - 1; i >= 0; i-- {
		lvl := shownAsks[i]
		content.WriteString(askStyle.Render(fmt.Sprintf("%-14s %-14s\n", lvl.Price.StringFixed(2), lvl.Size.StringFixed(4))))
	}

	content.WriteString(strings.Repeat("─", 30) + "\n")

	bidStyle := lipgloss.NewStyle().Foreground(successColor)
	shownBids := bids
	if len(shownBids) > depth {
		shownBids = shownBids[:depth]
	}
	for _, lvl := range shownBids {
		content.WriteString(bidStyle.Render(fmt.Sprintf("%-14s %-14s\n", lvl.Price.StringFixed(2), lvl.Size.StringFixed(4))))
	}

	return boxStyle.Render(content.String())
}

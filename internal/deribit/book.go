package deribit

import (
	"sort"

	"github.com/guyghost/deribit-trader/internal/jsonrpc"
	"github.com/shopspring/decimal"
)

// epsilon is the minimum size a book level must carry to be kept; at or
// below this a level is treated as removed.
var epsilon = decimal.New(1, -12)

// BookSnapshot is the plain-data view of the book mirror handed to the
// Sink after a book.* notification is applied (a get_order_book response
// updates the mirror without notifying the Sink). It
// replaces the source's template-parameterized book callback with a
// single concrete value — the Trader does not need compile-time
// polymorphism over book shapes.
type BookSnapshot struct {
	Instrument  string
	Bids        []jsonrpc.PriceLevel
	Asks        []jsonrpc.PriceLevel
	TimestampMs *int64
}

// BestBid returns the highest bid, if any.
func (s BookSnapshot) BestBid() (jsonrpc.PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return jsonrpc.PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (s BookSnapshot) BestAsk() (jsonrpc.PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return jsonrpc.PriceLevel{}, false
	}
	return s.Asks[0], true
}

// sanitizeBids drops levels at or below epsilon and sorts strictly
// descending by price, so the book mirror invariant holds regardless of
// the order the exchange sent levels in.
func sanitizeBids(levels []jsonrpc.PriceLevel) []jsonrpc.PriceLevel {
	out := filterEpsilon(levels)
	sort.Slice(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	return out
}

// sanitizeAsks drops levels at or below epsilon and sorts strictly
// ascending by price.
func sanitizeAsks(levels []jsonrpc.PriceLevel) []jsonrpc.PriceLevel {
	out := filterEpsilon(levels)
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out
}

func filterEpsilon(levels []jsonrpc.PriceLevel) []jsonrpc.PriceLevel {
	out := make([]jsonrpc.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Size.GreaterThan(epsilon) {
			out = append(out, l)
		}
	}
	return out
}

func copyLevels(levels []jsonrpc.PriceLevel) []jsonrpc.PriceLevel {
	out := make([]jsonrpc.PriceLevel, len(levels))
	copy(out, levels)
	return out
}

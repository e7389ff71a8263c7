// Package utils holds small decimal helpers shared by the strategy layer.
package utils

import (
	"github.com/shopspring/decimal"
)

// RoundDecimal rounds a decimal to a specific number of decimal places.
func RoundDecimal(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

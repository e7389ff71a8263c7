package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    decimal.Decimal
		places   int32
		expected decimal.Decimal
	}{
		{"Round to 2 places", decimal.NewFromFloat(1.23456), 2, decimal.NewFromFloat(1.23)},
		{"Round to 0 places", decimal.NewFromFloat(1.6), 0, decimal.NewFromFloat(2)},
		{"Round to 4 places", decimal.NewFromFloat(1.23456), 4, decimal.NewFromFloat(1.2346)},
		{"No rounding needed", decimal.NewFromFloat(1.23), 2, decimal.NewFromFloat(1.23)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundDecimal(tt.input, tt.places)
			if !result.Equal(tt.expected) {
				t.Errorf("RoundDecimal(%v, %d) = %v, want %v", tt.input, tt.places, result, tt.expected)
			}
		})
	}
}

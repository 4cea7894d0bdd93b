package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "polish zloty", input: "129,99 zł", want: "129.99", ok: true},
		{name: "period decimal", input: "12.5", want: "12.5", ok: true},
		{name: "currency prefix", input: "PLN 49,00", want: "49", ok: true},
		{name: "thousands and decimal", input: "1.234,56", want: "1234.56", ok: true},
		{name: "thousands and decimal with currency", input: "1.234,56 zł", want: "1234.56", ok: true},
		{name: "thousands only", input: "1.234", want: "1234", ok: true},
		{name: "english thousands", input: "1,234,567.89", want: "1234567.89", ok: true},
		{name: "integer", input: "15 zł", want: "15", ok: true},
		{name: "trailing period", input: "12.", want: "12", ok: true},
		{name: "trailing comma with currency", input: "1.234, zł", want: "1234", ok: true},
		{name: "trailing double separator", input: "12..", ok: false},
		{name: "sentinel", input: CheckPrice, ok: false},
		{name: "empty", input: "", ok: false},
		{name: "no digits", input: "zł", ok: false},
		{name: "double separator", input: "1..234", ok: false},
		{name: "price range", input: "19.99 - 29.99", ok: false},
		{name: "bad grouping", input: "12,34,567", ok: false},
		{name: "only separator", input: ",", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

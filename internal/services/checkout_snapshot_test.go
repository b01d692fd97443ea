package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/repos"
)

func line(price string, qty int) repos.CartLine {
	return repos.CartLine{ProductID: 1, Name: "Bit", Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestSnapshotRoundsSubCentTotals(t *testing.T) {
	cases := []struct {
		name  string
		lines []repos.CartLine
		want  string
	}{
		{"two half cents", []repos.CartLine{line("0.005", 1), line("0.005", 1)}, "0.01"},
		{"half cent rounds up", []repos.CartLine{line("0.005", 1)}, "0.01"},
		{"below half cent rounds down", []repos.CartLine{line("0.004", 1)}, "0.00"},
		{"half away from zero", []repos.CartLine{line("1.125", 1)}, "1.13"},
		{"product of quantity", []repos.CartLine{line("0.333", 3)}, "1.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, total := snapshot(tc.lines)
			assert.Len(t, items, len(tc.lines))
			assert.Equal(t, tc.want, total.StringFixed(2))
			assert.True(t, total.Equal(decimal.RequireFromString(tc.want)), "total carries no sub-cent digits: %s", total)
		})
	}
}

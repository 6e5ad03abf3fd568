package bundlecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharesFor(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		basis     float64
		percent   float64
		price     float64
		want      float64
	}{
		{"sixty percent of 37500 at 100", 37500, 100, 60, 100, 225},
		{"forty percent of 37500 at 50", 37500, 100, 40, 50, 300},
		{"zero price yields zero shares", 37500, 100, 60, 0, 0},
		{"negative price yields zero shares", 37500, 100, 60, -10, 0},
		{"zero basis yields zero shares", 37500, 0, 60, 100, 0},
		{"zero principal", 0, 100, 60, 100, 0},
		{"fractional result rounds to 2dp", 1000, 100, 33, 7, 47.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SharesFor(tt.principal, tt.basis, tt.percent, tt.price), 0.001)
		})
	}
}

func TestSharesForRoundTrip(t *testing.T) {
	// shares * price must recover the sub-allocation within rounding
	// tolerance of the 2-decimal share count.
	cases := []struct {
		principal float64
		percent   float64
		price     float64
	}{
		{37500, 60, 100},
		{10000, 25, 13.37},
		{901.17, 33, 41.20},
	}
	for _, c := range cases {
		shares := SharesFor(c.principal, 100, c.percent, c.price)
		wantAllocation := c.principal * c.percent / 100
		assert.InDelta(t, wantAllocation, shares*c.price, 0.005*c.price+0.001)
	}
}

func TestDividendYield(t *testing.T) {
	tests := []struct {
		name     string
		dividend float64
		price    float64
		want     float64
	}{
		{"two dollars on fifty", 2, 50, 4},
		{"rounds to 2dp", 1.635, 50, 3.27},
		{"zero price", 2, 0, 0},
		{"negative price", 2, -1, 0},
		{"zero dividend", 0, 50, 0},
		{"negative dividend", -0.5, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DividendYield(tt.dividend, tt.price), 0.001)
		})
	}
}

func TestPrincipalForIncome(t *testing.T) {
	tests := []struct {
		name   string
		income float64
		yield  float64
		want   float64
	}{
		{"1200 at 3.2 percent", 1200, 3.2, 37500},
		{"900 at 4 percent", 900, 4, 22500},
		{"zero yield", 1200, 0, 0},
		{"zero income", 0, 3.2, 0},
		{"cent rounding", 1000, 3.3, 30303.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PrincipalForIncome(tt.income, tt.yield), 0.001)
		})
	}
}

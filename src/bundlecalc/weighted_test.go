package bundlecalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name  string
		items []WeightedValue
		want  float64
	}{
		{
			name: "full allocation",
			items: []WeightedValue{
				{Value: 4, Weight: 60},
				{Value: 2, Weight: 40},
			},
			want: 3.2,
		},
		{
			name: "equal weights equal the arithmetic mean",
			items: []WeightedValue{
				{Value: 1, Weight: 25},
				{Value: 2, Weight: 25},
				{Value: 3, Weight: 25},
				{Value: 6, Weight: 25},
			},
			want: 3,
		},
		{
			name:  "empty input",
			items: nil,
			want:  0,
		},
		{
			name: "zero-weight item does not change the result",
			items: []WeightedValue{
				{Value: 5, Weight: 50},
				{Value: 999, Weight: 0},
			},
			want: 5,
		},
		{
			name: "invalid value excluded from numerator and denominator",
			items: []WeightedValue{
				{Value: 10, Weight: 50},
				{Value: math.NaN(), Weight: 50},
			},
			want: 10,
		},
		{
			name: "partial weights normalize over the valid total",
			items: []WeightedValue{
				{Value: 4, Weight: 30},
				{Value: 2, Weight: 30},
			},
			want: 3,
		},
		{
			name: "all items invalid",
			items: []WeightedValue{
				{Value: math.Inf(1), Weight: 50},
				{Value: 3, Weight: -10},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedAverage(tt.items), 0.001)
		})
	}
}

func TestWeightedAverageRounding(t *testing.T) {
	items := []WeightedValue{
		{Value: 1, Weight: 30},
		{Value: 2, Weight: 70},
	}
	// 1.7 exactly, but verify output is a 2-decimal value.
	got := WeightedAverage(items)
	assert.Equal(t, got, math.Round(got*100)/100)
}

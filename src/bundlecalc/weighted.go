// Package bundlecalc is the bundle financial engine: pure, stateless
// functions that turn a weighted stock allocation plus market data into
// share counts, yields, growth rates, a composite score and a payout
// projection. Degenerate inputs (zero prices, missing data, non-finite
// values) produce safe zero defaults, never errors or NaN.
package bundlecalc

import (
	"math"

	"github.com/username/bundlefolio/backend/src/utils"
)

// WeightedValue pairs a metric with its allocation weight. Weights are
// conventionally percentages in [0, 100] but any positive weight works.
type WeightedValue struct {
	Value  float64
	Weight float64
}

// WeightedAverage computes the percentage-weighted average of the given
// items, normalizing over the sum of valid weights rather than a fixed 100.
// Items with a non-finite value or weight, or a weight <= 0, are excluded
// from both the numerator and the denominator, so securities with missing
// data do not drag the average toward zero. Returns 0 when nothing is valid.
func WeightedAverage(items []WeightedValue) float64 {
	var sum, weightTotal float64
	for _, it := range items {
		if math.IsNaN(it.Value) || math.IsInf(it.Value, 0) {
			continue
		}
		if math.IsNaN(it.Weight) || math.IsInf(it.Weight, 0) || it.Weight <= 0 {
			continue
		}
		sum += it.Value * it.Weight
		weightTotal += it.Weight
	}
	if weightTotal == 0 {
		return 0
	}
	return utils.Round2(sum / weightTotal)
}

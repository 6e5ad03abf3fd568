package bundlecalc

import (
	"math"

	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/utils"
)

// assumedExpenseRatio stands in for real expense-ratio data, which no
// provider we use exposes. Every security gets the same placeholder.
const assumedExpenseRatio = 0.1

// Composite score weights: yield, safety, expense ratio.
const (
	yieldWeight   = 0.5
	safetyWeight  = 0.3
	expenseWeight = 0.2
)

// SafetyScore is a per-security heuristic in [0, 100] built from three
// binary flags: at least a year of confirmed quarterly-equivalent payments,
// positive dividend growth, and a price above the penny-stock threshold.
func SafetyScore(sec models.SecurityAllocation) float64 {
	confirmed := 0
	for _, p := range sec.DividendHistory {
		if p.Status.IsConfirmed() {
			confirmed++
		}
	}

	var score float64
	if confirmed >= 4 {
		score += 40
	}
	if sec.DividendGrowth > 0 {
		score += 40
	}
	if sec.Price > 5 {
		score += 20
	}
	return score
}

// BundleScore blends weighted-average yield, safety and the assumed expense
// ratio into a composite 0-10 quality score. An empty allocation list scores
// 0, which the UI renders as a dash.
func BundleScore(securities []models.SecurityAllocation) float64 {
	if len(securities) == 0 {
		return 0
	}

	yields := make([]WeightedValue, len(securities))
	safeties := make([]WeightedValue, len(securities))
	expenses := make([]WeightedValue, len(securities))
	for i, sec := range securities {
		yields[i] = WeightedValue{Value: sec.Yield, Weight: sec.Percent}
		safeties[i] = WeightedValue{Value: SafetyScore(sec), Weight: sec.Percent}
		expenses[i] = WeightedValue{Value: assumedExpenseRatio, Weight: sec.Percent}
	}

	averageYield := WeightedAverage(yields)
	averageSafety := WeightedAverage(safeties)
	averageExpense := WeightedAverage(expenses)

	raw := (averageYield*yieldWeight + averageSafety*safetyWeight - averageExpense*expenseWeight) /
		(yieldWeight + safetyWeight + expenseWeight)

	return utils.Round2(math.Min(math.Max(raw/10, 0), 10))
}

// SectorCount returns the number of distinct industries across the
// allocation. Securities without industry metadata are ignored.
func SectorCount(securities []models.SecurityAllocation) int {
	seen := make(map[string]struct{})
	for _, sec := range securities {
		if sec.Industry == "" {
			continue
		}
		seen[sec.Industry] = struct{}{}
	}
	return len(seen)
}

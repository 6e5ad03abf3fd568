package bundlecalc

import (
	"math"
	"sort"

	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/utils"
)

const daysPerYear = 365.0

// DividendGrowth estimates the compound annual growth rate of dividend
// payments, in percent, by comparing the four most recent confirmed
// payments against the four oldest. Predicted records are excluded before
// anything else happens. Returns 0 when there are fewer than 4 confirmed
// records, when either period total is non-positive, when the history spans
// less than a year, or when the result falls outside [-100, 100].
//
// With 4 to 7 records the recent and oldest windows overlap; sparse
// histories still get an estimate rather than a refusal.
func DividendGrowth(history []models.DividendPayment) float64 {
	confirmed := make([]models.DividendPayment, 0, len(history))
	for _, p := range history {
		if p.Status.IsConfirmed() {
			confirmed = append(confirmed, p)
		}
	}
	if len(confirmed) < 4 {
		return 0
	}

	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[i].PayDate.After(confirmed[j].PayDate)
	})

	recent := confirmed[:4]
	oldest := confirmed[len(confirmed)-4:]

	var recentTotal, oldestTotal float64
	for i := 0; i < 4; i++ {
		recentTotal += recent[i].Amount
		oldestTotal += oldest[i].Amount
	}
	if recentTotal <= 0 || oldestTotal <= 0 {
		return 0
	}

	span := recent[0].PayDate.Sub(oldest[3].PayDate)
	yearsDiff := span.Hours() / 24 / daysPerYear
	if yearsDiff < 1 {
		return 0
	}

	cagr := (math.Pow(recentTotal/oldestTotal, 1/yearsDiff) - 1) * 100
	rounded := utils.Round2(cagr)
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) || rounded < -100 || rounded > 100 {
		return 0
	}
	return rounded
}

package bundlecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/bundlefolio/backend/src/models"
)

var projectorNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestMonthlyPayoutsSinglePayment(t *testing.T) {
	history := []models.DividendPayment{
		payment("2025-03-10", 0.50, models.StatusConfirmed),
	}

	payouts := MonthlyPayouts(history, 10, projectorNow)

	for m := 0; m < 12; m++ {
		if m == 2 {
			assert.InDelta(t, 5.00, payouts[m], 0.001, "March payout")
		} else {
			assert.Zero(t, payouts[m], "month %d", m)
		}
	}
}

func TestMonthlyPayoutsWindow(t *testing.T) {
	history := []models.DividendPayment{
		payment("2023-03-10", 0.50, models.StatusConfirmed), // too old
		payment("2025-03-10", 0.50, models.StatusConfirmed),
		payment("2025-09-10", 0.75, models.StatusConfirmed), // in the future
	}

	payouts := MonthlyPayouts(history, 10, projectorNow)

	assert.InDelta(t, 5.00, payouts[2], 0.001)
	assert.Zero(t, payouts[8])
}

func TestMonthlyPayoutsSkipsPredicted(t *testing.T) {
	history := []models.DividendPayment{
		payment("2025-05-01", 0.50, models.StatusPredicted),
	}
	payouts := MonthlyPayouts(history, 10, projectorNow)
	assert.Equal(t, [12]float64{}, payouts)
}

func TestMonthlyPayoutsSameMonthOverwrites(t *testing.T) {
	// Two qualifying payments in the same calendar month: the
	// later-processed one wins. Assignment semantics, not accumulation.
	history := []models.DividendPayment{
		payment("2025-03-05", 0.50, models.StatusConfirmed),
		payment("2025-03-25", 0.30, models.StatusConfirmed),
	}
	payouts := MonthlyPayouts(history, 10, projectorNow)
	assert.InDelta(t, 3.00, payouts[2], 0.001)
}

func TestCalendarForBundle(t *testing.T) {
	secs := []models.SecurityAllocation{
		{
			Symbol: "KO",
			Shares: 10,
			DividendHistory: []models.DividendPayment{
				payment("2025-03-10", 0.50, models.StatusConfirmed),
				payment("2024-12-10", 0.50, models.StatusConfirmed),
			},
		},
		{
			Symbol: "O",
			Shares: 4,
			DividendHistory: []models.DividendPayment{
				payment("2025-03-20", 0.25, models.StatusConfirmed),
			},
		},
	}

	cal := CalendarForBundle(secs, projectorNow)

	assert.Len(t, cal.Rows, 2)
	assert.InDelta(t, 6.00, cal.MonthlyTotals[2], 0.001)  // 5.00 + 1.00
	assert.InDelta(t, 5.00, cal.MonthlyTotals[11], 0.001) // December
	assert.InDelta(t, 11.00, cal.AnnualTotal, 0.001)
	assert.InDelta(t, 0.92, cal.Advance, 0.001) // 11 / 12
}

func TestCalendarForBundleEmpty(t *testing.T) {
	cal := CalendarForBundle(nil, projectorNow)
	assert.Empty(t, cal.Rows)
	assert.Zero(t, cal.AnnualTotal)
	assert.Zero(t, cal.Advance)
}

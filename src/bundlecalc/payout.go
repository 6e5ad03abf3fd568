package bundlecalc

import (
	"math"
	"time"

	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/utils"
)

// MonthlyPayouts buckets the trailing twelve months of confirmed dividend
// payments into calendar months (Jan=0..Dec=11), scaled by the share count.
//
// Each qualifying payment is assigned, not accumulated: if two payments land
// in the same calendar month the later-processed one overwrites the earlier.
func MonthlyPayouts(history []models.DividendPayment, shares float64, now time.Time) [12]float64 {
	var payouts [12]float64
	cutoff := now.AddDate(-1, 0, 0)

	for _, p := range history {
		if !p.Status.IsConfirmed() {
			continue
		}
		if p.PayDate.Before(cutoff) || p.PayDate.After(now) {
			continue
		}
		amount := p.Amount * shares
		if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			continue
		}
		payouts[int(p.PayDate.Month())-1] = utils.Round2(amount)
	}
	return payouts
}

// CalendarForBundle rolls the per-security payout vectors up into a
// bundle-wide calendar: monthly totals, the annual total, and the
// "dividend advance" figure (annual total spread evenly over the year).
func CalendarForBundle(securities []models.SecurityAllocation, now time.Time) *models.PayoutCalendar {
	cal := &models.PayoutCalendar{
		Rows: make([]models.PayoutRow, 0, len(securities)),
	}

	for _, sec := range securities {
		row := models.PayoutRow{
			Symbol:  sec.Symbol,
			Shares:  sec.Shares,
			Payouts: MonthlyPayouts(sec.DividendHistory, sec.Shares, now),
		}
		cal.Rows = append(cal.Rows, row)
		for m := 0; m < 12; m++ {
			cal.MonthlyTotals[m] += row.Payouts[m]
		}
	}

	var annual float64
	for m := 0; m < 12; m++ {
		cal.MonthlyTotals[m] = utils.Round2(cal.MonthlyTotals[m])
		annual += cal.MonthlyTotals[m]
	}
	cal.AnnualTotal = utils.Round2(annual)
	cal.Advance = utils.Round2(cal.AnnualTotal / 12)
	return cal
}

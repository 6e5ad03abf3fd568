package bundlecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/bundlefolio/backend/src/models"
)

func payment(payDate string, amount float64, status models.DividendStatus) models.DividendPayment {
	d, err := time.Parse("2006-01-02", payDate)
	if err != nil {
		panic(err)
	}
	return models.DividendPayment{PayDate: d, Amount: amount, Status: status}
}

func TestDividendGrowthTwoYearSpan(t *testing.T) {
	// Four older payments of $1.00 and four recent payments of $1.10,
	// spanning exactly 730 days -> CAGR = (1.1^(1/2) - 1) * 100 ~= 4.88%.
	history := []models.DividendPayment{
		payment("2020-01-01", 1.00, models.StatusConfirmed),
		payment("2020-04-01", 1.00, models.StatusConfirmed),
		payment("2020-07-01", 1.00, models.StatusConfirmed),
		payment("2020-10-01", 1.00, models.StatusConfirmed),
		payment("2021-04-01", 1.10, models.StatusConfirmed),
		payment("2021-07-01", 1.10, models.StatusConfirmed),
		payment("2021-10-01", 1.10, models.StatusConfirmed),
		payment("2021-12-31", 1.10, models.StatusConfirmed),
	}

	assert.InDelta(t, 4.88, DividendGrowth(history), 0.001)
}

func TestDividendGrowthDegenerateInputs(t *testing.T) {
	tests := []struct {
		name    string
		history []models.DividendPayment
	}{
		{"empty history", nil},
		{
			"three confirmed records",
			[]models.DividendPayment{
				payment("2023-01-01", 1, models.StatusConfirmed),
				payment("2023-04-01", 1, models.StatusConfirmed),
				payment("2023-07-01", 1, models.StatusConfirmed),
			},
		},
		{
			"four records spanning under a year",
			[]models.DividendPayment{
				payment("2023-01-01", 1, models.StatusConfirmed),
				payment("2023-04-01", 1, models.StatusConfirmed),
				payment("2023-07-01", 1, models.StatusConfirmed),
				payment("2023-10-01", 1, models.StatusConfirmed),
			},
		},
		{
			"predicted records do not count toward the minimum",
			[]models.DividendPayment{
				payment("2022-01-01", 1, models.StatusConfirmed),
				payment("2022-07-01", 1, models.StatusConfirmed),
				payment("2023-01-01", 1, models.StatusConfirmed),
				payment("2023-07-01", 1, models.StatusPredicted),
			},
		},
		{
			"zero amounts",
			[]models.DividendPayment{
				payment("2021-01-01", 0, models.StatusConfirmed),
				payment("2021-07-01", 0, models.StatusConfirmed),
				payment("2022-01-01", 0, models.StatusConfirmed),
				payment("2023-01-01", 0, models.StatusConfirmed),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, DividendGrowth(tt.history))
		})
	}
}

func TestDividendGrowthIgnoresPredictedRecord(t *testing.T) {
	history := []models.DividendPayment{
		payment("2020-01-01", 1.00, models.StatusConfirmed),
		payment("2020-04-01", 1.00, models.StatusConfirmed),
		payment("2020-07-01", 1.00, models.StatusConfirmed),
		payment("2020-10-01", 1.00, models.StatusConfirmed),
		payment("2021-04-01", 1.10, models.StatusConfirmed),
		payment("2021-07-01", 1.10, models.StatusConfirmed),
		payment("2021-10-01", 1.10, models.StatusMostRecent),
		payment("2021-12-31", 1.10, models.StatusConfirmed),
		// A wildly optimistic prediction must not move the estimate.
		payment("2022-04-01", 9.99, models.StatusPredicted),
	}

	assert.InDelta(t, 4.88, DividendGrowth(history), 0.001)
}

func TestDividendGrowthOverlappingWindows(t *testing.T) {
	// Four records spanning over a year: recent and oldest windows are the
	// same slice, ratio is 1, growth is 0.
	history := []models.DividendPayment{
		payment("2021-01-01", 1, models.StatusConfirmed),
		payment("2021-07-01", 1, models.StatusConfirmed),
		payment("2022-01-01", 1, models.StatusConfirmed),
		payment("2022-07-01", 1, models.StatusConfirmed),
	}
	assert.Zero(t, DividendGrowth(history))
}

func TestDividendGrowthNegative(t *testing.T) {
	// Payouts cut in half over exactly two years: CAGR ~= -29.29%.
	history := []models.DividendPayment{
		payment("2020-01-01", 1.00, models.StatusConfirmed),
		payment("2020-04-01", 1.00, models.StatusConfirmed),
		payment("2020-07-01", 1.00, models.StatusConfirmed),
		payment("2020-10-01", 1.00, models.StatusConfirmed),
		payment("2021-04-01", 0.50, models.StatusConfirmed),
		payment("2021-07-01", 0.50, models.StatusConfirmed),
		payment("2021-10-01", 0.50, models.StatusConfirmed),
		payment("2021-12-31", 0.50, models.StatusConfirmed),
	}
	assert.InDelta(t, -29.29, DividendGrowth(history), 0.001)
}

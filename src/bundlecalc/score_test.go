package bundlecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/bundlefolio/backend/src/models"
)

func confirmedHistory(n int) []models.DividendPayment {
	history := make([]models.DividendPayment, n)
	base := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)
	for i := range history {
		history[i] = models.DividendPayment{
			PayDate: base.AddDate(0, 3*i, 0),
			Amount:  0.5,
			Status:  models.StatusConfirmed,
		}
	}
	return history
}

func TestSafetyScore(t *testing.T) {
	tests := []struct {
		name string
		sec  models.SecurityAllocation
		want float64
	}{
		{
			name: "all flags set",
			sec: models.SecurityAllocation{
				Price:           100,
				DividendGrowth:  4.5,
				DividendHistory: confirmedHistory(8),
			},
			want: 100,
		},
		{
			name: "penny stock with no history",
			sec:  models.SecurityAllocation{Price: 2},
			want: 0,
		},
		{
			name: "history without growth",
			sec: models.SecurityAllocation{
				Price:           50,
				DividendGrowth:  -1.2,
				DividendHistory: confirmedHistory(4),
			},
			want: 60,
		},
		{
			name: "predicted records do not count as history",
			sec: models.SecurityAllocation{
				Price:          50,
				DividendGrowth: 1,
				DividendHistory: append(confirmedHistory(3), models.DividendPayment{
					PayDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
					Amount:  0.5,
					Status:  models.StatusPredicted,
				}),
			},
			want: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SafetyScore(tt.sec), 0.001)
		})
	}
}

func TestBundleScore(t *testing.T) {
	t.Run("empty allocation scores zero", func(t *testing.T) {
		assert.Zero(t, BundleScore(nil))
	})

	t.Run("single top-safety security", func(t *testing.T) {
		secs := []models.SecurityAllocation{{
			Percent:         100,
			Price:           100,
			Yield:           4,
			DividendGrowth:  4.88,
			DividendHistory: confirmedHistory(8),
		}}
		// (4*0.5 + 100*0.3 - 0.1*0.2) / 1 = 31.98 -> 3.2 on the 0-10 scale.
		assert.InDelta(t, 3.2, BundleScore(secs), 0.001)
	})

	t.Run("bounded for arbitrary inputs", func(t *testing.T) {
		cases := [][]models.SecurityAllocation{
			{{Percent: 100, Yield: 500, Price: 1000, DividendGrowth: 90, DividendHistory: confirmedHistory(12)}},
			{{Percent: 100, Yield: 0, Price: 0.5}},
			{
				{Percent: 60, Yield: 4, Price: 100, DividendGrowth: 2, DividendHistory: confirmedHistory(4)},
				{Percent: 40, Yield: 2, Price: 50, DividendGrowth: -1},
			},
		}
		for _, secs := range cases {
			score := BundleScore(secs)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 10.0)
		}
	})
}

func TestSectorCount(t *testing.T) {
	secs := []models.SecurityAllocation{
		{Symbol: "KO", Industry: "Beverages"},
		{Symbol: "PEP", Industry: "Beverages"},
		{Symbol: "O", Industry: "REIT"},
		{Symbol: "???", Industry: ""},
	}
	assert.Equal(t, 2, SectorCount(secs))
	assert.Equal(t, 0, SectorCount(nil))
}

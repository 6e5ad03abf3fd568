package bundlecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/bundlefolio/backend/src/models"
)

func TestConvertTargetIncome(t *testing.T) {
	tests := []struct {
		name  string
		unit  models.TargetUnit
		value float64
		want  models.TargetIncome
	}{
		{
			name:  "from monthly",
			unit:  models.UnitMonthly,
			value: 75,
			want:  models.TargetIncome{Daily: 2.46, Monthly: 75, Yearly: 900},
		},
		{
			name:  "from yearly",
			unit:  models.UnitYearly,
			value: 900,
			want:  models.TargetIncome{Daily: 2.46, Monthly: 75, Yearly: 900},
		},
		{
			name:  "from daily",
			unit:  models.UnitDaily,
			value: 2.47,
			want:  models.TargetIncome{Daily: 2.47, Monthly: 75.19, Yearly: 902.17},
		},
		{
			name:  "zero value",
			unit:  models.UnitMonthly,
			value: 0,
			want:  models.TargetIncome{},
		},
		{
			name:  "unknown unit",
			unit:  models.TargetUnit("weekly"),
			value: 100,
			want:  models.TargetIncome{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertTargetIncome(tt.unit, tt.value)
			assert.InDelta(t, tt.want.Daily, got.Daily, 0.001)
			assert.InDelta(t, tt.want.Monthly, got.Monthly, 0.001)
			assert.InDelta(t, tt.want.Yearly, got.Yearly, 0.001)
		})
	}
}

func TestConvertTargetIncomeRoundTrips(t *testing.T) {
	// monthly -> yearly -> monthly returns the original within a cent.
	monthly := ConvertTargetIncome(models.UnitMonthly, 75)
	back := ConvertTargetIncome(models.UnitYearly, monthly.Yearly)
	assert.InDelta(t, 75, back.Monthly, 0.01)

	// daily -> monthly -> daily too.
	daily := ConvertTargetIncome(models.UnitDaily, 2.47)
	back = ConvertTargetIncome(models.UnitMonthly, daily.Monthly)
	assert.InDelta(t, 2.47, back.Daily, 0.01)
}

package bundlecalc

import (
	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/utils"
)

// Calendar-average conversion factors: a month is 30.44 days and a year is
// 365.25 days. Monthly and yearly relate through 12 exactly.
const (
	daysPerMonthAvg = 30.44
	daysPerYearAvg  = 365.25
)

// ConvertTargetIncome derives the full daily/monthly/yearly triple from a
// single canonical figure. The input value is rounded to 2 decimals first,
// matching how the inputs behave, so round-tripping a converted value stays
// within a cent of the original.
func ConvertTargetIncome(unit models.TargetUnit, value float64) models.TargetIncome {
	v := utils.Round2(value)
	switch unit {
	case models.UnitDaily:
		return models.TargetIncome{
			Daily:   v,
			Monthly: utils.Round2(v * daysPerMonthAvg),
			Yearly:  utils.Round2(v * daysPerYearAvg),
		}
	case models.UnitMonthly:
		return models.TargetIncome{
			Daily:   utils.Round2(v / daysPerMonthAvg),
			Monthly: v,
			Yearly:  utils.Round2(v * 12),
		}
	case models.UnitYearly:
		return models.TargetIncome{
			Daily:   utils.Round2(v / daysPerYearAvg),
			Monthly: utils.Round2(v / 12),
			Yearly:  v,
		}
	}
	return models.TargetIncome{}
}

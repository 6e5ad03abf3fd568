package models

// TargetUnit selects which of the three target-income figures is the
// canonical input; the other two are always re-derived from it.
type TargetUnit string

const (
	UnitDaily   TargetUnit = "daily"
	UnitMonthly TargetUnit = "monthly"
	UnitYearly  TargetUnit = "yearly"
)

// TargetIncome is one logical quantity expressed in three equivalent units.
type TargetIncome struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// BundleSummary is everything the viewer and builder screens show for a
// bundle, derived from the allocation list and a target income.
type BundleSummary struct {
	Securities    []SecurityAllocation `json:"securities"`
	TotalPercent  float64              `json:"totalPercent"`
	AverageYield  float64              `json:"averageYield"`
	AverageGrowth float64              `json:"averageGrowth"`
	TotalCost     float64              `json:"totalCost"`
	BundleScore   float64              `json:"bundleScore"`
	SectorCount   int                  `json:"sectorCount"`
	Target        TargetIncome         `json:"target"`
	Calendar      *PayoutCalendar      `json:"calendar,omitempty"`
}

// PayoutRow is one security's trailing-twelve-month payout vector,
// indexed Jan=0..Dec=11.
type PayoutRow struct {
	Symbol  string      `json:"symbol"`
	Shares  float64     `json:"shares"`
	Payouts [12]float64 `json:"payouts"`
}

// PayoutCalendar is the bundle-wide rollup of the per-security rows.
// Advance is the annual total spread uniformly over twelve months; it is an
// averaged-smoothing display value, not a per-month forecast.
type PayoutCalendar struct {
	Rows          []PayoutRow `json:"rows"`
	MonthlyTotals [12]float64 `json:"monthlyTotals"`
	AnnualTotal   float64     `json:"annualTotal"`
	Advance       float64     `json:"advance"`
}

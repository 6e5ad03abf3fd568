package bundlecalc

import (
	"math"

	"github.com/username/bundlefolio/backend/src/utils"
)

// SharesFor converts a bundle principal and a percentage split into a
// fractional share count for one security. percentBasis is conventionally
// 100. A zero or negative price or basis yields 0 shares instead of a
// division blowing up into Inf.
func SharesFor(principal, percentBasis, percent, price float64) float64 {
	if price <= 0 || percentBasis <= 0 {
		return 0
	}
	shares := (principal / percentBasis) * percent / price
	if math.IsNaN(shares) || math.IsInf(shares, 0) {
		return 0
	}
	return utils.Round2(shares)
}

// DividendYield computes a trailing annual dividend yield in percent.
// Returns 0 for a missing dividend, a non-positive price, or a negative or
// non-finite result.
func DividendYield(annualDividend, price float64) float64 {
	if annualDividend <= 0 || price <= 0 {
		return 0
	}
	result := utils.Round2(annualDividend / price * 100)
	if math.IsNaN(result) || result < 0 {
		return 0
	}
	return result
}

// PrincipalForIncome returns the bundle principal required for the given
// annual income at the given average yield, rounded to the cent. The
// rounding goes through a decimal representation so money amounts do not
// pick up binary floating-point artifacts.
func PrincipalForIncome(annualIncome, averageYieldPercent float64) float64 {
	if averageYieldPercent == 0 || annualIncome == 0 {
		return 0
	}
	return utils.RoundMoney(annualIncome / (averageYieldPercent / 100))
}

// internal/checkout/interest.go
package checkout

import "github.com/shopspring/decimal"

var daysPerYearPercent = decimal.NewFromInt(36500)

// ComputeInterest returns simple interest on principal for termDays at an
// annual percentage rate, using a 365-day year and rounding to 2 places.
// A non-positive rate, term or principal yields zero.
func ComputeInterest(principal, annualRatePercent decimal.Decimal, termDays int) decimal.Decimal {
	if termDays <= 0 || !annualRatePercent.IsPositive() || !principal.IsPositive() {
		return decimal.Zero
	}

	return principal.
		Mul(annualRatePercent).
		Mul(decimal.NewFromInt(int64(termDays))).
		Div(daysPerYearPercent).
		Round(2)
}

// TotalPayable is principal plus the interest accrued over the term.
func TotalPayable(principal, annualRatePercent decimal.Decimal, termDays int) decimal.Decimal {
	return principal.Add(ComputeInterest(principal, annualRatePercent, termDays))
}

package structuring

import (
	"math"

	"github.com/meridianlending/underwrite/internal/money"
)

// MonthlyPayment computes the level monthly payment for a loan. Interest-only
// facilities (or a zero amortization schedule) pay interest on the principal;
// a zero rate amortizes linearly; everything else uses the standard annuity
// formula. Intermediate math keeps four decimals, the returned value two.
func MonthlyPayment(principal, annualRate float64, amortizationMonths int, interestOnly bool) float64 {
	if principal <= 0 {
		return 0
	}

	var raw float64
	switch {
	case interestOnly || amortizationMonths <= 0:
		raw = principal * annualRate / 12
	case annualRate == 0:
		raw = principal / float64(amortizationMonths)
	default:
		r := annualRate / 12
		growth := math.Pow(1+r, float64(amortizationMonths))
		raw = principal * r * growth / (growth - 1)
	}

	return money.Round2(money.Round4(raw))
}

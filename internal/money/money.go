// Package money centralizes rounding, pricing-grid, and tolerance rules so
// every component derives dollars and rates the same way.
package money

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tolerances shared across verification and structuring.
const (
	// Tolerance is the absolute money tolerance for equation checks.
	Tolerance = 1.00
	// RelTolerance is the relative tolerance for ratio and sum-vs-subtotal
	// checks.
	RelTolerance = 0.02
	// RateTolerance is one basis point, used when re-deriving rates.
	RateTolerance = 0.0001
	// FeeTolerance bounds fee-total drift.
	FeeTolerance = 0.01
)

// GridStep is the standard lending pricing grid of 1/800 (0.125%).
const GridStep = 0.00125

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round4 rounds to four decimals, half away from zero. Intermediate payment
// math stays at four decimals to avoid compounding rounding.
func Round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

// RoundToGrid snaps a fractional rate to the nearest 1/800.
func RoundToGrid(rate float64) float64 {
	d := decimal.NewFromFloat(rate)
	f, _ := d.Mul(decimal.NewFromInt(800)).Round(0).Div(decimal.NewFromInt(800)).Float64()
	return f
}

// EqualWithin reports |a-b| <= tol.
func EqualWithin(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// SumTolerance returns the tolerance for comparing a sum of line items
// against a reported total: the larger of $1 and 2% of the total.
func SumTolerance(total float64) float64 {
	return math.Max(Tolerance, RelTolerance*math.Abs(total))
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders a dollar amount with thousands separators, e.g.
// "$1,234,567.89". Negatives render with a leading minus.
func FormatUSD(v float64) string {
	if v < 0 {
		return usd.Sprintf("-$%.2f", -v)
	}
	return usd.Sprintf("$%.2f", v)
}

// FormatUSDWhole renders a dollar amount with no cents.
func FormatUSDWhole(v float64) string {
	if v < 0 {
		return usd.Sprintf("-$%.0f", -v)
	}
	return usd.Sprintf("$%.0f", v)
}

// FormatPercent renders a fractional rate as a percentage, e.g. 0.0825 with
// places=2 renders "8.25%".
func FormatPercent(rate float64, places int) string {
	return usd.Sprintf("%.*f%%", places, rate*100)
}

// FormatRatio renders a unitless ratio to two decimals, e.g. 1.27 -> "1.27x".
func FormatRatio(v float64) string {
	return usd.Sprintf("%.2fx", v)
}

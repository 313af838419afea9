package structuring

import (
	"fmt"
	"math"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

// FinalCheck re-derives the term sheet math from scratch and compares it to
// what the rules engine stored. It is pure: no I/O, no clock, no
// configuration. Anything the narrative layers touched is ignored except
// critical compliance issues, which are mirrored here so the check can block
// on its own.
func FinalCheck(rules *model.RulesEngineOutput, p *model.LoanProgram, compliance *model.ComplianceResult) *model.FinalCheckResult {
	res := &model.FinalCheckResult{Issues: []model.FinalCheckIssue{}}
	errf := func(field string, expected, actual float64, format string, args ...any) {
		res.Issues = append(res.Issues, model.FinalCheckIssue{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Severity: model.FinalCheckError,
			Message:  fmt.Sprintf(format, args...),
		})
	}
	warnf := func(field string, expected, actual float64, format string, args ...any) {
		res.Issues = append(res.Issues, model.FinalCheckIssue{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Severity: model.FinalCheckWarning,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	expectedPayment := MonthlyPayment(rules.ApprovedAmount, rules.Rate.TotalRate, rules.AmortizationMonths, rules.InterestOnly)
	if math.Abs(expectedPayment-rules.MonthlyPayment) > money.Tolerance {
		errf("monthly_payment", expectedPayment, rules.MonthlyPayment,
			"recomputed payment %s disagrees with stored %s",
			money.FormatUSD(expectedPayment), money.FormatUSD(rules.MonthlyPayment))
	}

	rebuilt := rules.Rate.BaseRateValue + rules.Rate.Spread
	if math.Abs(rules.Rate.TotalRate-rebuilt) > money.RateTolerance {
		errf("total_rate", rebuilt, rules.Rate.TotalRate,
			"total rate %s is not base plus spread (%s)",
			money.FormatPercent(rules.Rate.TotalRate, 4), money.FormatPercent(rebuilt, 4))
	}

	minSpread, maxSpread := spreadBounds(p, rules.ApprovedAmount)
	if rules.Rate.Spread < minSpread-money.RateTolerance || rules.Rate.Spread > maxSpread+money.RateTolerance {
		errf("spread", maxSpread, rules.Rate.Spread,
			"spread %s outside the program window %s to %s",
			money.FormatPercent(rules.Rate.Spread, 3),
			money.FormatPercent(minSpread, 3), money.FormatPercent(maxSpread, 3))
	}

	if rules.ApprovedAmount < p.Rules.MinLoanAmount {
		errf("approved_amount", p.Rules.MinLoanAmount, rules.ApprovedAmount,
			"approved amount %s below program minimum %s",
			money.FormatUSDWhole(rules.ApprovedAmount), money.FormatUSDWhole(p.Rules.MinLoanAmount))
	}
	if p.Rules.MaxLoanAmount != nil && rules.ApprovedAmount > *p.Rules.MaxLoanAmount {
		errf("approved_amount", *p.Rules.MaxLoanAmount, rules.ApprovedAmount,
			"approved amount %s above program maximum %s",
			money.FormatUSDWhole(rules.ApprovedAmount), money.FormatUSDWhole(*p.Rules.MaxLoanAmount))
	}

	if rules.TermMonths > p.Rules.MaxTermMonths {
		errf("term_months", float64(p.Rules.MaxTermMonths), float64(rules.TermMonths),
			"term %d months exceeds program maximum %d", rules.TermMonths, p.Rules.MaxTermMonths)
	}
	if !rules.InterestOnly && rules.AmortizationMonths > p.Rules.MaxAmortization {
		errf("amortization_months", float64(p.Rules.MaxAmortization), float64(rules.AmortizationMonths),
			"amortization %d months exceeds program maximum %d", rules.AmortizationMonths, p.Rules.MaxAmortization)
	}

	if rules.LTV != nil && p.Rules.MaxLTV > 0 && *rules.LTV > p.Rules.MaxLTV+0.001 {
		errf("ltv", p.Rules.MaxLTV, *rules.LTV,
			"LTV %s exceeds program maximum %s",
			money.FormatPercent(*rules.LTV, 1), money.FormatPercent(p.Rules.MaxLTV, 1))
	}

	var feeSum float64
	for _, f := range rules.Fees {
		feeSum += f.Amount
	}
	if math.Abs(rules.TotalFees-feeSum) > money.FeeTolerance {
		errf("total_fees", feeSum, rules.TotalFees,
			"total fees %s disagree with line item sum %s",
			money.FormatUSD(rules.TotalFees), money.FormatUSD(feeSum))
	}

	if rules.InterestOnly && rules.AmortizationMonths > 0 {
		warnf("amortization_months", 0, float64(rules.AmortizationMonths),
			"interest-only deal carries a nonzero amortization schedule")
	}

	if rules.ApprovedAmount <= 0 {
		errf("approved_amount", 0, rules.ApprovedAmount, "approved amount is not positive")
	}
	if rules.Rate.TotalRate <= 0 {
		errf("total_rate", 0, rules.Rate.TotalRate, "total rate is not positive")
	}
	if rules.TermMonths <= 0 {
		errf("term_months", 0, float64(rules.TermMonths), "term is not positive")
	}

	if compliance != nil {
		for _, is := range compliance.Issues {
			if is.Severity == model.ComplianceCritical {
				errf("compliance", 0, 0, "critical compliance issue: %s", is.Description)
			}
		}
	}

	if rules.ProjectedDSCR != nil && p.Rules.MinDSCR > 0 && *rules.ProjectedDSCR < p.Rules.MinDSCR {
		warnf("projected_dscr", p.Rules.MinDSCR, *rules.ProjectedDSCR,
			"projected coverage %s with the proposed payment falls below the program minimum %s",
			money.FormatRatio(*rules.ProjectedDSCR), money.FormatRatio(p.Rules.MinDSCR))
	}

	res.Passed = len(res.Errors()) == 0
	return res
}

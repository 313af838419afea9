// Package structuring derives deal terms from a credit analysis and a loan
// program. The rules engine owns every number on the term sheet; the
// narrative enhancer and compliance reviewer layer prose and findings on top
// without touching the math, and the final check re-derives the math
// independently before anything is surfaced.
package structuring

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
	"github.com/meridianlending/underwrite/internal/program"
	"github.com/meridianlending/underwrite/internal/rates"
)

// Engine prices deals deterministically. Two runs over the same input and the
// same base rates produce identical output.
type Engine struct {
	rates    rates.Source
	fallback rates.Source
}

// NewEngine returns an engine pricing off src. A nil src prices off the
// static defaults, which keeps offline runs working.
func NewEngine(src rates.Source) *Engine {
	fallback := rates.NewStatic(nil)
	if src == nil {
		src = fallback
	}
	return &Engine{rates: src, fallback: fallback}
}

// Run executes the full pricing sequence: eligibility, sizing, rate, term,
// payment, fees, covenants and conditions, projected coverage. Eligibility
// failures do not stop the run; the complete term sheet is always produced so
// a reviewer can see what the deal would have looked like.
func (e *Engine) Run(ctx context.Context, in *model.StructureDealInput) (*model.RulesEngineOutput, error) {
	if in == nil || in.Analysis == nil || in.Program == nil {
		return nil, eris.New("structuring: analysis and program are required")
	}
	p := in.Program
	rules := p.Rules
	sum := in.Analysis.Summary

	out := &model.RulesEngineOutput{
		Eligibility:       eligibility(in),
		InterestOnly:      rules.InterestOnly,
		PrepaymentPenalty: rules.PrepaymentPenalty,
		PersonalGuaranty:  rules.PersonalGuaranty,
		RequiresAppraisal: rules.RequiresAppraisal,
	}

	// Sizing. The approved amount never exceeds what was asked for.
	approved := in.RequestedAmount
	if rules.MaxLoanAmount != nil && approved > *rules.MaxLoanAmount {
		approved = *rules.MaxLoanAmount
	}
	if in.CollateralValue != nil && *in.CollateralValue > 0 {
		if rules.MaxLTV > 0 {
			if lim := money.Round2(*in.CollateralValue * rules.MaxLTV); approved > lim {
				approved = lim
			}
		}
		ltv := approved / *in.CollateralValue
		out.LTV = &ltv
	}
	out.ApprovedAmount = approved

	// Rate. A dead rate source degrades to the static defaults with a
	// warning; it never blocks pricing.
	base, err := e.rates.GetBaseRate(ctx, rules.BaseRate)
	if err != nil {
		base, err = e.fallback.GetBaseRate(ctx, rules.BaseRate)
		if err != nil {
			return nil, eris.Wrapf(err, "structuring: base rate %q", rules.BaseRate)
		}
		zap.L().Warn("base rate lookup failed, pricing off static default",
			zap.String("base_rate", string(rules.BaseRate)),
			zap.Float64("fallback", base))
		out.Eligibility.Warnings = append(out.Eligibility.Warnings,
			fmt.Sprintf("Live %s rate unavailable; priced off static default %s", rules.BaseRate, money.FormatPercent(base, 2)))
	}

	minSpread, maxSpread := spreadBounds(p, approved)
	spread := money.RoundToGrid(spreadByRisk(sum.RiskRating, minSpread, maxSpread))
	if spread < minSpread {
		spread = minSpread
	}
	if spread > maxSpread {
		spread = maxSpread
	}
	out.Rate = model.Rate{
		BaseRateType:  rules.BaseRate,
		BaseRateValue: base,
		Spread:        spread,
		TotalRate:     base + spread,
	}

	// Term and amortization.
	out.TermMonths = rules.MaxTermMonths
	if in.RequestedTermMonths != nil && *in.RequestedTermMonths > 0 && *in.RequestedTermMonths < out.TermMonths {
		out.TermMonths = *in.RequestedTermMonths
	}
	if !rules.InterestOnly {
		out.AmortizationMonths = rules.MaxAmortization
	}

	out.MonthlyPayment = MonthlyPayment(approved, out.Rate.TotalRate, out.AmortizationMonths, rules.InterestOnly)

	// Fees.
	out.Fees = make([]model.AppliedFee, 0, len(p.StandardFees))
	var totalFees float64
	for _, f := range p.StandardFees {
		amount := f.Value
		if f.Type == model.FeePercent {
			amount = money.Round2(approved * f.Value)
		}
		out.Fees = append(out.Fees, model.AppliedFee{
			Name:        f.Name,
			Type:        f.Type,
			Amount:      amount,
			Description: f.Description,
		})
		totalFees += amount
	}
	out.TotalFees = money.Round2(totalFees)

	// Covenants and closing conditions.
	out.Covenants = make([]model.Covenant, 0, len(p.StandardCovenants))
	for _, c := range p.StandardCovenants {
		out.Covenants = append(out.Covenants, model.Covenant{Description: c, Source: model.CovenantProgramStandard})
	}
	out.Conditions = conditions(p)

	// Projected coverage with the proposed payment.
	if out.MonthlyPayment > 0 && sum.QualifyingIncome > 0 {
		dscr := sum.QualifyingIncome / 12 / out.MonthlyPayment
		out.ProjectedDSCR = &dscr
	}

	return out, nil
}

// eligibility accumulates failures and warnings without stopping. Failures
// ride the output into decline reasons.
func eligibility(in *model.StructureDealInput) model.EligibilityResult {
	res := model.EligibilityResult{Eligible: true}
	fail := func(format string, args ...any) {
		res.Eligible = false
		res.Failures = append(res.Failures, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	rules := in.Program.Rules
	sum := in.Analysis.Summary

	if rules.MinDSCR > 0 {
		switch {
		case sum.GlobalDSCR == nil:
			warn("DSCR could not be computed; program requires %.2f minimum", rules.MinDSCR)
		case *sum.GlobalDSCR < rules.MinDSCR:
			fail("DSCR %.2f below program minimum %.2f", *sum.GlobalDSCR, rules.MinDSCR)
		case *sum.GlobalDSCR < 1.1*rules.MinDSCR:
			warn("DSCR %.2f has limited cushion over program minimum %.2f", *sum.GlobalDSCR, rules.MinDSCR)
		}
	}

	if rules.MaxDTI > 0 {
		switch {
		case sum.BackEndDTI == nil:
			warn("DTI could not be computed; program allows %.0f%% maximum", rules.MaxDTI*100)
		case *sum.BackEndDTI > rules.MaxDTI:
			fail("DTI %.1f%% above program maximum %.0f%%", *sum.BackEndDTI*100, rules.MaxDTI*100)
		case *sum.BackEndDTI > 0.9*rules.MaxDTI:
			warn("DTI %.1f%% has limited headroom under program maximum %.0f%%", *sum.BackEndDTI*100, rules.MaxDTI*100)
		}
	}

	if in.RequestedAmount < rules.MinLoanAmount {
		fail("requested amount %s below program minimum %s",
			money.FormatUSDWhole(in.RequestedAmount), money.FormatUSDWhole(rules.MinLoanAmount))
	}
	if rules.MaxLoanAmount != nil && in.RequestedAmount > *rules.MaxLoanAmount {
		fail("requested amount %s above program maximum %s",
			money.FormatUSDWhole(in.RequestedAmount), money.FormatUSDWhole(*rules.MaxLoanAmount))
	}

	if in.PropertyValue != nil && *in.PropertyValue > 0 && rules.MaxLTV > 0 {
		if ltv := in.RequestedAmount / *in.PropertyValue; ltv > rules.MaxLTV {
			fail("requested LTV %s exceeds program maximum %s",
				money.FormatPercent(ltv, 1), money.FormatPercent(rules.MaxLTV, 1))
		}
	}

	if sum.RiskRating == model.RiskElevated || sum.RiskRating == model.RiskHigh {
		warn("risk rating is %s", sum.RiskRating)
	}
	if sum.MonthsOfReserves < 3 {
		warn("liquid reserves cover %.1f months of obligations, below 3", sum.MonthsOfReserves)
	}

	return res
}

// spreadBounds returns the spread window for a program at a given size. SBA
// 7(a) replaces the program ceiling with the statutory size-tier maximum,
// which can sit above the catalog range. The final check uses the same
// bounds, so a tier-priced deal re-verifies cleanly.
func spreadBounds(p *model.LoanProgram, approvedAmount float64) (float64, float64) {
	lo, hi := p.MinSpread(), p.MaxSpread()
	if p.ID == program.SBA7a {
		switch {
		case approvedAmount <= 50_000:
			hi = 0.065
		case approvedAmount <= 250_000:
			hi = 0.06
		case approvedAmount <= 350_000:
			hi = 0.045
		default:
			hi = 0.03
		}
	}
	return lo, hi
}

// spreadByRisk interpolates within the spread window. An unrecognized rating
// prices at the midpoint.
func spreadByRisk(rating model.RiskRating, minSpread, maxSpread float64) float64 {
	span := maxSpread - minSpread
	switch rating {
	case model.RiskLow:
		return minSpread
	case model.RiskModerate:
		return minSpread + 0.33*span
	case model.RiskElevated:
		return minSpread + 0.67*span
	case model.RiskHigh:
		return maxSpread
	default:
		return minSpread + 0.5*span
	}
}

// conditions builds the deterministic closing-condition list from program
// flags. Order is fixed so repeated runs emit identical output.
func conditions(p *model.LoanProgram) []string {
	var conds []string
	if p.Rules.RequiresAppraisal {
		conds = append(conds, "Appraisal of subject property by an approved appraiser")
	}
	if p.Rules.PersonalGuaranty {
		conds = append(conds, "Unlimited personal guaranty of all owners holding 20% or more")
	}
	if hasRealEstateCollateral(p) {
		conds = append(conds,
			"Clear title search and lender's title insurance policy",
			"Hazard insurance naming lender as mortgagee",
			"Flood zone determination; flood insurance if in a special hazard area",
			"Recorded mortgage or deed of trust in first lien position")
	} else {
		conds = append(conds, "UCC-1 financing statement filed on all pledged collateral")
	}
	if p.ID == program.SBA7a || p.ID == program.SBA504 {
		conds = append(conds, "Executed SBA loan authorization and all required SBA forms")
	}
	if p.HasRegulation("BSA/AML") {
		conds = append(conds, "BSA/AML customer due diligence completed")
	}
	conds = append(conds,
		"OFAC screening of all borrowers and guarantors",
		"Annual financial reporting per covenant schedule")
	return conds
}

func hasRealEstateCollateral(p *model.LoanProgram) bool {
	for _, t := range p.Rules.CollateralTypes {
		if strings.Contains(t, "real_estate") || strings.Contains(t, "property") {
			return true
		}
	}
	return false
}

package structuring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/program"
	"github.com/meridianlending/underwrite/internal/rates"
)

// checkedDeal prices a clean deal and returns everything FinalCheck needs.
func checkedDeal(t *testing.T, programID string, amount float64) (*model.RulesEngineOutput, *model.LoanProgram) {
	t.Helper()
	in := dealInput(t, programID, amount)
	out, err := NewEngine(nil).Run(context.Background(), in)
	require.NoError(t, err)
	return out, in.Program
}

func hasFieldIssue(res *model.FinalCheckResult, field string, sev model.FinalCheckSeverity) bool {
	for _, is := range res.Issues {
		if is.Field == field && is.Severity == sev {
			return true
		}
	}
	return false
}

func TestFinalCheckCleanDealPasses(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	res := FinalCheck(out, p, nil)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Issues)
}

func TestFinalCheckTamperedPayment(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	out.MonthlyPayment += 5

	res := FinalCheck(out, p, nil)
	assert.False(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "monthly_payment", model.FinalCheckError))
}

func TestFinalCheckRateIdentity(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	out.Rate.TotalRate += 0.001

	res := FinalCheck(out, p, nil)
	assert.False(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "total_rate", model.FinalCheckError))
}

func TestFinalCheckSpreadWindow(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	// Move the spread outside the window but keep the identity and payment
	// consistent so only the window check fires.
	out.Rate.Spread = 0.05
	out.Rate.TotalRate = out.Rate.BaseRateValue + out.Rate.Spread
	out.MonthlyPayment = MonthlyPayment(out.ApprovedAmount, out.Rate.TotalRate, out.AmortizationMonths, out.InterestOnly)

	res := FinalCheck(out, p, nil)
	assert.False(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "spread", model.FinalCheckError))
	assert.False(t, hasFieldIssue(res, "total_rate", model.FinalCheckError))
	assert.False(t, hasFieldIssue(res, "monthly_payment", model.FinalCheckError))
}

func TestFinalCheckHonorsTierWindow(t *testing.T) {
	t.Parallel()
	// A 7(a) deal priced at the 6% tier maximum sits far above the ordinary
	// catalog ceiling and must still verify.
	e := NewEngine(rates.NewStatic(map[model.BaseRateKind]float64{
		model.BaseRatePrime: 0.0675,
	}))
	in := dealInput(t, program.SBA7a, 200_000)
	in.Analysis.Summary.RiskRating = model.RiskHigh
	out, err := e.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 0.06, out.Rate.Spread)

	res := FinalCheck(out, in.Program, nil)
	assert.True(t, res.Passed)
	assert.False(t, hasFieldIssue(res, "spread", model.FinalCheckError))
}

func TestFinalCheckProgramLimits(t *testing.T) {
	t.Parallel()

	t.Run("amount over maximum", func(t *testing.T) {
		out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
		out.ApprovedAmount = 11_000_000
		res := FinalCheck(out, p, nil)
		assert.True(t, hasFieldIssue(res, "approved_amount", model.FinalCheckError))
	})

	t.Run("term over maximum", func(t *testing.T) {
		out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
		out.TermMonths = 140
		res := FinalCheck(out, p, nil)
		assert.True(t, hasFieldIssue(res, "term_months", model.FinalCheckError))
	})

	t.Run("amortization over maximum", func(t *testing.T) {
		out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
		out.AmortizationMonths = 400
		res := FinalCheck(out, p, nil)
		assert.True(t, hasFieldIssue(res, "amortization_months", model.FinalCheckError))
	})

	t.Run("ltv over maximum", func(t *testing.T) {
		out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
		out.LTV = ptr(0.80)
		res := FinalCheck(out, p, nil)
		assert.True(t, hasFieldIssue(res, "ltv", model.FinalCheckError))
	})

	t.Run("fee total drift", func(t *testing.T) {
		out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
		out.TotalFees += 0.05
		res := FinalCheck(out, p, nil)
		assert.True(t, hasFieldIssue(res, "total_fees", model.FinalCheckError))
	})
}

func TestFinalCheckInterestOnlyScheduleWarning(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.LineOfCredit, 250_000)
	out.AmortizationMonths = 6

	res := FinalCheck(out, p, nil)
	assert.True(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "amortization_months", model.FinalCheckWarning))
}

func TestFinalCheckNonPositiveTerms(t *testing.T) {
	t.Parallel()
	p, err := program.Get(program.CommercialCRE)
	require.NoError(t, err)

	res := FinalCheck(&model.RulesEngineOutput{}, p, nil)
	assert.False(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "approved_amount", model.FinalCheckError))
	assert.True(t, hasFieldIssue(res, "total_rate", model.FinalCheckError))
	assert.True(t, hasFieldIssue(res, "term_months", model.FinalCheckError))
}

func TestFinalCheckMirrorsCriticalCompliance(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	compliance := &model.ComplianceResult{
		Issues: []model.ComplianceIssue{
			{Severity: model.ComplianceCritical, Regulation: "AR usury statute", Description: "rate above the statutory ceiling"},
			{Severity: model.ComplianceWarning, Regulation: "internal policy", Description: "manual review"},
		},
	}

	res := FinalCheck(out, p, compliance)
	assert.False(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "compliance", model.FinalCheckError))
	// Warnings are not mirrored.
	count := 0
	for _, is := range res.Issues {
		if is.Field == "compliance" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFinalCheckCoverageWarning(t *testing.T) {
	t.Parallel()
	out, p := checkedDeal(t, program.CommercialCRE, 1_000_000)
	out.ProjectedDSCR = ptr(1.0)

	res := FinalCheck(out, p, nil)
	assert.True(t, res.Passed)
	assert.True(t, hasFieldIssue(res, "projected_dscr", model.FinalCheckWarning))
}

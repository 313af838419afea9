package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/model"
)

func findCheck(t *testing.T, checks []model.MathCheck, path string) model.MathCheck {
	t.Helper()
	for _, c := range checks {
		if c.FieldPath == path {
			return c
		}
	}
	t.Fatalf("no math check for %s; have %v", path, checkPaths(checks))
	return model.MathCheck{}
}

func checkPaths(checks []model.MathCheck) []string {
	paths := make([]string, len(checks))
	for i, c := range checks {
		paths[i] = c.FieldPath
	}
	return paths
}

func TestVerifyRejectsUnknownDocType(t *testing.T) {
	t.Parallel()

	_, err := Verify(Request{DocType: "FORM_9999", Data: map[string]any{}})
	require.Error(t, err)

	_, err = Verify(Request{DocType: model.DocTypeForm1040})
	require.Error(t, err, "nil structured data is a shape violation")
}

func TestForm1040CleanArithmetic(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"income": map[string]any{
			"wages_line1":              float64(185000),
			"taxableInterest_line2b":   float64(3450),
			"ordinaryDividends_line3b": float64(2800),
			"capitalGain_line7":        float64(8500),
			"totalIncome_line9":        float64(199750),
			"adjustments_line10":       float64(6000),
			"agi_line11":               float64(193750),
		},
		"tax": map[string]any{
			"standardOrItemized_line12": float64(27700),
			"taxableIncome_line15":      float64(166050),
		},
	}

	checks := MathChecks(model.DocTypeForm1040, data)
	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.True(t, c.Passed, "%s: expected %v got %v", c.FieldPath, c.Expected, c.Actual)
	}

	total := findCheck(t, checks, "income.totalIncome_line9")
	assert.InDelta(t, 199750, total.Expected, 1e-9)
	agi := findCheck(t, checks, "income.agi_line11")
	assert.InDelta(t, 193750, agi.Expected, 1e-9)
	taxable := findCheck(t, checks, "tax.taxableIncome_line15")
	assert.InDelta(t, 166050, taxable.Expected, 1e-9)
}

func TestForm1040W2CrossCheckMismatch(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"income": map[string]any{"wages_line1": float64(150000)},
		"w2Summary": []any{
			map[string]any{"wages_box1": float64(120000)},
		},
	}

	checks := MathChecks(model.DocTypeForm1040, data)
	w2 := findCheck(t, checks, "income.wages_line1")
	assert.False(t, w2.Passed, "30,000 apart exceeds max($1, 2%% of 150,000)")
	assert.InDelta(t, 30000, w2.Difference, 1e-9)
}

func TestForm1040W2CrossCheckWithinTolerance(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"income": map[string]any{"wages_line1": float64(150000)},
		"w2Summary": []any{
			map[string]any{"wages_box1": float64(74000)},
			map[string]any{"wages_box1": float64(74500)},
		},
	}

	checks := MathChecks(model.DocTypeForm1040, data)
	w2 := findCheck(t, checks, "income.wages_line1")
	assert.True(t, w2.Passed, "1,500 apart is inside the 2%% band")
}

func TestForm1040RefundAndOwedChecks(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"income": map[string]any{"wages_line1": float64(100000)},
		"tax": map[string]any{
			"totalTax_line24":      float64(18000),
			"totalPayments_line33": float64(21000),
			"overpaid_line34":      float64(3000),
		},
	}
	checks := MathChecks(model.DocTypeForm1040, data)
	over := findCheck(t, checks, "tax.overpaid_line34")
	assert.True(t, over.Passed)

	// Owed field zero: that check must not fire.
	for _, c := range checks {
		assert.NotEqual(t, "tax.amountOwed_line37", c.FieldPath)
	}
}

func TestScheduleCChecks(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"scheduleC": []any{
			map[string]any{
				"grossReceipts_line1":  float64(250000),
				"cogs_line4":           float64(90000),
				"grossProfit_line5":    float64(160000),
				"otherIncome_line6":    float64(5000),
				"grossIncome_line7":    float64(165000),
				"totalExpenses_line28": float64(115000),
				"netProfit_line31":     float64(50000),
				"advertising":          float64(15000),
				"rent":                 float64(60000),
				"wages":                float64(40000),
			},
		},
	}

	checks := MathChecks(model.DocTypeForm1040, data)
	gp := findCheck(t, checks, "scheduleC[0].grossProfit_line5")
	assert.True(t, gp.Passed)
	np := findCheck(t, checks, "scheduleC[0].netProfit_line31")
	assert.True(t, np.Passed)
	te := findCheck(t, checks, "scheduleC[0].totalExpenses_line28")
	assert.True(t, te.Passed, "itemized expenses sum to 115,000")
}

func TestScheduleCSkipsAbsentSubtotals(t *testing.T) {
	t.Parallel()

	// Only receipts present: every derived check should skip, not fail.
	data := map[string]any{
		"scheduleC": []any{
			map[string]any{"grossReceipts_line1": float64(250000)},
		},
	}
	checks := MathChecks(model.DocTypeForm1040, data)
	assert.Empty(t, checks)
}

func TestForm1065PartnerShares(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"partners": []any{
			map[string]any{"profitSharePercent": float64(50.2), "lossSharePercent": float64(50)},
			map[string]any{"profitSharePercent": float64(49.8), "lossSharePercent": float64(50)},
		},
	}
	checks := MathChecks(model.DocTypeForm1065, data)
	profit := findCheck(t, checks, "partners.profitSharePercent")
	assert.True(t, profit.Passed)
	loss := findCheck(t, checks, "partners.lossSharePercent")
	assert.True(t, loss.Passed)
}

func TestForm1120TaxableIncomeChain(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"income": map[string]any{
			"grossReceipts_1a":       float64(1000000),
			"returnsAllowances_1b":   float64(50000),
			"balanceAfterReturns_1c": float64(950000),
			"cogs_line2":             float64(400000),
			"grossProfit_line3":      float64(550000),
			"otherIncome_line10":     float64(10000),
			"totalIncome_line11":     float64(560000),
		},
		"deductions": map[string]any{"totalDeductions_line27": float64(420000)},
		"taxableIncomeBeforeNOL_line28": float64(140000),
		"nol_line29a":                   float64(20000),
		"taxableIncome_line30":          float64(120000),
	}

	checks := MathChecks(model.DocTypeForm1120, data)
	for _, path := range []string{
		"income.balanceAfterReturns_1c",
		"income.grossProfit_line3",
		"income.totalIncome_line11",
		"taxableIncomeBeforeNOL_line28",
		"taxableIncome_line30",
	} {
		assert.True(t, findCheck(t, checks, path).Passed, path)
	}
}

func TestScheduleLFundamental(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"scheduleL": map[string]any{
			"endOfYear": map[string]any{
				"totalAssets":               float64(448500),
				"totalLiabilitiesAndEquity": float64(448000),
			},
		},
	}
	checks := MathChecks(model.DocTypeForm1120S, data)
	fund := findCheck(t, checks, "scheduleL.endOfYear.totalAssets")
	assert.False(t, fund.Passed)
	assert.InDelta(t, 500, fund.Difference, 1e-9)
}

func TestBankStatementBalanceEquation(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"beginningBalance": float64(10000),
		"totalDeposits":    float64(45000),
		"totalWithdrawals": float64(42000),
		"endingBalance":    float64(13000),
		"deposits": []any{
			map[string]any{"amount": float64(20000)},
			map[string]any{"amount": float64(25000)},
		},
		"withdrawals": []any{
			map[string]any{"amount": float64(-30000)},
			map[string]any{"amount": float64(-12000)},
		},
	}

	checks := MathChecks(model.DocTypeBankStatementChecking, data)
	balance := findCheck(t, checks, "endingBalance")
	assert.True(t, balance.Passed)
	deposits := findCheck(t, checks, "totalDeposits")
	assert.True(t, deposits.Passed)
	withdrawals := findCheck(t, checks, "totalWithdrawals")
	assert.True(t, withdrawals.Passed, "withdrawal items are summed by absolute value")
}

func TestBankStatementBrokenBalance(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"beginningBalance": float64(10000),
		"totalDeposits":    float64(45000),
		"totalWithdrawals": float64(42000),
		"endingBalance":    float64(14500),
	}
	checks := MathChecks(model.DocTypeBankStatementSavings, data)
	balance := findCheck(t, checks, "endingBalance")
	assert.False(t, balance.Passed)
	assert.InDelta(t, 1500, balance.Difference, 1e-9)
}

func TestProfitAndLossChecks(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"netRevenue":        float64(800000),
		"cogs":              float64(300000),
		"grossProfit":       float64(500000),
		"operatingExpenses": float64(350000),
		"operatingIncome":   float64(150000),
		"otherIncomeExpense": float64(-10000),
		"incomeTaxExpense":  float64(30000),
		"netIncome":         float64(110000),
		"grossMargin":       float64(0.625),
		"addBacks": map[string]any{
			"depreciation":      float64(25000),
			"amortization":      float64(5000),
			"interest":          float64(12000),
			"ownerCompensation": float64(80000),
			"oneTimeExpenses": []any{
				map[string]any{"amount": float64(8000), "description": "flood repair"},
			},
			"totalAddBacks": float64(130000),
		},
		"adjustedNetIncome": float64(240000),
	}

	checks := MathChecks(model.DocTypeProfitAndLoss, data)
	for _, path := range []string{
		"grossProfit", "operatingIncome", "netIncome", "grossMargin",
		"addBacks.totalAddBacks", "adjustedNetIncome",
	} {
		assert.True(t, findCheck(t, checks, path).Passed, path)
	}
}

func TestBalanceSheetFundamental(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"totalAssets":               float64(448500),
		"totalLiabilities":          float64(131500),
		"totalEquity":               float64(317000),
		"totalLiabilitiesAndEquity": float64(448500),
	}

	checks := MathChecks(model.DocTypeBalanceSheet, data)
	fund := findCheck(t, checks, "totalAssets")
	assert.True(t, fund.Passed)

	// With equity short by 500 the identity breaks.
	data["totalEquity"] = float64(316500)
	data["totalLiabilitiesAndEquity"] = float64(448000)
	checks = MathChecks(model.DocTypeBalanceSheet, data)
	fund = findCheck(t, checks, "totalAssets")
	assert.False(t, fund.Passed)
	assert.InDelta(t, 500, fund.Difference, 1e-9)
}

func TestBalanceSheetNetFixedAssets(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"propertyEquipment":       float64(500000),
		"accumulatedDepreciation": float64(120000),
		"netFixedAssets":          float64(380000),
	}
	checks := MathChecks(model.DocTypeBalanceSheet, data)
	nfa := findCheck(t, checks, "netFixedAssets")
	assert.True(t, nfa.Passed)
}

func TestRentRollChecks(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"units": []any{
			map[string]any{"monthlyRent": float64(1200), "status": "occupied"},
			map[string]any{"monthlyRent": float64(1300), "occupied": true},
			map[string]any{"monthlyRent": float64(1250)},
			map[string]any{"monthlyRent": float64(1100), "status": "vacant"},
		},
		"totalMonthlyRent": float64(3750),
		"totalAnnualRent":  float64(45000),
		"totalUnits":       float64(4),
		"occupiedUnits":    float64(3),
		"vacantUnits":      float64(1),
		"occupancyRate":    float64(0.75),
	}

	checks := MathChecks(model.DocTypeRentRoll, data)
	rent := findCheck(t, checks, "totalMonthlyRent")
	assert.True(t, rent.Passed, "missing status counts as occupied")
	annual := findCheck(t, checks, "totalAnnualRent")
	assert.True(t, annual.Passed)
	occ := findCheck(t, checks, "occupancyRate")
	assert.True(t, occ.Passed)
	count := findCheck(t, checks, "totalUnits")
	assert.True(t, count.Passed)

	// Unit count is exact: off by one fails.
	data["vacantUnits"] = float64(2)
	checks = MathChecks(model.DocTypeRentRoll, data)
	count = findCheck(t, checks, "totalUnits")
	assert.False(t, count.Passed)
}

func TestScheduleK1Informational(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"ordinaryIncome_box1": float64(80000),
		"distributions_box19": float64(120000),
	}
	checks := MathChecks(model.DocTypeScheduleK1, data)
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Passed, "informational ratio never fails on its own")
	assert.InDelta(t, 1.5, checks[0].Actual, 1e-9)

	// Even an extreme ratio stays informational.
	data["distributions_box19"] = float64(400000)
	checks = MathChecks(model.DocTypeScheduleK1, data)
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Passed)
	assert.InDelta(t, 5.0, checks[0].Actual, 1e-9)
}

func TestW2MedicareCheck(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"wages_box1":        float64(95000),
		"medicareWages_box5": float64(100000),
	}
	checks := MathChecks(model.DocTypeW2, data)
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Passed)

	data["medicareWages_box5"] = float64(80000)
	checks = MathChecks(model.DocTypeW2, data)
	assert.False(t, checks[0].Passed, "box 5 materially below box 1")
}

func TestVerifyEndToEnd(t *testing.T) {
	t.Parallel()

	req := Request{
		DocType: model.DocTypeBalanceSheet,
		Data: map[string]any{
			"totalAssets":               float64(448500),
			"totalLiabilities":          float64(131500),
			"totalEquity":               float64(317000),
			"totalLiabilitiesAndEquity": float64(448500),
		},
		OCR: []model.OCRPair{
			{Key: "Total Assets", Value: "$448,500.00", Confidence: 0.99, Page: 1},
			{Key: "Total Liabilities", Value: "$131,500.00", Confidence: 0.99, Page: 1},
			{Key: "Total Equity", Value: "$317,000.00", Confidence: 0.98, Page: 1},
			{Key: "Total Liabilities and Equity", Value: "$448,500.00", Confidence: 0.98, Page: 1},
		},
	}

	result, err := Verify(req)
	require.NoError(t, err)
	assert.Equal(t, model.DocTypeBalanceSheet, result.DocType)

	matched, total := result.ComparisonStats()
	assert.Equal(t, 4, total)
	assert.Equal(t, 4, matched)

	passed, totalChecks := result.MathCheckStats()
	assert.Equal(t, totalChecks, passed)
}

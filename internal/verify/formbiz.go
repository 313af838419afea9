package verify

import (
	"github.com/meridianlending/underwrite/internal/money"
)

// checkReturnTop evaluates the income-section pattern shared by the 1120,
// 1120S, and 1065: receipts net of returns, gross profit, and the total
// income roll-up over the form's income lines.
func checkReturnTop(c *checker, tree map[string]any, totalField string, sumLines []string) {
	income, ok := getMap(tree, "income")
	if !ok {
		return
	}
	before := len(c.checks)

	c.derived(income, "balanceAfterReturns_1c", "Line 1c equals gross receipts minus returns and allowances",
		num(income, "grossReceipts_1a")-num(income, "returnsAllowances_1b"), money.Tolerance)

	c.derived(income, "grossProfit_line3", "Gross profit equals line 1c minus cost of goods sold",
		num(income, "balanceAfterReturns_1c")-num(income, "cogs_line2"), money.Tolerance)

	c.derived(income, totalField, "Total income equals the sum of the income lines",
		sumOf(income, sumLines...), money.Tolerance)

	rewriteLast(c, len(c.checks)-before, "income.")
}

// check1120 evaluates a C corporation return.
func check1120(c *checker, tree map[string]any) {
	checkReturnTop(c, tree, "totalIncome_line11", []string{
		"grossProfit_line3", "dividends_line4", "interest_line5",
		"grossRents_line6", "grossRoyalties_line7", "capitalGain_line8",
		"netGain_line9", "otherIncome_line10",
	})

	income, _ := getMap(tree, "income")
	c.derived(tree, "taxableIncomeBeforeNOL_line28",
		"Taxable income before NOL equals total income minus total deductions",
		num(income, "totalIncome_line11")-num(tree, "deductions.totalDeductions_line27"),
		money.Tolerance)

	c.derived(tree, "taxableIncome_line30",
		"Taxable income equals line 28 minus NOL and special deductions",
		num(tree, "taxableIncomeBeforeNOL_line28")-num(tree, "nol_line29a")-num(tree, "specialDeductions_line29b"),
		money.Tolerance)

	checkScheduleL(c, tree)
}

// check1120S evaluates an S corporation return.
func check1120S(c *checker, tree map[string]any) {
	checkReturnTop(c, tree, "totalIncome_line6", []string{
		"grossProfit_line3", "netGain_line4", "otherIncome_line5",
	})

	income, _ := getMap(tree, "income")
	c.derived(tree, "ordinaryBusinessIncome_line21",
		"Ordinary business income equals total income minus total deductions",
		num(income, "totalIncome_line6")-num(tree, "deductions.totalDeductions_line20"),
		money.Tolerance)

	checkScheduleL(c, tree)
}

// check1065 evaluates a partnership return, including partner percentage
// roll-ups.
func check1065(c *checker, tree map[string]any) {
	checkReturnTop(c, tree, "totalIncome_line8", []string{
		"grossProfit_line3", "otherPartnershipIncome_line4", "netFarmProfit_line5",
		"netGain_line6", "otherIncome_line7",
	})

	income, _ := getMap(tree, "income")
	c.derived(tree, "ordinaryBusinessIncome_line22",
		"Ordinary business income equals total income minus total deductions",
		num(income, "totalIncome_line8")-num(tree, "deductions.totalDeductions_line21"),
		money.Tolerance)

	// Partner profit and loss shares must each total 100%, give or take
	// half a point of rounding across partners.
	partners := getArray(tree, "partners")
	if len(partners) > 0 {
		var profit, loss float64
		for _, p := range partners {
			profit += num(p, "profitSharePercent")
			loss += num(p, "lossSharePercent")
		}
		if profit != 0 {
			c.add("partners.profitSharePercent", "Partner profit shares total 100%", 100, profit, 0.5)
		}
		if loss != 0 {
			c.add("partners.lossSharePercent", "Partner loss shares total 100%", 100, loss, 0.5)
		}
	}

	checkScheduleL(c, tree)
}

// scheduleLAssetLines are the asset components of Schedule L.
var scheduleLAssetLines = []string{
	"cash", "tradeNotes", "inventories", "governmentObligations",
	"taxExemptSecurities", "otherCurrentAssets", "loansToShareholders",
	"mortgageLoans", "otherInvestments", "buildingsAndDepreciation",
	"depletableAssets", "land", "intangibleAssets", "otherAssets",
}

// checkScheduleL evaluates the balance sheet attached to a corporate or
// partnership return, for each period present.
func checkScheduleL(c *checker, tree map[string]any) {
	sl, ok := getMap(tree, "scheduleL")
	if !ok {
		return
	}
	for _, period := range []string{"beginningOfYear", "endOfYear"} {
		p, ok := getMap(sl, period)
		if !ok {
			continue
		}
		before := len(c.checks)

		if itemSum := sumOf(p, scheduleLAssetLines...); itemSum != 0 {
			c.derived(p, "totalAssets", "Total assets equal the sum of asset components", itemSum, money.Tolerance)
		}

		// The fundamental accounting identity fires whenever both sides
		// exist, zero or not.
		assets, okA := getNum(p, "totalAssets")
		if okA {
			if le, okLE := getNum(p, "totalLiabilitiesAndEquity"); okLE && (assets != 0 || le != 0) {
				c.add("totalAssets", "Total assets equal total liabilities and equity", le, assets, money.Tolerance)
			} else if !okLE {
				liabilities, okL := getNum(p, "totalLiabilities")
				equity, okE := getNum(p, "totalEquity")
				if okL && okE && (assets != 0 || liabilities+equity != 0) {
					c.add("totalAssets", "Total assets equal total liabilities plus equity",
						liabilities+equity, assets, money.Tolerance)
				}
			}
		}

		rewriteLast(c, len(c.checks)-before, "scheduleL."+period+".")
	}
}

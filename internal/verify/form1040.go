package verify

import (
	"fmt"
	"math"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

// withPrefix rewrites check field paths to carry an instance prefix, e.g.
// "scheduleC[1].netProfit_line31".
func withPrefix(checks []model.MathCheck, prefix string) []model.MathCheck {
	for i := range checks {
		checks[i].FieldPath = prefix + "." + checks[i].FieldPath
	}
	return checks
}

// check1040 evaluates the Form 1040 invariants plus any attached Schedule C
// businesses, Schedule E properties, and the W-2 wage cross-check.
func check1040(c *checker, tree map[string]any) {
	income, hasIncome := getMap(tree, "income")
	if hasIncome {
		before := len(c.checks)

		c.derived(income, "totalIncome_line9", "Total income equals the sum of income lines 1-8",
			sumOf(income,
				"wages_line1", "taxableInterest_line2b", "ordinaryDividends_line3b",
				"taxableIra_line4b", "taxablePensions_line5b", "taxableSocialSecurity_line6b",
				"capitalGain_line7", "otherIncome_line8"),
			money.Tolerance)

		c.derived(income, "agi_line11", "AGI equals total income minus adjustments",
			num(income, "totalIncome_line9")-num(income, "adjustments_line10"),
			money.Tolerance)

		rewriteLast(c, len(c.checks)-before, "income.")
	}

	if tax, ok := getMap(tree, "tax"); ok && hasIncome {
		before := len(c.checks)

		// Line 15 fires whenever present, zero included: a zero taxable
		// income (fully offset by deductions) is still checkable.
		c.mandatory(tax, "taxableIncome_line15", "Taxable income equals AGI minus deductions",
			num(income, "agi_line11")-num(tax, "standardOrItemized_line12")-num(tax, "qbi_line13a"),
			money.Tolerance)

		if overpaid, ok := getNum(tax, "overpaid_line34"); ok && overpaid != 0 {
			c.add("overpaid_line34", "Overpayment equals total payments minus total tax",
				num(tax, "totalPayments_line33")-num(tax, "totalTax_line24"),
				overpaid, money.Tolerance)
		}
		if owed, ok := getNum(tax, "amountOwed_line37"); ok && owed != 0 {
			c.add("amountOwed_line37", "Amount owed equals total tax minus total payments",
				num(tax, "totalTax_line24")-num(tax, "totalPayments_line33"),
				owed, money.Tolerance)
		}

		rewriteLast(c, len(c.checks)-before, "tax.")
	}

	// W-2 cross-check: reported wage income should reconcile with the
	// attached W-2s, within the larger of $1 and 2%.
	if w2s := getArray(tree, "w2Summary"); len(w2s) > 0 && hasIncome {
		var total float64
		for _, w2 := range w2s {
			total += num(w2, "wages_box1")
		}
		wages := num(income, "wages_line1")
		c.add("income.wages_line1", "Wages on line 1 reconcile with the sum of W-2 box 1 amounts",
			total, wages, money.SumTolerance(wages))
	}

	for i, sc := range getArray(tree, "scheduleC") {
		c.checks = append(c.checks, checkScheduleC(sc, fmt.Sprintf("scheduleC[%d]", i))...)
	}
	for i, prop := range getArray(tree, "scheduleE.properties") {
		c.checks = append(c.checks, checkScheduleE(prop, fmt.Sprintf("scheduleE.properties[%d]", i))...)
	}
}

// rewriteLast prefixes the field paths of the n most recent checks.
func rewriteLast(c *checker, n int, prefix string) {
	for i := len(c.checks) - n; i < len(c.checks); i++ {
		if i >= 0 {
			c.checks[i].FieldPath = prefix + c.checks[i].FieldPath
		}
	}
}

// scheduleCExpenseLines are the Part II expense lines summed against line 28.
var scheduleCExpenseLines = []string{
	"advertising", "carAndTruck", "commissions", "contractLabor", "depletion",
	"depreciation_line13", "employeeBenefits", "insurance", "interestMortgage",
	"interestOther", "legal", "officeExpense", "pensionPlans", "rent",
	"repairs", "supplies", "taxes", "travel", "meals", "utilities", "wages",
	"otherExpenses",
}

func checkScheduleC(sc map[string]any, prefix string) []model.MathCheck {
	c := &checker{}

	c.derived(sc, "grossProfit_line5", "Gross profit equals receipts minus cost of goods sold",
		num(sc, "grossReceipts_line1")-num(sc, "cogs_line4"), money.Tolerance)

	if _, ok := getNum(sc, "otherIncome_line6"); ok {
		c.derived(sc, "grossIncome_line7", "Gross income equals gross profit plus other income",
			num(sc, "grossProfit_line5")+num(sc, "otherIncome_line6"), money.Tolerance)
	}

	c.derived(sc, "netProfit_line31", "Net profit equals gross income minus total expenses",
		num(sc, "grossIncome_line7")-num(sc, "totalExpenses_line28"), money.Tolerance)

	// Expense roll-up only fires when line items were actually extracted.
	if itemSum := sumOf(sc, scheduleCExpenseLines...); itemSum > 0 {
		c.derived(sc, "totalExpenses_line28", "Total expenses equal the sum of expense lines",
			itemSum, money.Tolerance)
	}

	return withPrefix(c.checks, prefix)
}

// scheduleEExpenseLines are the per-property expense lines.
var scheduleEExpenseLines = []string{
	"advertising", "auto", "cleaning", "commissions", "insurance", "legal",
	"managementFees", "mortgageInterest", "otherInterest", "repairs",
	"supplies", "taxes", "utilities", "depreciation", "other",
}

func checkScheduleE(prop map[string]any, prefix string) []model.MathCheck {
	c := &checker{}

	c.derived(prop, "netRentalIncome", "Net rental income equals rents received minus total expenses",
		num(prop, "rentsReceived")-num(prop, "totalExpenses"), money.Tolerance)

	if itemSum := sumOf(prop, scheduleEExpenseLines...); itemSum > 0 {
		c.derived(prop, "totalExpenses", "Total expenses equal the sum of expense lines",
			itemSum, money.Tolerance)
	}

	return withPrefix(c.checks, prefix)
}

// checkK1 records the Schedule K-1 distributions ratio. Informational only:
// it never fails regardless of the ratio, but reviewers see how much cash
// was taken out of the entity relative to its ordinary income.
func checkK1(c *checker, tree map[string]any) {
	ordinary, ok := getNum(tree, "ordinaryIncome_box1")
	if !ok || ordinary == 0 {
		return
	}
	ratio := num(tree, "distributions_box19") / math.Abs(ordinary)
	c.checks = append(c.checks, model.MathCheck{
		FieldPath:   "distributions_box19",
		Description: "Distributions to ordinary income ratio (informational)",
		Expected:    1.0,
		Actual:      ratio,
		Difference:  math.Abs(ratio - 1.0),
		Passed:      true,
	})
}

// checkW2 sanity-checks a standalone W-2: medicare wages (box 5) include
// pre-tax deferrals, so they should not be materially below box 1.
func checkW2(c *checker, tree map[string]any) {
	box1, ok1 := getNum(tree, "wages_box1")
	box5, ok5 := getNum(tree, "medicareWages_box5")
	if !ok1 || !ok5 || box1 == 0 || box5 == 0 {
		return
	}
	shortfall := box1 - box5
	if shortfall < 0 {
		shortfall = 0
	}
	c.checks = append(c.checks, model.MathCheck{
		FieldPath:   "medicareWages_box5",
		Description: "Medicare wages are at least box 1 wages",
		Expected:    box1,
		Actual:      box5,
		Difference:  shortfall,
		Passed:      shortfall <= money.Tolerance,
	})
}

package verify

import (
	"math"

	"github.com/meridianlending/underwrite/internal/money"
)

// checkBankStatement verifies the balance equation and the deposit and
// withdrawal roll-ups on a monthly statement.
func checkBankStatement(c *checker, tree map[string]any) {
	beginning, okB := getNum(tree, "beginningBalance")
	ending, okE := getNum(tree, "endingBalance")

	// The balance equation is the whole point of a statement; it fires
	// whenever either balance is present, zero included.
	if okB || okE {
		expected := beginning + num(tree, "totalDeposits") - num(tree, "totalWithdrawals")
		c.add("endingBalance",
			"Ending balance equals beginning balance plus deposits minus withdrawals",
			expected, ending, money.Tolerance)
	}

	if deposits := getArray(tree, "deposits"); len(deposits) > 0 {
		var sum float64
		for _, d := range deposits {
			sum += num(d, "amount")
		}
		total, ok := getNum(tree, "totalDeposits")
		if ok && total != 0 {
			c.add("totalDeposits", "Itemized deposits total the reported deposits",
				sum, total, money.SumTolerance(total))
		}
	}

	if withdrawals := getArray(tree, "withdrawals"); len(withdrawals) > 0 {
		// Withdrawal line items may carry either sign; totals are positive.
		var sum float64
		for _, w := range withdrawals {
			sum += math.Abs(num(w, "amount"))
		}
		total, ok := getNum(tree, "totalWithdrawals")
		if ok && total != 0 {
			c.add("totalWithdrawals", "Itemized withdrawals total the reported withdrawals",
				sum, total, money.SumTolerance(total))
		}
	}
}

// checkProfitAndLoss verifies the income-statement waterfall, line-item
// roll-ups, margin, and the lender add-back schedule.
func checkProfitAndLoss(c *checker, tree map[string]any) {
	c.derived(tree, "grossProfit", "Gross profit equals net revenue minus cost of goods sold",
		num(tree, "netRevenue")-num(tree, "cogs"), money.Tolerance)

	c.derived(tree, "operatingIncome", "Operating income equals gross profit minus operating expenses",
		num(tree, "grossProfit")-num(tree, "operatingExpenses"), money.Tolerance)

	c.derived(tree, "netIncome", "Net income equals operating income plus other income minus taxes",
		num(tree, "operatingIncome")+num(tree, "otherIncomeExpense")-num(tree, "incomeTaxExpense"),
		money.Tolerance)

	if revenue := num(tree, "netRevenue"); revenue != 0 {
		c.ratio(tree, "grossMargin", "Gross margin equals gross profit over net revenue",
			num(tree, "grossProfit")/revenue)
	}

	if items := getArray(tree, "revenueItems"); len(items) > 0 {
		var sum float64
		for _, it := range items {
			sum += num(it, "amount")
		}
		total, ok := getNum(tree, "netRevenue")
		if ok && total != 0 {
			c.add("netRevenue", "Revenue line items total net revenue", sum, total, money.SumTolerance(total))
		}
	}
	if items := getArray(tree, "expenseItems"); len(items) > 0 {
		var sum float64
		for _, it := range items {
			sum += num(it, "amount")
		}
		total, ok := getNum(tree, "operatingExpenses")
		if ok && total != 0 {
			c.add("operatingExpenses", "Expense line items total operating expenses", sum, total, money.SumTolerance(total))
		}
	}

	if ab, ok := getMap(tree, "addBacks"); ok {
		before := len(c.checks)

		var oneTime float64
		for _, ot := range getArray(ab, "oneTimeExpenses") {
			oneTime += num(ot, "amount")
		}
		c.derived(ab, "totalAddBacks",
			"Total add-backs equal depreciation, amortization, interest, owner compensation, and one-time expenses",
			num(ab, "depreciation")+num(ab, "amortization")+num(ab, "interest")+num(ab, "ownerCompensation")+oneTime,
			money.Tolerance)

		rewriteLast(c, len(c.checks)-before, "addBacks.")

		c.derived(tree, "adjustedNetIncome", "Adjusted net income equals net income plus total add-backs",
			num(tree, "netIncome")+num(ab, "totalAddBacks"), money.Tolerance)
	}
}

// checkBalanceSheet verifies the roll-ups on each side and the fundamental
// accounting identity.
func checkBalanceSheet(c *checker, tree map[string]any) {
	// Roll-ups only fire when their components were extracted; a total with
	// no components is not evidence of a mismatch.
	if sum := num(tree, "totalCurrentAssets") + num(tree, "netFixedAssets") + num(tree, "otherAssets"); sum != 0 {
		c.derived(tree, "totalAssets", "Total assets equal current assets plus net fixed assets plus other assets",
			sum, money.Tolerance)
	}

	if sum := num(tree, "totalCurrentLiabilities") + num(tree, "totalLongTermLiabilities"); sum != 0 {
		c.derived(tree, "totalLiabilities", "Total liabilities equal current plus long-term liabilities",
			sum, money.Tolerance)
	}

	if sum := num(tree, "totalLiabilities") + num(tree, "totalEquity"); sum != 0 {
		c.derived(tree, "totalLiabilitiesAndEquity", "Total liabilities and equity equal liabilities plus equity",
			sum, money.Tolerance)
	}

	// The fundamental identity fires whenever both sides are present.
	assets, okA := getNum(tree, "totalAssets")
	le, okLE := getNum(tree, "totalLiabilitiesAndEquity")
	if okA && okLE && (assets != 0 || le != 0) {
		c.add("totalAssets", "Total assets equal total liabilities and equity", le, assets, money.Tolerance)
	}

	if _, ok := getNum(tree, "propertyEquipment"); ok {
		c.derived(tree, "netFixedAssets", "Net fixed assets equal property and equipment minus accumulated depreciation",
			num(tree, "propertyEquipment")-num(tree, "accumulatedDepreciation"), money.Tolerance)
	}
}

// unitOccupied applies the rent-roll occupancy convention: an explicit
// "occupied" status, an occupied flag, or no status at all counts as
// occupied; only an explicit vacancy does not.
func unitOccupied(unit map[string]any) bool {
	if status, ok := unit["status"].(string); ok {
		return status == "occupied"
	}
	if occ, ok := unit["occupied"].(bool); ok {
		return occ
	}
	return true
}

// checkRentRoll verifies rent totals, annualization, occupancy rate, and
// unit counts.
func checkRentRoll(c *checker, tree map[string]any) {
	units := getArray(tree, "units")
	if len(units) > 0 {
		var occupiedRent float64
		for _, u := range units {
			if unitOccupied(u) {
				occupiedRent += num(u, "monthlyRent")
			}
		}
		c.derived(tree, "totalMonthlyRent", "Total monthly rent equals the sum over occupied units",
			occupiedRent, money.Tolerance)
	}

	c.derived(tree, "totalAnnualRent", "Total annual rent equals twelve times monthly rent",
		12*num(tree, "totalMonthlyRent"), money.SumTolerance(12*num(tree, "totalMonthlyRent")))

	totalUnits, okT := getNum(tree, "totalUnits")
	if okT && totalUnits > 0 {
		c.ratio(tree, "occupancyRate", "Occupancy rate equals occupied units over total units",
			num(tree, "occupiedUnits")/totalUnits)

		occupied, okO := getNum(tree, "occupiedUnits")
		vacant, okV := getNum(tree, "vacantUnits")
		if okO && okV {
			c.add("totalUnits", "Occupied plus vacant units equal total units",
				occupied+vacant, totalUnits, 0)
		}
	}
}

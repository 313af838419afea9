package verify

// taxLabels maps a structured field name to the labels it appears under on
// the printed form: the bare IRS line number, the line caption, and common
// OCR renderings. Keys are path segments with array indices stripped, so
// "scheduleC[2].netProfit_line31" looks up "netProfit_line31".
var taxLabels = map[string][]string{
	// Form 1040
	"wages_line1":                 {"1", "wages", "line 1", "wages, salaries, tips"},
	"taxableInterest_line2b":      {"2b", "taxable interest"},
	"taxExemptInterest_line2a":    {"2a", "tax-exempt interest"},
	"ordinaryDividends_line3b":    {"3b", "ordinary dividends"},
	"qualifiedDividends_line3a":   {"3a", "qualified dividends"},
	"taxableIra_line4b":           {"4b", "ira distributions", "taxable amount"},
	"taxablePensions_line5b":      {"5b", "pensions and annuities"},
	"taxableSocialSecurity_line6b": {"6b", "social security benefits"},
	"capitalGain_line7":           {"7", "capital gain or (loss)", "capital gain"},
	"otherIncome_line8":           {"8", "other income from schedule 1", "additional income"},
	"totalIncome_line9":           {"9", "total income", "line 9"},
	"adjustments_line10":          {"10", "adjustments to income"},
	"agi_line11":                  {"11", "adjusted gross income", "agi"},
	"standardOrItemized_line12":   {"12", "standard deduction or itemized deductions", "standard deduction"},
	"qbi_line13a":                 {"13a", "qualified business income deduction"},
	"taxableIncome_line15":        {"15", "taxable income"},
	"totalTax_line24":             {"24", "total tax"},
	"federalWithholding_line25":   {"25", "federal income tax withheld"},
	"totalPayments_line33":        {"33", "total payments"},
	"overpaid_line34":             {"34", "overpaid", "amount you overpaid"},
	"refund_line35a":              {"35a", "refund"},
	"amountOwed_line37":           {"37", "amount you owe"},

	// W-2 boxes (both standalone W-2s and the 1040 w2Summary)
	"wages_box1":              {"box 1", "1", "wages, tips, other compensation"},
	"federalWithholding_box2": {"box 2", "2", "federal income tax withheld"},
	"socialSecurityWages_box3": {"box 3", "3", "social security wages"},
	"medicareWages_box5":      {"box 5", "5", "medicare wages and tips"},

	// Schedule C
	"grossReceipts_line1":   {"1", "gross receipts or sales"},
	"returns_line2":         {"2", "returns and allowances"},
	"cogs_line4":            {"4", "cost of goods sold"},
	"grossProfit_line5":     {"5", "gross profit"},
	"otherIncome_line6":     {"6", "other income"},
	"grossIncome_line7":     {"7", "gross income"},
	"depreciation_line13":   {"13", "depreciation and section 179"},
	"totalExpenses_line28":  {"28", "total expenses"},
	"netProfit_line31":      {"31", "net profit or (loss)", "net profit"},

	// Corporate and partnership returns (1120 / 1120S / 1065)
	"grossReceipts_1a":        {"1a", "gross receipts or sales"},
	"returnsAllowances_1b":    {"1b", "returns and allowances"},
	"balanceAfterReturns_1c":  {"1c", "balance", "balance. subtract line 1b from line 1a"},
	"cogs_line2":              {"2", "cost of goods sold"},
	"grossProfit_line3":       {"3", "gross profit"},
	"totalIncome_line11":      {"11", "total income"},
	"totalDeductions_line27":  {"27", "total deductions"},
	"taxableIncomeBeforeNOL_line28": {"28", "taxable income before net operating loss"},
	"taxableIncome_line30":    {"30", "taxable income"},
	"totalIncome_line6":       {"6", "total income (loss)", "total income"},
	"totalDeductions_line20":  {"20", "total deductions"},
	"ordinaryBusinessIncome_line21": {"21", "ordinary business income (loss)", "ordinary business income"},
	"totalIncome_line8":       {"8", "total income (loss)", "total income"},
	"totalDeductions_line21":  {"21", "total deductions"},
	"ordinaryBusinessIncome_line22": {"22", "ordinary business income (loss)", "ordinary business income"},

	// Schedule K-1
	"ordinaryIncome_box1":   {"1", "ordinary business income (loss)"},
	"rentalIncome_box2":     {"2", "net rental real estate income"},
	"distributions_box19":   {"19", "distributions"},
}

// fuzzyRow pairs the phrases an OCR key may contain with the tokens the
// structured field name may contain. Used for non-tax documents where there
// is no line-number dictionary.
type fuzzyRow struct {
	ocrPhrases  []string
	fieldTokens []string
}

var fuzzyRows = []fuzzyRow{
	// Bank statements
	{[]string{"beginning balance", "opening balance", "previous balance"},
		[]string{"beginningbalance", "openingbalance"}},
	{[]string{"ending balance", "closing balance", "new balance"},
		[]string{"endingbalance", "closingbalance"}},
	{[]string{"total deposits", "deposits and credits", "deposits and additions"},
		[]string{"totaldeposits"}},
	{[]string{"total withdrawals", "withdrawals and debits", "total debits", "withdrawals and subtractions"},
		[]string{"totalwithdrawals"}},
	{[]string{"deposit"}, []string{"deposits", "amount"}},

	// P&L
	{[]string{"net revenue", "total revenue", "gross revenue", "total sales", "net sales"},
		[]string{"revenue", "netrevenue", "totalrevenue", "grossrevenue"}},
	{[]string{"cost of goods sold", "cogs", "cost of sales"},
		[]string{"cogs", "costofgoodssold"}},
	{[]string{"gross profit"}, []string{"grossprofit"}},
	{[]string{"operating expenses", "total operating expenses"},
		[]string{"operatingexpenses", "totalexpenses"}},
	{[]string{"operating income", "income from operations"},
		[]string{"operatingincome"}},
	{[]string{"net income", "net profit", "net earnings"},
		[]string{"netincome", "netprofit", "adjustednetincome"}},
	{[]string{"depreciation"}, []string{"depreciation"}},
	{[]string{"amortization"}, []string{"amortization"}},
	{[]string{"interest expense", "interest"}, []string{"interest"}},
	{[]string{"officer compensation", "owner compensation", "officers compensation"},
		[]string{"ownercompensation", "officercompensation"}},

	// Balance sheet
	{[]string{"total current assets"}, []string{"totalcurrentassets"}},
	{[]string{"total assets"}, []string{"totalassets"}},
	{[]string{"total current liabilities"}, []string{"totalcurrentliabilities"}},
	{[]string{"total long-term liabilities", "total long term liabilities"},
		[]string{"totallongtermliabilities"}},
	{[]string{"total liabilities and equity", "total liabilities and stockholders equity",
		"total liabilities and shareholders equity"},
		[]string{"totalliabilitiesandequity"}},
	{[]string{"total liabilities"}, []string{"totalliabilities"}},
	{[]string{"total equity", "stockholders equity", "shareholders equity", "owners equity", "net worth"},
		[]string{"totalequity", "equity"}},
	{[]string{"accumulated depreciation"}, []string{"accumulateddepreciation"}},
	{[]string{"property and equipment", "property, plant and equipment", "fixed assets"},
		[]string{"propertyequipment", "netfixedassets", "fixedassets"}},

	// Rent roll
	{[]string{"total monthly rent", "monthly rent total"}, []string{"totalmonthlyrent"}},
	{[]string{"total annual rent", "annual rent"}, []string{"totalannualrent"}},
	{[]string{"monthly rent", "rent"}, []string{"monthlyrent"}},
	{[]string{"occupancy"}, []string{"occupancyrate", "occupiedunits"}},
	{[]string{"total units", "number of units"}, []string{"totalunits"}},
}

package model

// RiskRating is the four-bucket rating produced by upstream credit analysis.
type RiskRating string

const (
	RiskLow      RiskRating = "low"
	RiskModerate RiskRating = "moderate"
	RiskElevated RiskRating = "elevated"
	RiskHigh     RiskRating = "high"
)

// FlagSeverity orders risk flags for presentation.
type FlagSeverity string

const (
	FlagCritical FlagSeverity = "critical"
	FlagHigh     FlagSeverity = "high"
	FlagMedium   FlagSeverity = "medium"
	FlagModerate FlagSeverity = "moderate"
	FlagLow      FlagSeverity = "low"
	FlagInfo     FlagSeverity = "info"
)

// RiskFlag is a single qualitative finding from the credit analysis.
type RiskFlag struct {
	Severity       FlagSeverity `json:"severity"`
	Title          string       `json:"title"`
	Category       string       `json:"category"`
	Description    string       `json:"description"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// AnalysisSummary carries the headline figures the rules engine consumes.
// GlobalDSCR and BackEndDTI are nil when the underlying data was not
// available, which is distinct from zero.
type AnalysisSummary struct {
	QualifyingIncome float64    `json:"qualifying_income"`
	GlobalDSCR       *float64   `json:"global_dscr"`
	BackEndDTI       *float64   `json:"back_end_dti"`
	MonthsOfReserves float64    `json:"months_of_reserves"`
	RiskRating       RiskRating `json:"risk_rating"`
}

// IncomeSource is one income stream feeding qualifying income.
type IncomeSource struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	AnnualAmount  float64 `json:"annual_amount"`
	MonthlyAmount float64 `json:"monthly_amount"`
	Verified      bool    `json:"verified"`
}

// IncomeReport details the income side of the analysis.
type IncomeReport struct {
	Sources      []IncomeSource `json:"sources"`
	TotalAnnual  float64        `json:"total_annual"`
	TotalMonthly float64        `json:"total_monthly"`
	Trend        string         `json:"trend,omitempty"`
	Rating       string         `json:"rating,omitempty"`
	Notes        []string       `json:"notes,omitempty"`
}

// DSCRReport details debt service coverage.
type DSCRReport struct {
	NetOperatingIncome float64  `json:"net_operating_income"`
	AnnualDebtService  float64  `json:"annual_debt_service"`
	DSCR               float64  `json:"dscr"`
	Rating             string   `json:"rating,omitempty"`
	Notes              []string `json:"notes,omitempty"`
}

// DebtItem is one recurring obligation counted in DTI.
type DebtItem struct {
	Name           string  `json:"name"`
	MonthlyPayment float64 `json:"monthly_payment"`
	Balance        float64 `json:"balance,omitempty"`
}

// DTIReport details the debt-to-income computation.
type DTIReport struct {
	DebtItems          []DebtItem `json:"debt_items"`
	TotalMonthlyDebt   float64    `json:"total_monthly_debt"`
	GrossMonthlyIncome float64    `json:"gross_monthly_income"`
	BackEndRatio       float64    `json:"back_end_ratio"`
	Rating             string     `json:"rating,omitempty"`
	Notes              []string   `json:"notes,omitempty"`
}

// LiquidityReport details reserves.
type LiquidityReport struct {
	LiquidAssets     float64  `json:"liquid_assets"`
	MonthsOfReserves float64  `json:"months_of_reserves"`
	Rating           string   `json:"rating,omitempty"`
	Notes            []string `json:"notes,omitempty"`
}

// LargeDeposit is a deposit flagged for sourcing during cash flow review.
type LargeDeposit struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// CashFlowReport summarizes bank statement activity.
type CashFlowReport struct {
	AvgMonthlyDeposits    float64        `json:"avg_monthly_deposits"`
	AvgMonthlyWithdrawals float64        `json:"avg_monthly_withdrawals"`
	NetMonthlyCashFlow    float64        `json:"net_monthly_cash_flow"`
	NSFCount              int            `json:"nsf_count"`
	LargeDeposits         []LargeDeposit `json:"large_deposits,omitempty"`
	Rating                string         `json:"rating,omitempty"`
	Notes                 []string       `json:"notes,omitempty"`
}

// YearRevenue is one fiscal year of business performance.
type YearRevenue struct {
	Year      int     `json:"year"`
	Revenue   float64 `json:"revenue"`
	NetIncome float64 `json:"net_income"`
}

// BusinessReport summarizes business financials; nil for consumer deals.
type BusinessReport struct {
	LegalName       string        `json:"legal_name,omitempty"`
	EntityType      string        `json:"entity_type,omitempty"`
	YearsInBusiness float64       `json:"years_in_business,omitempty"`
	RevenueByYear   []YearRevenue `json:"revenue_by_year"`
	RevenueGrowth   float64       `json:"revenue_growth,omitempty"`
	NetMargin       float64       `json:"net_margin,omitempty"`
	Rating          string        `json:"rating,omitempty"`
	Notes           []string      `json:"notes,omitempty"`
}

// Analysis is the upstream credit analysis consumed by structuring and the
// credit memo. Sub-reports are optional; Summary and RiskScore always exist.
type Analysis struct {
	Summary   AnalysisSummary  `json:"summary"`
	RiskScore float64          `json:"risk_score"`
	RiskFlags []RiskFlag       `json:"risk_flags,omitempty"`
	Income    *IncomeReport    `json:"income,omitempty"`
	DSCR      *DSCRReport      `json:"dscr,omitempty"`
	DTI       *DTIReport       `json:"dti,omitempty"`
	Liquidity *LiquidityReport `json:"liquidity,omitempty"`
	CashFlow  *CashFlowReport  `json:"cash_flow,omitempty"`
	Business  *BusinessReport  `json:"business,omitempty"`
}

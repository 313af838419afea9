package model

import "time"

// CovenantSource records where a covenant on a structured deal came from.
type CovenantSource string

const (
	CovenantProgramStandard CovenantSource = "program_standard"
)

// Covenant is one ongoing borrower obligation attached to the deal.
type Covenant struct {
	Description string         `json:"description"`
	Source      CovenantSource `json:"source"`
}

// EligibilityResult accumulates rule failures and warnings. Failures never
// throw; they ride the normal output path into decline reasons.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Failures []string `json:"failures,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Rate is the priced rate decomposition. TotalRate must equal
// BaseRateValue + Spread to within a basis point at all times.
type Rate struct {
	BaseRateType  BaseRateKind `json:"base_rate_type"`
	BaseRateValue float64      `json:"base_rate_value"`
	Spread        float64      `json:"spread"`
	TotalRate     float64      `json:"total_rate"`
}

// AppliedFee is a program fee resolved to a dollar amount for this deal.
type AppliedFee struct {
	Name        string  `json:"name"`
	Type        FeeType `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// RulesEngineOutput is the complete numeric term sheet. Every number on a
// deal originates here and is re-derived independently by the final check.
type RulesEngineOutput struct {
	Eligibility        EligibilityResult `json:"eligibility"`
	ApprovedAmount     float64           `json:"approved_amount"`
	LTV                *float64          `json:"ltv"`
	Rate               Rate              `json:"rate"`
	TermMonths         int               `json:"term_months"`
	AmortizationMonths int               `json:"amortization_months"`
	MonthlyPayment     float64           `json:"monthly_payment"`
	InterestOnly       bool              `json:"interest_only"`
	PrepaymentPenalty  string            `json:"prepayment_penalty,omitempty"`
	PersonalGuaranty   bool              `json:"personal_guaranty"`
	RequiresAppraisal  bool              `json:"requires_appraisal"`
	Covenants          []Covenant        `json:"covenants"`
	Conditions         []string          `json:"conditions"`
	Fees               []AppliedFee      `json:"fees"`
	TotalFees          float64           `json:"total_fees"`

	ProjectedDSCR *float64 `json:"projected_dscr_with_proposed_payment"`
}

// AiEnhancement is the narrative layer's entire contribution: prose only.
// It carries no numeric fields so the enhancer cannot move a deal term even
// in principle.
type AiEnhancement struct {
	CustomCovenants      []string `json:"custom_covenants"`
	AdditionalConditions []string `json:"additional_conditions"`
	SpecialTerms         []string `json:"special_terms"`
	Justification        string   `json:"justification"`
}

// EmptyEnhancement is the degraded result used when the narrative generator
// is unavailable. Not an error; the pipeline continues.
func EmptyEnhancement() *AiEnhancement {
	return &AiEnhancement{
		CustomCovenants:      []string{},
		AdditionalConditions: []string{},
		SpecialTerms:         []string{},
		Justification:        "unavailable - rules engine only",
	}
}

// ComplianceSeverity ranks compliance issues. Only critical issues make a
// deal non-compliant.
type ComplianceSeverity string

const (
	ComplianceCritical ComplianceSeverity = "critical"
	ComplianceWarning  ComplianceSeverity = "warning"
	ComplianceInfo     ComplianceSeverity = "info"
)

// ComplianceIssue is a single regulatory finding.
type ComplianceIssue struct {
	Severity       ComplianceSeverity `json:"severity"`
	Regulation     string             `json:"regulation"`
	Description    string             `json:"description"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// ComplianceResult merges the deterministic checks and the external
// narrative review. Compliant is false iff any issue is critical.
type ComplianceResult struct {
	Compliant           bool              `json:"compliant"`
	Issues              []ComplianceIssue `json:"issues"`
	DeterministicChecks []string          `json:"deterministic_checks"`
	AIReviewIssues      []ComplianceIssue `json:"ai_review_issues"`
	ReviewedAt          time.Time         `json:"reviewed_at"`
}

// FinalCheckSeverity ranks final-check findings; only errors block.
type FinalCheckSeverity string

const (
	FinalCheckError   FinalCheckSeverity = "error"
	FinalCheckWarning FinalCheckSeverity = "warning"
)

// FinalCheckIssue records one discrepancy between the stored term sheet and
// an independent re-derivation.
type FinalCheckIssue struct {
	Field    string             `json:"field"`
	Expected float64            `json:"expected"`
	Actual   float64            `json:"actual"`
	Severity FinalCheckSeverity `json:"severity"`
	Message  string             `json:"message"`
}

// FinalCheckResult is the outcome of the pure-math re-derivation.
type FinalCheckResult struct {
	Passed bool              `json:"passed"`
	Issues []FinalCheckIssue `json:"issues"`
}

// Errors returns only the error-severity issues.
func (r *FinalCheckResult) Errors() []FinalCheckIssue {
	var out []FinalCheckIssue
	for _, is := range r.Issues {
		if is.Severity == FinalCheckError {
			out = append(out, is)
		}
	}
	return out
}

// Warnings returns only the warning-severity issues.
func (r *FinalCheckResult) Warnings() []FinalCheckIssue {
	var out []FinalCheckIssue
	for _, is := range r.Issues {
		if is.Severity == FinalCheckWarning {
			out = append(out, is)
		}
	}
	return out
}

// DealStatus is the terminal status of a structuring run. The pipeline never
// auto-declines; anything questionable lands in needs_review for a human.
type DealStatus string

const (
	DealStatusDraft       DealStatus = "draft"
	DealStatusApproved    DealStatus = "approved"
	DealStatusNeedsReview DealStatus = "needs_review"
)

// StructureDealInput carries everything the structuring pipeline needs for
// one deal. Optional request overrides are pointers so absence is distinct
// from zero.
type StructureDealInput struct {
	Analysis *Analysis    `json:"analysis"`
	Program  *LoanProgram `json:"program"`

	BorrowerName    string `json:"borrower_name"`
	LoanPurpose     string `json:"loan_purpose,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`

	RequestedAmount     float64  `json:"requested_amount"`
	RequestedRate       *float64 `json:"requested_rate,omitempty"`
	RequestedTermMonths *int     `json:"requested_term_months,omitempty"`
	PropertyValue       *float64 `json:"property_value,omitempty"`
	CollateralValue     *float64 `json:"collateral_value,omitempty"`
	StateAbbr           string   `json:"state_abbr,omitempty"`
}

// StructureDealOutput is the full structuring artifact: the deterministic
// term sheet, the narrative enhancement, compliance review, final check,
// and the assembled status.
type StructureDealOutput struct {
	Rules          *RulesEngineOutput `json:"rules"`
	Enhancement    *AiEnhancement     `json:"enhancement"`
	Compliance     *ComplianceResult  `json:"compliance"`
	FinalCheck     *FinalCheckResult  `json:"final_check"`
	Status         DealStatus         `json:"status"`
	DeclineReasons []string           `json:"decline_reasons"`
}

// Deal is the persistence entity wrapping a borrower request and, once
// structured, its output.
type Deal struct {
	ID              string               `json:"id"`
	BorrowerName    string               `json:"borrower_name"`
	ProgramID       string               `json:"program_id"`
	RequestedAmount float64              `json:"requested_amount"`
	Status          DealStatus           `json:"status"`
	Structure       *StructureDealOutput `json:"structure,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

package model

// BaseRateKind selects the index a program prices over.
type BaseRateKind string

const (
	BaseRatePrime    BaseRateKind = "prime"
	BaseRateSOFR     BaseRateKind = "sofr"
	BaseRateTreasury BaseRateKind = "treasury"
)

// ProgramCategory groups programs for presentation and compliance scoping.
type ProgramCategory string

const (
	CategoryCommercial  ProgramCategory = "commercial"
	CategoryResidential ProgramCategory = "residential"
	CategorySpecialty   ProgramCategory = "specialty"
)

// FeeType distinguishes flat-dollar fees from percent-of-loan fees.
type FeeType string

const (
	FeeFlat    FeeType = "flat"
	FeePercent FeeType = "percent"
)

// Fee is a standard fee as defined on a program. Value is dollars for flat
// fees and a fraction of the approved amount for percent fees.
type Fee struct {
	Name        string  `json:"name"`
	Type        FeeType `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// DocRequirement names a document type a program needs and how many years
// of history it wants (0 means most recent only).
type DocRequirement struct {
	DocType DocType `json:"doc_type"`
	Years   int     `json:"years,omitempty"`
}

// StructuringRules holds every numeric lever the rules engine may use for a
// program. A zero MinDSCR or MaxDTI disables that eligibility gate.
// MaxLoanAmount nil means uncapped.
type StructuringRules struct {
	MaxLTV            float64      `json:"max_ltv"`
	MinDSCR           float64      `json:"min_dscr"`
	MaxDTI            float64      `json:"max_dti"`
	BaseRate          BaseRateKind `json:"base_rate"`
	SpreadRange       [2]float64   `json:"spread_range"`
	MaxTermMonths     int          `json:"max_term_months"`
	MaxAmortization   int          `json:"max_amortization_months"`
	MinLoanAmount     float64      `json:"min_loan_amount"`
	MaxLoanAmount     *float64     `json:"max_loan_amount"`
	PrepaymentPenalty string       `json:"prepayment_penalty,omitempty"`
	RequiresAppraisal bool         `json:"requires_appraisal"`
	PersonalGuaranty  bool         `json:"personal_guaranty"`
	CollateralTypes   []string     `json:"collateral_types,omitempty"`
	InterestOnly      bool         `json:"interest_only"`
}

// LoanProgram is one immutable catalog entry. Programs are the only place
// numerical deal parameters originate.
type LoanProgram struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    ProgramCategory `json:"category"`

	RequiredDocuments []DocRequirement `json:"required_documents"`
	OptionalDocuments []DocRequirement `json:"optional_documents,omitempty"`

	Rules StructuringRules `json:"structuring_rules"`

	ApplicableRegulations []string          `json:"applicable_regulations,omitempty"`
	StateSpecificRules    map[string]string `json:"state_specific_rules,omitempty"`

	StandardCovenants []string `json:"standard_covenants,omitempty"`
	StandardFees      []Fee    `json:"standard_fees,omitempty"`

	RequiredOutputDocs []string `json:"required_output_docs,omitempty"`
	ComplianceChecks   []string `json:"compliance_checks,omitempty"`

	LateFeePercent   float64 `json:"late_fee_percent"`
	LateFeeGraceDays int     `json:"late_fee_grace_days"`
}

// MinSpread returns the low end of the program's spread range.
func (p *LoanProgram) MinSpread() float64 { return p.Rules.SpreadRange[0] }

// MaxSpread returns the high end of the program's spread range.
func (p *LoanProgram) MaxSpread() float64 { return p.Rules.SpreadRange[1] }

// HasRegulation reports whether the program lists the named regulation.
func (p *LoanProgram) HasRegulation(name string) bool {
	for _, r := range p.ApplicableRegulations {
		if r == name {
			return true
		}
	}
	return false
}

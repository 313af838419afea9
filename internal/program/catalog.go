// Package program holds the closed loan program catalog. The catalog is the
// only place numerical deal parameters originate; everything downstream
// reads it and nothing writes it.
package program

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/meridianlending/underwrite/internal/model"
)

// Canonical program ids.
const (
	SBA7a                = "sba_7a"
	SBA504               = "sba_504"
	CommercialCRE        = "commercial_cre"
	DSCR                 = "dscr"
	BankStatement        = "bank_statement"
	ConventionalBusiness = "conventional_business"
	LineOfCredit         = "line_of_credit"
	EquipmentFinancing   = "equipment_financing"
	Bridge               = "bridge"
	CryptoCollateral     = "crypto_collateral"
)

func limit(v float64) *float64 { return &v }

var catalog = map[string]*model.LoanProgram{
	SBA7a: {
		ID:          SBA7a,
		Name:        "SBA 7(a)",
		Description: "General-purpose SBA-guaranteed small business term loan.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeForm1040, Years: 2},
			{DocType: model.DocTypeProfitAndLoss, Years: 1},
			{DocType: model.DocTypeBalanceSheet, Years: 1},
			{DocType: model.DocTypeBankStatementChecking},
		},
		OptionalDocuments: []model.DocRequirement{
			{DocType: model.DocTypeForm1120S, Years: 3},
			{DocType: model.DocTypeForm1065, Years: 3},
			{DocType: model.DocTypeScheduleK1, Years: 2},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.90,
			MinDSCR:           1.15,
			BaseRate:          model.BaseRatePrime,
			SpreadRange:       [2]float64{0.0, 0.03},
			MaxTermMonths:     300,
			MaxAmortization:   300,
			MinLoanAmount:     25000,
			MaxLoanAmount:     limit(5000000),
			PrepaymentPenalty: "5-3-1 declining, terms of 15 years or longer",
			RequiresAppraisal: true,
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"real_estate", "equipment", "inventory", "accounts_receivable"},
		},
		ApplicableRegulations: []string{"SBA SOP 50 10", "ECOA", "BSA/AML"},
		StandardCovenants: []string{
			"Maintain minimum debt service coverage of 1.15x, measured annually",
			"Provide annual business and personal tax returns within 120 days of fiscal year end",
			"Maintain hazard insurance on all pledged collateral",
			"No additional indebtedness without prior lender consent",
		},
		StandardFees: []model.Fee{
			{Name: "SBA Guaranty Fee", Type: model.FeePercent, Value: 0.035, Description: "SBA guaranty fee on the guaranteed portion"},
			{Name: "Packaging Fee", Type: model.FeeFlat, Value: 2500, Description: "Loan packaging and submission"},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "sba_authorization", "personal_guaranty", "security_agreement"},
		ComplianceChecks:   []string{"state_usury", "sba_7a_caps", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   10,
	},
	SBA504: {
		ID:          SBA504,
		Name:        "SBA 504",
		Description: "Fixed-asset financing through a certified development company debenture.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeForm1120, Years: 3},
			{DocType: model.DocTypeBalanceSheet, Years: 2},
			{DocType: model.DocTypeProfitAndLoss, Years: 2},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.90,
			MinDSCR:           1.25,
			BaseRate:          model.BaseRateTreasury,
			SpreadRange:       [2]float64{0.015, 0.03},
			MaxTermMonths:     300,
			MaxAmortization:   300,
			MinLoanAmount:     125000,
			MaxLoanAmount:     limit(5000000),
			RequiresAppraisal: true,
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"real_estate", "equipment"},
		},
		ApplicableRegulations: []string{"SBA SOP 50 10", "ECOA"},
		StandardCovenants: []string{
			"Occupy at least 51% of the financed property",
			"Maintain minimum debt service coverage of 1.25x, measured annually",
			"Provide annual financial statements within 120 days of fiscal year end",
		},
		StandardFees: []model.Fee{
			{Name: "CDC Processing Fee", Type: model.FeePercent, Value: 0.015, Description: "Certified development company processing"},
			{Name: "Funding Fee", Type: model.FeeFlat, Value: 2500},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "sba_authorization", "deed_of_trust"},
		ComplianceChecks:   []string{"state_usury", "sba_504_cap", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   15,
	},
	CommercialCRE: {
		ID:          CommercialCRE,
		Name:        "Commercial Real Estate",
		Description: "Permanent financing for stabilized income-producing commercial property.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeRentRoll},
			{DocType: model.DocTypeProfitAndLoss, Years: 2},
			{DocType: model.DocTypeForm1065, Years: 2},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.75,
			MinDSCR:           1.25,
			BaseRate:          model.BaseRateSOFR,
			SpreadRange:       [2]float64{0.0225, 0.045},
			MaxTermMonths:     120,
			MaxAmortization:   300,
			MinLoanAmount:     250000,
			MaxLoanAmount:     limit(10000000),
			PrepaymentPenalty: "3-2-1 step-down",
			RequiresAppraisal: true,
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"commercial_real_estate"},
		},
		ApplicableRegulations: []string{"ECOA", "FIRREA"},
		StandardCovenants: []string{
			"Maintain minimum debt service coverage of 1.25x, tested quarterly",
			"Deliver updated rent roll within 30 days of each quarter end",
			"Maintain property and liability insurance naming lender as mortgagee",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.01},
			{Name: "Appraisal Fee", Type: model.FeeFlat, Value: 4500},
			{Name: "Environmental Review", Type: model.FeeFlat, Value: 1800},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "mortgage", "assignment_of_leases"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   10,
	},
	DSCR: {
		ID:          DSCR,
		Name:        "DSCR Investor",
		Description: "Residential investment property loan qualified on property cash flow.",
		Category:    model.CategoryResidential,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeRentRoll},
			{DocType: model.DocTypeBankStatementChecking},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.80,
			MinDSCR:           1.10,
			BaseRate:          model.BaseRateTreasury,
			SpreadRange:       [2]float64{0.0275, 0.0525},
			MaxTermMonths:     360,
			MaxAmortization:   360,
			MinLoanAmount:     100000,
			MaxLoanAmount:     limit(3000000),
			PrepaymentPenalty: "3-year step-down",
			RequiresAppraisal: true,
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"residential_investment_property"},
		},
		ApplicableRegulations: []string{"ECOA", "Fair Housing Act", "Dodd-Frank Act"},
		StandardCovenants: []string{
			"Maintain property in rentable condition",
			"Provide annual operating statement for the subject property",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.0125},
			{Name: "Underwriting Fee", Type: model.FeeFlat, Value: 1495},
		},
		RequiredOutputDocs: []string{"promissory_note", "deed_of_trust", "assignment_of_rents"},
		ComplianceChecks:   []string{"state_usury", "tila_apr", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   15,
	},
	BankStatement: {
		ID:          BankStatement,
		Name:        "Bank Statement",
		Description: "Self-employed residential loan qualified on deposit history instead of tax returns.",
		Category:    model.CategoryResidential,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeBankStatementChecking, Years: 1},
			{DocType: model.DocTypeForm1040, Years: 1},
		},
		OptionalDocuments: []model.DocRequirement{
			{DocType: model.DocTypeBankStatementSavings, Years: 1},
			{DocType: model.DocTypeProfitAndLoss, Years: 1},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.80,
			MaxDTI:            0.50,
			BaseRate:          model.BaseRateSOFR,
			SpreadRange:       [2]float64{0.03, 0.06},
			MaxTermMonths:     360,
			MaxAmortization:   360,
			MinLoanAmount:     150000,
			MaxLoanAmount:     limit(3500000),
			RequiresAppraisal: true,
			CollateralTypes:   []string{"residential_property"},
		},
		ApplicableRegulations: []string{"TILA", "ECOA", "Dodd-Frank Act"},
		StandardCovenants: []string{
			"Maintain primary operating account through loan servicing",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.015},
			{Name: "Processing Fee", Type: model.FeeFlat, Value: 995},
		},
		RequiredOutputDocs: []string{"promissory_note", "deed_of_trust", "tila_disclosures"},
		ComplianceChecks:   []string{"state_usury", "tila_apr", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   15,
	},
	ConventionalBusiness: {
		ID:          ConventionalBusiness,
		Name:        "Conventional Business Term Loan",
		Description: "Unguaranteed term loan for established operating companies.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeForm1120, Years: 2},
			{DocType: model.DocTypeProfitAndLoss, Years: 2},
			{DocType: model.DocTypeBalanceSheet, Years: 2},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.80,
			MinDSCR:           1.20,
			BaseRate:          model.BaseRatePrime,
			SpreadRange:       [2]float64{0.01, 0.04},
			MaxTermMonths:     84,
			MaxAmortization:   120,
			MinLoanAmount:     100000,
			MaxLoanAmount:     limit(5000000),
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"all_business_assets"},
		},
		ApplicableRegulations: []string{"ECOA", "BSA/AML"},
		StandardCovenants: []string{
			"Maintain minimum debt service coverage of 1.20x, tested annually",
			"Deliver CPA-reviewed financial statements within 90 days of fiscal year end",
			"No change of control without lender consent",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.01},
			{Name: "Documentation Fee", Type: model.FeeFlat, Value: 750},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "security_agreement"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   10,
	},
	LineOfCredit: {
		ID:          LineOfCredit,
		Name:        "Revolving Line of Credit",
		Description: "Working-capital revolver, interest-only with annual renewal.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeBankStatementChecking},
			{DocType: model.DocTypeProfitAndLoss, Years: 1},
			{DocType: model.DocTypeBalanceSheet, Years: 1},
		},
		Rules: model.StructuringRules{
			MinDSCR:           1.15,
			BaseRate:          model.BaseRatePrime,
			SpreadRange:       [2]float64{0.005, 0.0275},
			MaxTermMonths:     12,
			MaxAmortization:   0,
			MinLoanAmount:     50000,
			MaxLoanAmount:     limit(2000000),
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"accounts_receivable", "inventory"},
			InterestOnly:      true,
		},
		ApplicableRegulations: []string{"ECOA", "BSA/AML"},
		StandardCovenants: []string{
			"Maintain borrowing base coverage of at least 1.25x outstanding balance",
			"Deliver monthly accounts receivable aging within 15 days of month end",
			"Annual clean-down to zero balance for 30 consecutive days",
		},
		StandardFees: []model.Fee{
			{Name: "Annual Facility Fee", Type: model.FeePercent, Value: 0.005},
			{Name: "Documentation Fee", Type: model.FeeFlat, Value: 500},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "borrowing_base_certificate"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   5,
	},
	EquipmentFinancing: {
		ID:          EquipmentFinancing,
		Name:        "Equipment Financing",
		Description: "Purchase-money financing secured by the acquired equipment.",
		Category:    model.CategoryCommercial,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeProfitAndLoss, Years: 1},
			{DocType: model.DocTypeBankStatementChecking},
		},
		Rules: model.StructuringRules{
			MaxLTV:            1.0,
			MinDSCR:           1.15,
			BaseRate:          model.BaseRatePrime,
			SpreadRange:       [2]float64{0.0175, 0.045},
			MaxTermMonths:     84,
			MaxAmortization:   84,
			MinLoanAmount:     25000,
			MaxLoanAmount:     limit(1500000),
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"equipment"},
		},
		ApplicableRegulations: []string{"ECOA", "UCC Article 9"},
		StandardCovenants: []string{
			"Maintain the financed equipment in good working order",
			"Carry physical damage insurance on the financed equipment",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.02},
			{Name: "UCC Filing Fee", Type: model.FeeFlat, Value: 150},
		},
		RequiredOutputDocs: []string{"promissory_note", "security_agreement", "ucc_financing_statement"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   10,
	},
	Bridge: {
		ID:          Bridge,
		Name:        "Bridge",
		Description: "Short-term interest-only financing pending stabilization or sale.",
		Category:    model.CategorySpecialty,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeRentRoll},
			{DocType: model.DocTypeBalanceSheet, Years: 1},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.70,
			BaseRate:          model.BaseRateSOFR,
			SpreadRange:       [2]float64{0.045, 0.08},
			MaxTermMonths:     24,
			MaxAmortization:   0,
			MinLoanAmount:     500000,
			MaxLoanAmount:     limit(20000000),
			PrepaymentPenalty: "6-month minimum interest",
			RequiresAppraisal: true,
			PersonalGuaranty:  true,
			CollateralTypes:   []string{"commercial_real_estate"},
			InterestOnly:      true,
		},
		ApplicableRegulations: []string{"ECOA"},
		StandardCovenants: []string{
			"Deliver monthly progress reports against the stabilization plan",
			"Maintain an interest reserve equal to six months of payments",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.02},
			{Name: "Exit Fee", Type: model.FeePercent, Value: 0.01},
		},
		RequiredOutputDocs: []string{"promissory_note", "loan_agreement", "mortgage"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   5,
	},
	CryptoCollateral: {
		ID:          CryptoCollateral,
		Name:        "Crypto Collateral",
		Description: "Cash loan secured by custodied digital assets with margin maintenance.",
		Category:    model.CategorySpecialty,
		RequiredDocuments: []model.DocRequirement{
			{DocType: model.DocTypeBankStatementChecking},
		},
		Rules: model.StructuringRules{
			MaxLTV:            0.50,
			BaseRate:          model.BaseRateSOFR,
			SpreadRange:       [2]float64{0.05, 0.09},
			MaxTermMonths:     36,
			MaxAmortization:   0,
			MinLoanAmount:     100000,
			MaxLoanAmount:     limit(5000000),
			CollateralTypes:   []string{"digital_assets"},
			InterestOnly:      true,
		},
		ApplicableRegulations: []string{"ECOA", "BSA/AML", "OFAC"},
		StandardCovenants: []string{
			"Maintain collateral coverage of at least 200% of outstanding principal",
			"Margin call at 65% loan-to-value; liquidation threshold at 80%",
			"Collateral remains with the qualified custodian for the life of the loan",
		},
		StandardFees: []model.Fee{
			{Name: "Origination Fee", Type: model.FeePercent, Value: 0.015},
			{Name: "Custody Setup Fee", Type: model.FeeFlat, Value: 1000},
		},
		RequiredOutputDocs: []string{"promissory_note", "pledge_agreement", "custody_agreement"},
		ComplianceChecks:   []string{"state_usury", "ecoa"},
		LateFeePercent:     0.05,
		LateFeeGraceDays:   5,
	},
}

// Get returns the program for a canonical id.
func Get(id string) (*model.LoanProgram, error) {
	p, ok := catalog[id]
	if !ok {
		return nil, eris.Errorf("program: unknown program %q", id)
	}
	return p, nil
}

// List returns every program ordered by id. Callers must treat the returned
// programs as read-only.
func List() []*model.LoanProgram {
	out := make([]*model.LoanProgram, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted canonical id set.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

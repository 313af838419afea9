package memo

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/model"
)

func fptr(v float64) *float64 { return &v }

func sampleAnalysis() *model.Analysis {
	return &model.Analysis{
		Summary: model.AnalysisSummary{
			QualifyingIncome: 420000,
			GlobalDSCR:       fptr(1.42),
			BackEndDTI:       fptr(0.38),
			MonthsOfReserves: 8.5,
			RiskRating:       model.RiskModerate,
		},
		RiskScore: 42,
		RiskFlags: []model.RiskFlag{
			{Severity: model.FlagLow, Title: "Seasonal revenue concentration", Category: "income",
				Description: "Q4 revenue is 40% of annual total."},
			{Severity: model.FlagCritical, Title: "Undisclosed tax lien", Category: "credit",
				Description: "State tax lien of $18,000 filed 2024.", Recommendation: "Obtain payoff letter before closing."},
			{Severity: model.FlagHigh, Title: "Declining margins", Category: "business",
				Description: "Net margin fell from 12% to 7% over two years."},
		},
		Income: &model.IncomeReport{
			Sources: []model.IncomeSource{
				{Name: "Acme Manufacturing LLC", Type: "business", AnnualAmount: 380000, MonthlyAmount: 31666.67, Verified: true},
				{Name: "Rental property", Type: "rental", AnnualAmount: 40000, MonthlyAmount: 3333.33, Verified: false},
			},
			TotalAnnual:  420000,
			TotalMonthly: 35000,
			Trend:        "increasing",
			Rating:       "strong",
			Notes:        []string{"Business income verified against two years of returns."},
		},
		DSCR: &model.DSCRReport{
			NetOperatingIncome: 420000,
			AnnualDebtService:  295000,
			DSCR:               1.42,
			Rating:             "strong",
		},
		DTI: &model.DTIReport{
			DebtItems: []model.DebtItem{
				{Name: "Commercial mortgage", MonthlyPayment: 8200, Balance: 1150000},
				{Name: "Equipment loan", MonthlyPayment: 2100, Balance: 84000},
			},
			TotalMonthlyDebt:   13300,
			GrossMonthlyIncome: 35000,
			BackEndRatio:       0.38,
			Rating:             "acceptable",
		},
		Liquidity: &model.LiquidityReport{
			LiquidAssets:     297500,
			MonthsOfReserves: 8.5,
			Rating:           "strong",
		},
		CashFlow: &model.CashFlowReport{
			AvgMonthlyDeposits:    105000,
			AvgMonthlyWithdrawals: 88000,
			NetMonthlyCashFlow:    17000,
			NSFCount:              1,
			LargeDeposits: []model.LargeDeposit{
				{Date: "2025-11-14", Amount: 45000, Description: "Equipment sale proceeds"},
			},
			Rating: "good",
		},
		Business: &model.BusinessReport{
			LegalName:       "Acme Manufacturing LLC",
			EntityType:      "LLC",
			YearsInBusiness: 12,
			RevenueByYear: []model.YearRevenue{
				{Year: 2023, Revenue: 2400000, NetIncome: 288000},
				{Year: 2024, Revenue: 2650000, NetIncome: 185500},
			},
			RevenueGrowth: 0.104,
			NetMargin:     0.07,
			Rating:        "adequate",
		},
	}
}

func sampleInput() Input {
	tv := 1250000.0
	return Input{
		BorrowerName:    "Acme Manufacturing LLC",
		LoanPurpose:     "Equipment purchase",
		RequestedAmount: 500000,
		AnalystName:     "J. Rivera",
		PreparedAt:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Analysis:        sampleAnalysis(),
		Verifications: []*model.VerificationResult{
			{
				DocType: model.DocTypeForm1120S,
				Comparisons: []model.Comparison{
					{FieldPath: "income.gross_receipts", StructuredValue: 1250000, TextractValue: &tv, Matched: true},
					{FieldPath: "income.total_income", StructuredValue: 1185000, Matched: false},
				},
				MathChecks: []model.MathCheck{
					{FieldPath: "income.total_income", Expected: 1185000, Actual: 1185000, Passed: true},
				},
			},
		},
		Documents: []model.Document{
			{FileName: "1120s_2024.pdf", DocType: model.DocTypeForm1120S, Year: 2024, Status: model.DocStatusVerified, FileSize: 2 << 20},
			{FileName: "checking_jan.pdf", DocType: model.DocTypeBankStatementChecking, Status: model.DocStatusExtracted, FileSize: 480 << 10},
		},
	}
}

func extractPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func TestBuildValidation(t *testing.T) {
	_, err := Build(Input{Analysis: sampleAnalysis()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "borrower name")

	_, err = Build(Input{BorrowerName: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis")
}

func TestBuildSectionOrder(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	sections := []string{
		"CREDIT MEMORANDUM",
		"Borrower Summary",
		"Executive Summary",
		"Financial Ratios",
		"Income Analysis",
		"Debt-to-Income Detail",
		"Cash Flow Analysis",
		"Business Analysis",
		"Risk Assessment",
		"Verification Summary",
		"Document Inventory",
		"Disclaimer",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(doc, s)
		require.GreaterOrEqual(t, idx, 0, "section %q missing", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestTitlePageContent(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	assert.Contains(t, doc, "Acme Manufacturing LLC")
	assert.Contains(t, doc, "Requested Amount: $500,000")
	assert.Contains(t, doc, "Purpose: Equipment purchase")
	assert.Contains(t, doc, "Prepared: March 14, 2026")
	assert.Contains(t, doc, "Analyst: J. Rivera")
	assert.Contains(t, doc, "MODERATE")
	assert.Contains(t, doc, "CONFIDENTIAL: PREPARED FOR INTERNAL CREDIT COMMITTEE USE ONLY")
	assert.Contains(t, doc, `<w:br w:type="page"/>`)
}

func TestHeaderFooterOnEveryPage(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)

	header := extractPart(t, data, "word/header1.xml")
	assert.Contains(t, header, "Acme Manufacturing LLC")
	assert.Contains(t, header, "CONFIDENTIAL")

	footer := extractPart(t, data, "word/footer1.xml")
	assert.Contains(t, footer, "CONFIDENTIAL")
	assert.Contains(t, footer, `<w:fldSimple w:instr=" PAGE ">`)
}

func TestRatingColoredCells(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	// "strong" fills green, "acceptable" amber, "adequate" amber.
	assert.Contains(t, doc, `w:fill="`+colorGreen+`"`)
	assert.Contains(t, doc, `w:fill="`+colorAmber+`"`)
}

func TestRiskFlagsSortedBySeverity(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	// Input order is low, critical, high; rendering must be critical,
	// high, low.
	critIdx := strings.Index(doc, "Undisclosed tax lien")
	highIdx := strings.Index(doc, "Declining margins")
	lowIdx := strings.Index(doc, "Seasonal revenue concentration")
	require.GreaterOrEqual(t, critIdx, 0)
	require.GreaterOrEqual(t, highIdx, 0)
	require.GreaterOrEqual(t, lowIdx, 0)
	assert.Less(t, critIdx, highIdx)
	assert.Less(t, highIdx, lowIdx)

	assert.Contains(t, doc, "CRITICAL")
	assert.Contains(t, doc, "Obtain payoff letter before closing.")
}

func TestBusinessSectionOmittedWhenAbsent(t *testing.T) {
	in := sampleInput()
	in.Analysis.Business = nil

	data, err := Build(in)
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	assert.NotContains(t, doc, "Business Analysis")
	assert.Contains(t, doc, "Risk Assessment")
}

func TestVerificationSummaryRates(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	// One of two comparisons matched, one of one checks passed.
	assert.Contains(t, doc, "1 of 2 fields reconciled (50%)")
	assert.Contains(t, doc, "1 of 1 arithmetic checks passed (100%)")
	assert.Contains(t, doc, "Form 1120s")
}

func TestDocumentInventory(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	doc := extractPart(t, data, "word/document.xml")

	assert.Contains(t, doc, "1120s_2024.pdf")
	assert.Contains(t, doc, "2.0 MB")
	assert.Contains(t, doc, "480.0 KB")
	assert.Contains(t, doc, "verified")
}

func TestDeterministicOutput(t *testing.T) {
	a, err := Build(sampleInput())
	require.NoError(t, err)
	b, err := Build(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRatingColorRules(t *testing.T) {
	cases := []struct {
		rating string
		want   string
	}{
		{"excellent", colorGreen},
		{"Strong", colorGreen},
		{"good", colorLightGreen},
		{"adequate", colorAmber},
		{"Acceptable", colorAmber},
		{"moderate", colorAmber},
		{"below average", colorOrange},
		{"marginal", colorOrange},
		{"weak", colorOrange},
		{"poor", colorRed},
		{"high risk", colorRed},
		{"critical", colorDarkRed},
		{"severe", colorDarkRed},
		{"unknown wording", colorSlate},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ratingColor(tc.rating), "rating %q", tc.rating)
	}
}

func TestSeverityOrderAndColor(t *testing.T) {
	assert.Less(t, severityRank(model.FlagCritical), severityRank(model.FlagHigh))
	assert.Less(t, severityRank(model.FlagHigh), severityRank(model.FlagMedium))
	assert.Equal(t, severityRank(model.FlagMedium), severityRank(model.FlagModerate))
	assert.Less(t, severityRank(model.FlagMedium), severityRank(model.FlagLow))
	assert.Less(t, severityRank(model.FlagLow), severityRank(model.FlagInfo))

	assert.Equal(t, colorDarkRed, severityColor(model.FlagCritical))
	assert.Equal(t, colorRed, severityColor(model.FlagHigh))
	assert.Equal(t, colorInfo, severityColor(model.FlagInfo))
}

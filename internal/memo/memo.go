// Package memo assembles the credit memorandum: a paginated,
// deterministically laid out docx report combining the upstream credit
// analysis, document verification results, and the deal's document
// inventory. Identical inputs produce identical bytes.
package memo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/meridianlending/underwrite/internal/docx"
	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

// Input carries everything the memo renders. Analysis is required;
// Verifications and Documents may be empty. PreparedAt is printed on the
// title page when set and never defaulted, so builds stay reproducible.
type Input struct {
	BorrowerName    string
	LoanPurpose     string
	RequestedAmount float64
	AnalystName     string
	PreparedAt      time.Time

	Analysis      *model.Analysis
	Verifications []*model.VerificationResult
	Documents     []model.Document
}

// Build renders the credit memorandum and returns the docx bytes. Section
// order is fixed; the business section is omitted when the analysis has no
// business report.
func Build(in Input) ([]byte, error) {
	if in.BorrowerName == "" {
		return nil, eris.New("memo: borrower name is required")
	}
	if in.Analysis == nil {
		return nil, eris.New("memo: analysis is required")
	}

	d := docx.New()
	addPageFurniture(d, in.BorrowerName)

	addTitlePage(d, in)
	addBorrowerSummary(d, in)
	addExecutiveSummary(d, in)
	addRatiosTable(d, in.Analysis)
	addIncomeSection(d, in.Analysis.Income)
	addDTISection(d, in.Analysis.DTI)
	addCashFlowSection(d, in.Analysis.CashFlow)
	if in.Analysis.Business != nil {
		addBusinessSection(d, in.Analysis.Business)
	}
	addRiskSection(d, in.Analysis)
	addVerificationSection(d, in.Verifications)
	addDocumentInventory(d, in.Documents)
	addDisclaimer(d)

	return d.Bytes()
}

// addPageFurniture sets the header and footer rendered on every page.
func addPageFurniture(d *docx.Document, borrower string) {
	hp := d.Header().AddParagraph().SetTabStops(docx.TabStop{Pos: docx.ContentWidth, Kind: "right"})
	hp.AddText(borrower).Color = colorSlate
	hp.AddTab()
	conf := hp.AddText("CONFIDENTIAL")
	conf.Bold = true
	conf.Color = colorRed

	fp := d.Footer().AddParagraph().SetTabStops(docx.TabStop{Pos: docx.ContentWidth, Kind: "right"})
	fc := fp.AddText("CONFIDENTIAL")
	fc.Color = colorSlate
	fc.Size = 18
	fp.AddTab()
	pg := fp.AddText("Page ")
	pg.Color = colorSlate
	pg.Size = 18
	fp.AddPageNumber()
}

func addTitlePage(d *docx.Document, in Input) {
	d.AddHeading(docx.StyleTitle, "CREDIT MEMORANDUM")

	name := d.AddParagraph().SetAlign(docx.AlignCenter).SetSpacing(240, 120)
	nr := name.AddText(in.BorrowerName)
	nr.Bold = true
	nr.Size = 36

	amount := d.AddParagraph().SetAlign(docx.AlignCenter)
	ar := amount.AddText("Requested Amount: " + money.FormatUSDWhole(in.RequestedAmount))
	ar.Size = 26

	if in.LoanPurpose != "" {
		d.AddParagraph().SetAlign(docx.AlignCenter).AddText("Purpose: " + in.LoanPurpose)
	}
	if !in.PreparedAt.IsZero() {
		d.AddParagraph().SetAlign(docx.AlignCenter).AddText("Prepared: " + in.PreparedAt.Format("January 2, 2006"))
	}
	if in.AnalystName != "" {
		d.AddParagraph().SetAlign(docx.AlignCenter).AddText("Analyst: " + in.AnalystName)
	}

	rating := in.Analysis.Summary.RiskRating
	rp := d.AddParagraph().SetAlign(docx.AlignCenter).SetSpacing(240, 240)
	rp.AddText("Risk Rating: ").Size = 28
	rr := rp.AddText(strings.ToUpper(string(rating)))
	rr.Bold = true
	rr.Size = 28
	rr.Color = riskRatingColor(rating)

	banner := d.AddParagraph().SetAlign(docx.AlignCenter).SetBorder(colorRed).SetShade(fillBanner).SetSpacing(480, 120)
	br := banner.AddText("CONFIDENTIAL: PREPARED FOR INTERNAL CREDIT COMMITTEE USE ONLY")
	br.Bold = true
	br.Color = colorRed

	d.AddPageBreak()
}

// labelRow appends a two-cell label/value row with the label cell shaded.
func labelRow(t *docx.Table, label, value string) {
	row := t.AddRow()
	row.AddTextF(label, func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	row.AddText(value)
}

func addBorrowerSummary(d *docx.Document, in Input) {
	d.AddHeading(docx.StyleHeading1, "Borrower Summary")

	sum := in.Analysis.Summary
	t := d.AddTable(3120, 6240)
	labelRow(t, "Borrower", in.BorrowerName)
	labelRow(t, "Requested Amount", money.FormatUSDWhole(in.RequestedAmount))
	if in.LoanPurpose != "" {
		labelRow(t, "Loan Purpose", in.LoanPurpose)
	}
	labelRow(t, "Qualifying Income (annual)", money.FormatUSD(sum.QualifyingIncome))
	labelRow(t, "Global DSCR", formatOptionalRatio(sum.GlobalDSCR))
	labelRow(t, "Back-End DTI", formatOptionalPercent(sum.BackEndDTI))
	labelRow(t, "Months of Reserves", fmt.Sprintf("%.1f", sum.MonthsOfReserves))
	labelRow(t, "Risk Rating", strings.ToUpper(string(sum.RiskRating)))
	labelRow(t, "Risk Score", fmt.Sprintf("%.0f / 100", in.Analysis.RiskScore))
}

func addExecutiveSummary(d *docx.Document, in Input) {
	d.AddHeading(docx.StyleHeading1, "Executive Summary")

	a := in.Analysis
	sum := a.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "%s has requested a loan of %s", in.BorrowerName, money.FormatUSDWhole(in.RequestedAmount))
	if in.LoanPurpose != "" {
		fmt.Fprintf(&b, " for %s", strings.ToLower(in.LoanPurpose))
	}
	fmt.Fprintf(&b, ". The credit analysis assigns a risk rating of %s with a composite risk score of %.0f out of 100.",
		strings.ToUpper(string(sum.RiskRating)), a.RiskScore)
	d.AddParagraph().AddText(b.String())

	b.Reset()
	fmt.Fprintf(&b, "Qualifying income is %s annually (%s per month)",
		money.FormatUSD(sum.QualifyingIncome), money.FormatUSD(sum.QualifyingIncome/12))
	if a.Income != nil && len(a.Income.Sources) > 0 {
		fmt.Fprintf(&b, " across %d income source%s", len(a.Income.Sources), plural(len(a.Income.Sources)))
		if a.Income.Trend != "" {
			fmt.Fprintf(&b, " with a %s trend", strings.ToLower(a.Income.Trend))
		}
	}
	b.WriteString(".")
	d.AddParagraph().AddText(b.String())

	b.Reset()
	var clauses []string
	if sum.GlobalDSCR != nil {
		clauses = append(clauses, fmt.Sprintf("global debt service coverage stands at %s", money.FormatRatio(*sum.GlobalDSCR)))
	}
	if sum.BackEndDTI != nil {
		clauses = append(clauses, fmt.Sprintf("back-end debt-to-income is %s", money.FormatPercent(*sum.BackEndDTI, 1)))
	}
	clauses = append(clauses, fmt.Sprintf("liquid reserves cover %.1f months of obligations", sum.MonthsOfReserves))
	b.WriteString(capitalize(strings.Join(clauses, "; ")))
	b.WriteString(".")
	d.AddParagraph().AddText(b.String())

	critical := 0
	for _, f := range a.RiskFlags {
		if f.Severity == model.FlagCritical || f.Severity == model.FlagHigh {
			critical++
		}
	}
	switch {
	case len(a.RiskFlags) == 0:
		d.AddParagraph().AddText("The analysis raised no adverse risk findings.")
	case critical == 0:
		d.AddParagraph().AddText(fmt.Sprintf(
			"The analysis raised %d risk finding%s, none of critical or high severity.",
			len(a.RiskFlags), plural(len(a.RiskFlags))))
	default:
		p := d.AddParagraph()
		p.AddText(fmt.Sprintf("The analysis raised %d risk finding%s, of which ",
			len(a.RiskFlags), plural(len(a.RiskFlags))))
		cr := p.AddText(fmt.Sprintf("%d", critical))
		cr.Bold = true
		cr.Color = colorRed
		p.AddText(fmt.Sprintf(" %s of critical or high severity.", isAre(critical)))
	}
}

func addRatiosTable(d *docx.Document, a *model.Analysis) {
	d.AddHeading(docx.StyleHeading1, "Financial Ratios")

	t := d.AddTable(3744, 2808, 2808)
	hdr := t.AddRow().SetHeader()
	for _, h := range []string{"Metric", "Value", "Rating"} {
		hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
	}

	sum := a.Summary
	ratioRow(t, "Qualifying Income (annual)", money.FormatUSD(sum.QualifyingIncome), subRating(a.Income))
	ratioRow(t, "Global DSCR", formatOptionalRatio(sum.GlobalDSCR), subRating(a.DSCR))
	ratioRow(t, "Back-End DTI", formatOptionalPercent(sum.BackEndDTI), subRating(a.DTI))
	ratioRow(t, "Months of Reserves", fmt.Sprintf("%.1f", sum.MonthsOfReserves), subRating(a.Liquidity))
	if a.CashFlow != nil {
		ratioRow(t, "Net Monthly Cash Flow", money.FormatUSD(a.CashFlow.NetMonthlyCashFlow), a.CashFlow.Rating)
	}
}

// ratioRow renders one metric with a rating-colored cell; an empty rating
// renders as a dash with no fill.
func ratioRow(t *docx.Table, metric, value, rating string) {
	row := t.AddRow()
	row.AddText(metric)
	row.AddText(value)
	if rating == "" {
		row.AddText("-")
		return
	}
	cell := row.AddTextF(rating, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite })
	cell.Fill = ratingColor(rating)
}

func subRating(v any) string {
	switch r := v.(type) {
	case *model.IncomeReport:
		if r != nil {
			return r.Rating
		}
	case *model.DSCRReport:
		if r != nil {
			return r.Rating
		}
	case *model.DTIReport:
		if r != nil {
			return r.Rating
		}
	case *model.LiquidityReport:
		if r != nil {
			return r.Rating
		}
	}
	return ""
}

func formatOptionalRatio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money.FormatRatio(*v)
}

func formatOptionalPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money.FormatPercent(*v, 1)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// addNotes renders analyst notes as bullet lines.
func addNotes(d *docx.Document, notes []string) {
	for _, n := range notes {
		p := d.AddParagraph().SetSpacing(0, 40)
		p.AddText("• " + n)
	}
}

// sortFlags orders risk flags by severity rank, preserving input order
// within a rank.
func sortFlags(flags []model.RiskFlag) []model.RiskFlag {
	sorted := make([]model.RiskFlag, len(flags))
	copy(sorted, flags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})
	return sorted
}

package memo

import (
	"fmt"
	"strings"

	"github.com/meridianlending/underwrite/internal/docx"
	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

func addIncomeSection(d *docx.Document, inc *model.IncomeReport) {
	d.AddHeading(docx.StyleHeading1, "Income Analysis")
	if inc == nil {
		noData(d, "income")
		return
	}

	t := d.AddTable(2808, 1872, 1872, 1872, 936)
	hdr := t.AddRow().SetHeader()
	for _, h := range []string{"Source", "Type", "Annual", "Monthly", "Verified"} {
		hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
	}
	for _, src := range inc.Sources {
		row := t.AddRow()
		row.AddText(src.Name)
		row.AddText(src.Type)
		row.AddText(money.FormatUSD(src.AnnualAmount))
		row.AddText(money.FormatUSD(src.MonthlyAmount))
		row.AddText(yesNo(src.Verified))
	}
	totals := t.AddRow()
	totals.AddTextF("Total", func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	totals.AddCell().Fill = fillLabel
	totals.AddTextF(money.FormatUSD(inc.TotalAnnual), func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	totals.AddTextF(money.FormatUSD(inc.TotalMonthly), func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	totals.AddCell().Fill = fillLabel

	if inc.Trend != "" {
		p := d.AddParagraph()
		p.AddText("Income trend: ")
		tr := p.AddText(inc.Trend)
		tr.Bold = true
	}
	addRatingLine(d, inc.Rating)
	addNotes(d, inc.Notes)
}

func addDTISection(d *docx.Document, dti *model.DTIReport) {
	d.AddHeading(docx.StyleHeading1, "Debt-to-Income Detail")
	if dti == nil {
		noData(d, "debt")
		return
	}

	t := d.AddTable(4680, 2340, 2340)
	hdr := t.AddRow().SetHeader()
	for _, h := range []string{"Obligation", "Monthly Payment", "Balance"} {
		hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
	}
	for _, item := range dti.DebtItems {
		row := t.AddRow()
		row.AddText(item.Name)
		row.AddText(money.FormatUSD(item.MonthlyPayment))
		if item.Balance > 0 {
			row.AddText(money.FormatUSD(item.Balance))
		} else {
			row.AddText("-")
		}
	}
	totals := t.AddRow()
	totals.AddTextF("Total Monthly Debt", func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	totals.AddTextF(money.FormatUSD(dti.TotalMonthlyDebt), func(r *docx.Run) { r.Bold = true }).Fill = fillLabel
	totals.AddCell().Fill = fillLabel

	d.AddParagraph().AddText("Gross monthly income: " + money.FormatUSD(dti.GrossMonthlyIncome))
	p := d.AddParagraph()
	p.AddText("Back-end ratio: ")
	br := p.AddText(money.FormatPercent(dti.BackEndRatio, 1))
	br.Bold = true
	if dti.Rating != "" {
		br.Color = ratingColor(dti.Rating)
	}
	addRatingLine(d, dti.Rating)
	addNotes(d, dti.Notes)
}

func addCashFlowSection(d *docx.Document, cf *model.CashFlowReport) {
	d.AddHeading(docx.StyleHeading1, "Cash Flow Analysis")
	if cf == nil {
		noData(d, "cash flow")
		return
	}

	t := d.AddTable(4680, 4680)
	labelRow(t, "Average Monthly Deposits", money.FormatUSD(cf.AvgMonthlyDeposits))
	labelRow(t, "Average Monthly Withdrawals", money.FormatUSD(cf.AvgMonthlyWithdrawals))
	labelRow(t, "Net Monthly Cash Flow", money.FormatUSD(cf.NetMonthlyCashFlow))
	labelRow(t, "NSF Occurrences", fmt.Sprintf("%d", cf.NSFCount))

	if len(cf.LargeDeposits) > 0 {
		d.AddHeading(docx.StyleHeading2, "Large Deposits Requiring Sourcing")
		lt := d.AddTable(1872, 2340, 5148)
		hdr := lt.AddRow().SetHeader()
		for _, h := range []string{"Date", "Amount", "Description"} {
			hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
		}
		for _, dep := range cf.LargeDeposits {
			row := lt.AddRow()
			row.AddText(dep.Date)
			row.AddText(money.FormatUSD(dep.Amount))
			row.AddText(dep.Description)
		}
	}

	addRatingLine(d, cf.Rating)
	addNotes(d, cf.Notes)
}

func addBusinessSection(d *docx.Document, biz *model.BusinessReport) {
	d.AddHeading(docx.StyleHeading1, "Business Analysis")

	t := d.AddTable(3120, 6240)
	if biz.LegalName != "" {
		labelRow(t, "Legal Name", biz.LegalName)
	}
	if biz.EntityType != "" {
		labelRow(t, "Entity Type", biz.EntityType)
	}
	if biz.YearsInBusiness > 0 {
		labelRow(t, "Years in Business", fmt.Sprintf("%.1f", biz.YearsInBusiness))
	}
	if biz.RevenueGrowth != 0 {
		labelRow(t, "Revenue Growth", money.FormatPercent(biz.RevenueGrowth, 1))
	}
	if biz.NetMargin != 0 {
		labelRow(t, "Net Margin", money.FormatPercent(biz.NetMargin, 1))
	}

	if len(biz.RevenueByYear) > 0 {
		d.AddHeading(docx.StyleHeading2, "Revenue by Year")
		rt := d.AddTable(3120, 3120, 3120)
		hdr := rt.AddRow().SetHeader()
		for _, h := range []string{"Year", "Revenue", "Net Income"} {
			hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
		}
		for _, yr := range biz.RevenueByYear {
			row := rt.AddRow()
			row.AddText(fmt.Sprintf("%d", yr.Year))
			row.AddText(money.FormatUSD(yr.Revenue))
			row.AddText(money.FormatUSD(yr.NetIncome))
		}
	}

	addRatingLine(d, biz.Rating)
	addNotes(d, biz.Notes)
}

func addRiskSection(d *docx.Document, a *model.Analysis) {
	d.AddHeading(docx.StyleHeading1, "Risk Assessment")

	callout := d.AddParagraph().SetAlign(docx.AlignCenter).SetBorder(scoreColor(a.RiskScore)).SetSpacing(120, 240)
	sr := callout.AddText(fmt.Sprintf("Composite Risk Score: %.0f / 100", a.RiskScore))
	sr.Bold = true
	sr.Size = 28
	sr.Color = scoreColor(a.RiskScore)

	if len(a.RiskFlags) == 0 {
		p := d.AddParagraph()
		r := p.AddText("No risk flags were raised by the analysis.")
		r.Italic = true
		return
	}

	for _, flag := range sortFlags(a.RiskFlags) {
		color := severityColor(flag.Severity)

		head := d.AddParagraph().SetBorder(color).SetSpacing(80, 40)
		badge := head.AddText(" " + strings.ToUpper(string(flag.Severity)) + " ")
		badge.Bold = true
		badge.Color = colorWhite
		badge.Shade = color
		head.AddText("  ")
		title := head.AddText(flag.Title)
		title.Bold = true

		cat := d.AddParagraph().SetBorder(color).SetSpacing(0, 40)
		cr := cat.AddText("Category: " + flag.Category)
		cr.Italic = true
		cr.Color = colorSlate

		desc := d.AddParagraph().SetBorder(color).SetSpacing(0, 40)
		desc.AddText(flag.Description)

		if flag.Recommendation != "" {
			rec := d.AddParagraph().SetBorder(color).SetSpacing(0, 80)
			rl := rec.AddText("Recommendation: ")
			rl.Bold = true
			rec.AddText(flag.Recommendation)
		}

		// Spacer keeps consecutive flag boxes from merging into one.
		d.AddParagraph().SetSpacing(0, 80)
	}
}

func addVerificationSection(d *docx.Document, results []*model.VerificationResult) {
	d.AddHeading(docx.StyleHeading1, "Verification Summary")
	if len(results) == 0 {
		p := d.AddParagraph()
		r := p.AddText("No document verification results are on file for this deal.")
		r.Italic = true
		return
	}

	var matched, comparisons, passed, checks int
	for _, res := range results {
		m, c := res.ComparisonStats()
		matched += m
		comparisons += c
		p, n := res.MathCheckStats()
		passed += p
		checks += n
	}

	intro := d.AddParagraph()
	intro.AddText(fmt.Sprintf("Across %d document%s: ", len(results), plural(len(results))))
	fieldRun := intro.AddText(fmt.Sprintf("%d of %d fields reconciled (%s)",
		matched, comparisons, rateLabel(matched, comparisons)))
	fieldRun.Bold = true
	fieldRun.Color = rateColor(matched, comparisons)
	intro.AddText("; ")
	checkRun := intro.AddText(fmt.Sprintf("%d of %d arithmetic checks passed (%s)",
		passed, checks, rateLabel(passed, checks)))
	checkRun.Bold = true
	checkRun.Color = rateColor(passed, checks)
	intro.AddText(".")

	t := d.AddTable(2808, 1638, 1638, 1638, 1638)
	hdr := t.AddRow().SetHeader()
	for _, h := range []string{"Document", "Fields Matched", "Field Rate", "Checks Passed", "Check Rate"} {
		hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
	}
	for _, res := range results {
		m, c := res.ComparisonStats()
		p, n := res.MathCheckStats()

		row := t.AddRow()
		row.AddText(docTypeLabel(res.DocType))
		row.AddText(fmt.Sprintf("%d / %d", m, c))
		rateCell(row, m, c)
		row.AddText(fmt.Sprintf("%d / %d", p, n))
		rateCell(row, p, n)
	}
}

// rateCell renders a pass-rate cell colored by the rate; an empty
// denominator renders as a plain dash.
func rateCell(row *docx.Row, num, den int) {
	if den == 0 {
		row.AddText("-")
		return
	}
	cell := row.AddTextF(rateLabel(num, den), func(r *docx.Run) { r.Bold = true; r.Color = colorWhite })
	cell.Fill = rateColor(num, den)
}

func rateLabel(num, den int) string {
	if den == 0 {
		return "n/a"
	}
	return money.FormatPercent(float64(num)/float64(den), 0)
}

func rateColor(num, den int) string {
	if den == 0 {
		return colorSlate
	}
	return passRateColor(float64(num) / float64(den))
}

func addDocumentInventory(d *docx.Document, docs []model.Document) {
	d.AddHeading(docx.StyleHeading1, "Document Inventory")
	if len(docs) == 0 {
		p := d.AddParagraph()
		r := p.AddText("No documents are on file for this deal.")
		r.Italic = true
		return
	}

	t := d.AddTable(3276, 2340, 936, 1404, 1404)
	hdr := t.AddRow().SetHeader()
	for _, h := range []string{"File", "Type", "Year", "Status", "Size"} {
		hdr.AddTextF(h, func(r *docx.Run) { r.Bold = true; r.Color = colorWhite }).Fill = fillHeader
	}
	for _, doc := range docs {
		row := t.AddRow()
		row.AddText(doc.FileName)
		row.AddText(docTypeLabel(doc.DocType))
		if doc.Year > 0 {
			row.AddText(fmt.Sprintf("%d", doc.Year))
		} else {
			row.AddText("-")
		}
		row.AddText(string(doc.Status))
		row.AddText(formatSize(doc.FileSize))
	}
}

func addDisclaimer(d *docx.Document) {
	d.AddHeading(docx.StyleHeading1, "Disclaimer")

	box := d.AddParagraph().SetBorder(colorSlate).SetShade(fillLabel).SetSpacing(120, 120)
	r := box.AddText("This credit memorandum was prepared for internal credit committee use only. " +
		"Figures are derived from borrower-provided documentation and independent arithmetic " +
		"verification; they have not been audited. Nothing in this document constitutes a " +
		"commitment to lend. Final terms are subject to credit approval, satisfactory " +
		"collateral review, and execution of definitive loan documents.")
	r.Italic = true
	r.Size = 18
}

func addRatingLine(d *docx.Document, rating string) {
	if rating == "" {
		return
	}
	p := d.AddParagraph()
	p.AddText("Assessment: ")
	r := p.AddText(capitalize(rating))
	r.Bold = true
	r.Color = ratingColor(rating)
}

func noData(d *docx.Document, what string) {
	p := d.AddParagraph()
	r := p.AddText(fmt.Sprintf("No %s data was provided for this analysis.", what))
	r.Italic = true
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// docTypeLabel renders a DocType enum value as a readable label, e.g.
// BANK_STATEMENT_CHECKING becomes "Bank Statement Checking".
func docTypeLabel(t model.DocType) string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatSize renders a byte count in human units.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	case n > 0:
		return fmt.Sprintf("%d B", n)
	}
	return "-"
}

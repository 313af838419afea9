package verify

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridianlending/underwrite/internal/model"
)

// WriteWorkbook renders a verification result as a reviewer-facing
// spreadsheet: one sheet of OCR comparisons, one of math checks.
func WriteWorkbook(w io.Writer, result *model.VerificationResult) error {
	f := xlsx.NewFile()

	cmpSheet, err := f.AddSheet("Comparisons")
	if err != nil {
		return eris.Wrap(err, "workbook: add comparisons sheet")
	}
	writeHeader(cmpSheet, "Field", "Structured", "OCR Value", "OCR Key", "Page", "Difference", "Matched")
	for _, cmp := range result.Comparisons {
		row := cmpSheet.AddRow()
		row.AddCell().SetString(cmp.FieldPath)
		row.AddCell().SetFloatWithFormat(cmp.StructuredValue, "#,##0.00")
		if cmp.TextractValue != nil {
			row.AddCell().SetFloatWithFormat(*cmp.TextractValue, "#,##0.00")
		} else {
			row.AddCell().SetString("—")
		}
		if cmp.TextractKey != nil {
			row.AddCell().SetString(*cmp.TextractKey)
		} else {
			row.AddCell().SetString("—")
		}
		if cmp.Page > 0 {
			row.AddCell().SetInt(cmp.Page)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetFloatWithFormat(cmp.Difference, "#,##0.00")
		row.AddCell().SetString(passLabel(cmp.Matched))
	}

	mathSheet, err := f.AddSheet("Math Checks")
	if err != nil {
		return eris.Wrap(err, "workbook: add math checks sheet")
	}
	writeHeader(mathSheet, "Field", "Description", "Expected", "Actual", "Difference", "Passed")
	for _, mc := range result.MathChecks {
		row := mathSheet.AddRow()
		row.AddCell().SetString(mc.FieldPath)
		row.AddCell().SetString(mc.Description)
		row.AddCell().SetFloatWithFormat(mc.Expected, "#,##0.00")
		row.AddCell().SetFloatWithFormat(mc.Actual, "#,##0.00")
		row.AddCell().SetFloatWithFormat(mc.Difference, "#,##0.00")
		row.AddCell().SetString(passLabel(mc.Passed))
	}

	return eris.Wrap(f.Write(w), "workbook: write")
}

func writeHeader(sheet *xlsx.Sheet, titles ...string) {
	row := sheet.AddRow()
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	for _, title := range titles {
		cell := row.AddCell()
		cell.SetString(title)
		cell.SetStyle(style)
	}
}

func passLabel(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

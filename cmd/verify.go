package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/verify"
)

var (
	verifyDocType    string
	verifyExtraction string
	verifyOCR        string
	verifyDeal       string
	verifyWorkbook   string
	verifyJSON       bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an extraction against its OCR output",
	Long: "Reconciles every numeric field of a structured extraction against raw OCR " +
		"key/value pairs and runs the per-form arithmetic checks. With --deal, " +
		"re-verifies every stored document of a deal from the configured store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifyDeal != "" {
			return verifyStoredDeal(cmd.Context())
		}
		if verifyDocType == "" || verifyExtraction == "" || verifyOCR == "" {
			return eris.New("--doc-type, --extraction, and --ocr are required (or use --deal)")
		}

		data, err := loadExtractionFile(verifyExtraction)
		if err != nil {
			return err
		}
		pairs, err := loadOCRFile(verifyOCR)
		if err != nil {
			return err
		}

		result, err := verify.Verify(verify.Request{
			DocType: model.DocType(verifyDocType),
			Data:    data,
			OCR:     pairs,
		})
		if err != nil {
			return err
		}

		matched, comparisons := result.ComparisonStats()
		passed, checks := result.MathCheckStats()
		zap.L().Info("verification complete",
			zap.String("doc_type", verifyDocType),
			zap.Int("comparisons", comparisons),
			zap.Int("matched", matched),
			zap.Int("math_checks", checks),
			zap.Int("passed", passed),
		)

		if verifyWorkbook != "" {
			f, err := os.Create(verifyWorkbook)
			if err != nil {
				return eris.Wrapf(err, "create workbook %s", verifyWorkbook)
			}
			defer f.Close()
			if err := verify.WriteWorkbook(f, result); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", verifyWorkbook))
		}

		if verifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Print(formatVerification(result))
		return nil
	},
}

// verifyStoredDeal re-runs verification for every document of a stored deal
// that has both an extraction and OCR pairs, replacing each stored result.
func verifyStoredDeal(ctx context.Context) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.ListDocuments(ctx, verifyDeal)
	if err != nil {
		return err
	}

	var verified, skipped int
	for _, doc := range docs {
		ext, err := st.GetExtraction(ctx, doc.ID)
		if err != nil {
			return err
		}
		pairs, err := st.GetOCRPairs(ctx, doc.ID)
		if err != nil {
			return err
		}
		if ext == nil || len(pairs) == 0 {
			skipped++
			zap.L().Debug("skipping document without extraction or ocr",
				zap.String("document_id", doc.ID),
				zap.String("file", doc.FileName),
			)
			continue
		}

		result, err := verify.Verify(verify.Request{
			DocType: doc.DocType,
			Data:    ext.Data,
			OCR:     pairs,
		})
		if err != nil {
			return eris.Wrapf(err, "verify document %s", doc.FileName)
		}
		if err := st.SaveVerification(ctx, doc.ID, result); err != nil {
			return err
		}
		verified++

		matched, comparisons := result.ComparisonStats()
		passed, checks := result.MathCheckStats()
		zap.L().Info("document verified",
			zap.String("document_id", doc.ID),
			zap.String("file", doc.FileName),
			zap.String("doc_type", string(doc.DocType)),
			zap.Int("comparisons", comparisons),
			zap.Int("matched", matched),
			zap.Int("math_checks", checks),
			zap.Int("passed", passed),
		)
	}

	zap.L().Info("deal verification complete",
		zap.String("deal_id", verifyDeal),
		zap.Int("verified", verified),
		zap.Int("skipped", skipped),
	)
	return nil
}

// loadExtractionFile reads a structured extraction JSON file.
func loadExtractionFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read extraction %s", path)
	}
	return model.DecodeExtractionData(raw)
}

// loadOCRFile reads OCR key/value pairs from a JSON array file.
func loadOCRFile(path string) ([]model.OCRPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read ocr %s", path)
	}
	var pairs []model.OCRPair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, eris.Wrapf(err, "parse ocr %s", path)
	}
	return pairs, nil
}

// formatVerification renders a human-readable verification report.
func formatVerification(result *model.VerificationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification Report: %s\n\n", result.DocType)

	matched, comparisons := result.ComparisonStats()
	fmt.Fprintf(&b, "## Field Reconciliation: %d of %d matched%s\n", matched, comparisons, rateSuffix(matched, comparisons))
	for _, c := range result.Comparisons {
		switch {
		case c.Matched:
			fmt.Fprintf(&b, "  [ok]   %s  %.2f", c.FieldPath, c.StructuredValue)
			if c.TextractKey != nil {
				fmt.Fprintf(&b, "  ocr=%q", *c.TextractKey)
			}
			if c.Page > 0 {
				fmt.Fprintf(&b, " page=%d", c.Page)
			}
			b.WriteString("\n")
		case c.TextractValue == nil:
			fmt.Fprintf(&b, "  [miss] %s  %.2f  no OCR match\n", c.FieldPath, c.StructuredValue)
		default:
			fmt.Fprintf(&b, "  [DIFF] %s  %.2f  ocr=%.2f diff=%.2f", c.FieldPath, c.StructuredValue, *c.TextractValue, c.Difference)
			if c.TextractKey != nil {
				fmt.Fprintf(&b, " key=%q", *c.TextractKey)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	passed, checks := result.MathCheckStats()
	fmt.Fprintf(&b, "## Math Checks: %d of %d passed%s\n", passed, checks, rateSuffix(passed, checks))
	for _, m := range result.MathChecks {
		if m.Passed {
			fmt.Fprintf(&b, "  [pass] %s (%s)\n", m.Description, m.FieldPath)
		} else {
			fmt.Fprintf(&b, "  [FAIL] %s (%s) expected=%.2f actual=%.2f diff=%.2f\n",
				m.Description, m.FieldPath, m.Expected, m.Actual, m.Difference)
		}
	}

	return b.String()
}

func rateSuffix(num, den int) string {
	if den == 0 {
		return ""
	}
	return fmt.Sprintf(" (%.1f%%)", float64(num)/float64(den)*100)
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDocType, "doc-type", "", "document type, e.g. FORM_1040")
	verifyCmd.Flags().StringVar(&verifyExtraction, "extraction", "", "path to structured extraction JSON")
	verifyCmd.Flags().StringVar(&verifyOCR, "ocr", "", "path to OCR key/value pairs JSON")
	verifyCmd.Flags().StringVar(&verifyDeal, "deal", "", "re-verify every stored document of this deal")
	verifyCmd.Flags().StringVar(&verifyWorkbook, "workbook", "", "write reviewer workbook to this xlsx path")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the raw result as JSON")
	rootCmd.AddCommand(verifyCmd)
}

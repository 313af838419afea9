package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/verify"
)

var (
	ingestDeal       string
	ingestDocType    string
	ingestExtraction string
	ingestOCR        string
	ingestYear       int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a document's extraction and OCR output into a deal",
	Long: "Attaches a document to a stored deal, saves its OCR pairs and structured " +
		"extraction, then verifies the extraction and stores the result. The document " +
		"moves through uploaded, ocr_complete, extracted, and verified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		docType, err := model.ParseDocType(ingestDocType)
		if err != nil {
			return err
		}
		data, err := loadExtractionFile(ingestExtraction)
		if err != nil {
			return err
		}
		pairs, err := loadOCRFile(ingestOCR)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		// The deal must exist before documents attach to it.
		if _, err := st.GetDeal(ctx, ingestDeal); err != nil {
			return err
		}

		info, err := os.Stat(ingestExtraction)
		if err != nil {
			return eris.Wrapf(err, "stat %s", ingestExtraction)
		}
		doc, err := st.UpsertDocument(ctx, ingestDeal, model.Document{
			DocType:  docType,
			FileName: filepath.Base(ingestExtraction),
			FileSize: info.Size(),
			Year:     ingestYear,
		})
		if err != nil {
			return err
		}

		if err := st.SaveOCRPairs(ctx, doc.ID, pairs); err != nil {
			return err
		}
		if _, err := st.SaveExtraction(ctx, doc.ID, data); err != nil {
			return err
		}

		result, err := verify.Verify(verify.Request{
			DocType: docType,
			Data:    data,
			OCR:     pairs,
		})
		if err != nil {
			return err
		}
		if err := st.SaveVerification(ctx, doc.ID, result); err != nil {
			return err
		}

		matched, comparisons := result.ComparisonStats()
		passed, checks := result.MathCheckStats()
		zap.L().Info("document ingested",
			zap.String("deal_id", ingestDeal),
			zap.String("document_id", doc.ID),
			zap.String("doc_type", string(docType)),
			zap.Int("ocr_pairs", len(pairs)),
			zap.Int("comparisons", comparisons),
			zap.Int("matched", matched),
			zap.Int("math_checks", checks),
			zap.Int("passed", passed),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDeal, "deal", "", "deal id to attach the document to (required)")
	ingestCmd.Flags().StringVar(&ingestDocType, "doc-type", "", "document type, e.g. FORM_1040 (required)")
	ingestCmd.Flags().StringVar(&ingestExtraction, "extraction", "", "path to structured extraction JSON (required)")
	ingestCmd.Flags().StringVar(&ingestOCR, "ocr", "", "path to OCR key/value pairs JSON (required)")
	ingestCmd.Flags().IntVar(&ingestYear, "year", 0, "tax or statement year")
	_ = ingestCmd.MarkFlagRequired("deal")
	_ = ingestCmd.MarkFlagRequired("doc-type")
	_ = ingestCmd.MarkFlagRequired("extraction")
	_ = ingestCmd.MarkFlagRequired("ocr")
	rootCmd.AddCommand(ingestCmd)
}

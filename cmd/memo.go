package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/memo"
	"github.com/meridianlending/underwrite/internal/model"
)

var (
	memoAnalysis      string
	memoBorrower      string
	memoPurpose       string
	memoAmount        float64
	memoAnalyst       string
	memoDate          string
	memoDeal          string
	memoVerifications []string
	memoDocuments     string
	memoOut           string
)

var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Assemble a credit memorandum",
	Long: "Renders the credit memorandum docx from a financial analysis, plus any " +
		"verification results and a document inventory, supplied as files or pulled " +
		"from a stored deal with --deal. The same inputs always produce " +
		"byte-identical output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		analysis, err := loadAnalysisFile(memoAnalysis)
		if err != nil {
			return err
		}

		in := memo.Input{
			BorrowerName:    memoBorrower,
			LoanPurpose:     memoPurpose,
			RequestedAmount: memoAmount,
			AnalystName:     memoAnalyst,
			PreparedAt:      time.Now().UTC(),
			Analysis:        analysis,
		}

		if memoDate != "" {
			t, err := time.Parse("2006-01-02", memoDate)
			if err != nil {
				return eris.Wrapf(err, "parse --date %s", memoDate)
			}
			in.PreparedAt = t
		}

		for _, path := range memoVerifications {
			v, err := loadVerificationFile(path)
			if err != nil {
				return err
			}
			in.Verifications = append(in.Verifications, v)
		}

		if memoDocuments != "" {
			docs, err := loadDocumentsFile(memoDocuments)
			if err != nil {
				return err
			}
			in.Documents = docs
		}

		if memoDeal != "" {
			if err := fillMemoFromStore(cmd.Context(), &in); err != nil {
				return err
			}
		}

		data, err := memo.Build(in)
		if err != nil {
			return err
		}
		if err := os.WriteFile(memoOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "write memo %s", memoOut)
		}

		zap.L().Info("memo written",
			zap.String("path", memoOut),
			zap.String("borrower", in.BorrowerName),
			zap.Int("bytes", len(data)),
		)
		return nil
	},
}

// fillMemoFromStore pulls the deal's document inventory and stored
// verification results into the memo input. Flag values win over stored
// values for the summary fields.
func fillMemoFromStore(ctx context.Context, in *memo.Input) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	deal, err := st.GetDeal(ctx, memoDeal)
	if err != nil {
		return err
	}
	if in.BorrowerName == "" {
		in.BorrowerName = deal.BorrowerName
	}
	if in.RequestedAmount == 0 {
		in.RequestedAmount = deal.RequestedAmount
	}

	docs, err := st.ListDocuments(ctx, memoDeal)
	if err != nil {
		return err
	}
	in.Documents = append(in.Documents, docs...)

	for _, doc := range docs {
		v, err := st.GetVerification(ctx, doc.ID)
		if err != nil {
			return err
		}
		if v != nil {
			in.Verifications = append(in.Verifications, v)
		}
	}
	return nil
}

// loadVerificationFile reads a stored verification result JSON file.
func loadVerificationFile(path string) (*model.VerificationResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read verification %s", path)
	}
	var v model.VerificationResult
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, eris.Wrapf(err, "parse verification %s", path)
	}
	return &v, nil
}

// loadDocumentsFile reads a JSON array of documents for the inventory section.
func loadDocumentsFile(path string) ([]model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read documents %s", path)
	}
	var docs []model.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, eris.Wrapf(err, "parse documents %s", path)
	}
	return docs, nil
}

func init() {
	memoCmd.Flags().StringVar(&memoAnalysis, "analysis", "", "path to financial analysis JSON (required)")
	memoCmd.Flags().StringVar(&memoBorrower, "borrower", "", "borrower name (required unless --deal)")
	memoCmd.Flags().StringVar(&memoPurpose, "purpose", "", "loan purpose for the summary block")
	memoCmd.Flags().Float64Var(&memoAmount, "amount", 0, "requested loan amount")
	memoCmd.Flags().StringVar(&memoAnalyst, "analyst", "", "preparing analyst name")
	memoCmd.Flags().StringVar(&memoDate, "date", "", "preparation date as YYYY-MM-DD (default today; pin for reproducible output)")
	memoCmd.Flags().StringVar(&memoDeal, "deal", "", "pull documents and verifications from this stored deal")
	memoCmd.Flags().StringArrayVar(&memoVerifications, "verification", nil, "verification result JSON, repeatable")
	memoCmd.Flags().StringVar(&memoDocuments, "documents", "", "document inventory JSON array")
	memoCmd.Flags().StringVarP(&memoOut, "out", "o", "memo.docx", "output docx path")
	_ = memoCmd.MarkFlagRequired("analysis")
	rootCmd.AddCommand(memoCmd)
}

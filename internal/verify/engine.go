package verify

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
)

// Request carries one extraction through the verification core.
type Request struct {
	DocType model.DocType   `json:"doc_type"`
	Data    map[string]any  `json:"structured_data"`
	OCR     []model.OCRPair `json:"ocr"`
}

// Verify runs OCR reconciliation and the per-form arithmetic checks for one
// document. The only error is an invalid request shape; failed checks and
// unmatched fields ride the result.
func Verify(req Request) (*model.VerificationResult, error) {
	if _, err := model.ParseDocType(string(req.DocType)); err != nil {
		return nil, eris.Wrap(err, "verify")
	}
	if req.Data == nil {
		return nil, eris.New("verify: structured data is required")
	}

	result := &model.VerificationResult{
		DocType:     req.DocType,
		Comparisons: Reconcile(req.Data, req.OCR),
		MathChecks:  MathChecks(req.DocType, req.Data),
		CreatedAt:   time.Now().UTC(),
	}

	matched, totalCmp := result.ComparisonStats()
	passed, totalChecks := result.MathCheckStats()
	zap.L().Debug("verification complete",
		zap.String("doc_type", string(req.DocType)),
		zap.Int("comparisons_matched", matched),
		zap.Int("comparisons_total", totalCmp),
		zap.Int("checks_passed", passed),
		zap.Int("checks_total", totalChecks),
	)
	return result, nil
}

// MathChecks evaluates the closed-form invariant set for a document type.
// Types with no curated equations (W-2 aside, OTHER and friends) return nil.
func MathChecks(docType model.DocType, tree map[string]any) []model.MathCheck {
	c := &checker{}
	switch docType {
	case model.DocTypeForm1040:
		check1040(c, tree)
	case model.DocTypeForm1120:
		check1120(c, tree)
	case model.DocTypeForm1120S:
		check1120S(c, tree)
	case model.DocTypeForm1065:
		check1065(c, tree)
	case model.DocTypeScheduleK1:
		checkK1(c, tree)
	case model.DocTypeW2:
		checkW2(c, tree)
	case model.DocTypeBankStatementChecking, model.DocTypeBankStatementSavings:
		checkBankStatement(c, tree)
	case model.DocTypeProfitAndLoss:
		checkProfitAndLoss(c, tree)
	case model.DocTypeBalanceSheet:
		checkBalanceSheet(c, tree)
	case model.DocTypeRentRoll:
		checkRentRoll(c, tree)
	}
	return c.checks
}

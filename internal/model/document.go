package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// DocType identifies the kind of borrower document. The set is closed;
// anything unrecognized must be ingested as DocTypeOther.
type DocType string

const (
	DocTypeForm1040             DocType = "FORM_1040"
	DocTypeForm1120             DocType = "FORM_1120"
	DocTypeForm1120S            DocType = "FORM_1120S"
	DocTypeForm1065             DocType = "FORM_1065"
	DocTypeScheduleK1           DocType = "SCHEDULE_K1"
	DocTypeW2                   DocType = "W2"
	DocTypeBankStatementChecking DocType = "BANK_STATEMENT_CHECKING"
	DocTypeBankStatementSavings  DocType = "BANK_STATEMENT_SAVINGS"
	DocTypeProfitAndLoss        DocType = "PROFIT_AND_LOSS"
	DocTypeBalanceSheet         DocType = "BALANCE_SHEET"
	DocTypeRentRoll             DocType = "RENT_ROLL"
	DocTypeOther                DocType = "OTHER"
)

// AllDocTypes lists every valid document type.
var AllDocTypes = []DocType{
	DocTypeForm1040, DocTypeForm1120, DocTypeForm1120S, DocTypeForm1065,
	DocTypeScheduleK1, DocTypeW2, DocTypeBankStatementChecking,
	DocTypeBankStatementSavings, DocTypeProfitAndLoss, DocTypeBalanceSheet,
	DocTypeRentRoll, DocTypeOther,
}

// ParseDocType validates a raw string against the closed enum.
func ParseDocType(s string) (DocType, error) {
	for _, t := range AllDocTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", eris.Errorf("model: unknown document type %q", s)
}

// DocumentStatus tracks a document through the ingest lifecycle.
type DocumentStatus string

const (
	DocStatusUploaded    DocumentStatus = "uploaded"
	DocStatusOCRComplete DocumentStatus = "ocr_complete"
	DocStatusExtracted   DocumentStatus = "extracted"
	DocStatusVerified    DocumentStatus = "verified"
	DocStatusFailed      DocumentStatus = "failed"
)

// Document is a single borrower file attached to a deal.
type Document struct {
	ID       string         `json:"id"`
	DealID   string         `json:"deal_id,omitempty"`
	DocType  DocType        `json:"doc_type"`
	FileName string         `json:"file_name"`
	FileSize int64          `json:"file_size"`
	Status   DocumentStatus `json:"status"`
	Year     int            `json:"year,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OCRPair is one key/value lifted off a document page by the OCR provider.
// Key and Value are raw strings exactly as printed; Value may carry "$",
// thousands separators, "%" or parenthesized negatives.
type OCRPair struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}

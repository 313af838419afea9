package model

import "time"

// Comparison reconciles one structured numeric field against the best
// matching OCR key/value on the same document. TextractValue and TextractKey
// are nil when no OCR pair matched the field at all.
type Comparison struct {
	FieldPath       string   `json:"field_path"`
	StructuredValue float64  `json:"structured_value"`
	TextractValue   *float64 `json:"textract_value"`
	TextractKey     *string  `json:"textract_key"`
	Matched         bool     `json:"matched"`
	Difference      float64  `json:"difference"`
	Page            int      `json:"page,omitempty"`
}

// MathCheck is one closed-form arithmetic invariant evaluated against a
// structured extraction. Failed checks are data, not errors.
type MathCheck struct {
	FieldPath   string  `json:"field_path"`
	Description string  `json:"description"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	Difference  float64 `json:"difference"`
	Passed      bool    `json:"passed"`
}

// VerificationResult is the full output of the verification core for one
// extraction: OCR reconciliation plus the per-form arithmetic checks.
type VerificationResult struct {
	DocumentID  string       `json:"document_id,omitempty"`
	DocType     DocType      `json:"doc_type"`
	Comparisons []Comparison `json:"comparisons"`
	MathChecks  []MathCheck  `json:"math_checks"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// ComparisonStats returns how many comparisons matched out of the total.
func (r *VerificationResult) ComparisonStats() (matched, total int) {
	for _, c := range r.Comparisons {
		if c.Matched {
			matched++
		}
	}
	return matched, len(r.Comparisons)
}

// MathCheckStats returns how many math checks passed out of the total.
func (r *VerificationResult) MathCheckStats() (passed, total int) {
	for _, m := range r.MathChecks {
		if m.Passed {
			passed++
		}
	}
	return passed, len(r.MathChecks)
}

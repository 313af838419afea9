package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Extraction is the structured output of the LLM extraction step over one
// document. Data is a tree as decoded by encoding/json: objects are
// map[string]any, arrays are []any, numbers are float64. The verification
// core walks it generically, so unknown field paths are fine.
//
// A document holds at most one current extraction; replacing it is a
// whole-record swap.
type Extraction struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DecodeExtractionData parses raw extraction JSON into the generic tree.
func DecodeExtractionData(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, eris.Wrap(err, "model: decode extraction data")
	}
	return data, nil
}

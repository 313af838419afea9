package llm

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/rotisserie/eris"
)

// ExtractJSON pulls a JSON document out of model output that may carry
// markdown fences or surrounding prose, repairing common LLM malformations
// (trailing commas, single quotes, unclosed brackets). Only objects and
// arrays are accepted.
func ExtractJSON(text string) (json.RawMessage, error) {
	cleaned := stripWrapping(text)
	if cleaned == "" {
		return nil, eris.New("llm: no json found in response")
	}

	repaired, err := jsonrepair.RepairJSON(cleaned)
	if err != nil {
		return nil, eris.Wrap(err, "llm: repair json")
	}

	repaired = strings.TrimSpace(repaired)
	if repaired == "" || (repaired[0] != '{' && repaired[0] != '[') {
		return nil, eris.New("llm: response is not a json document")
	}
	if !json.Valid([]byte(repaired)) {
		return nil, eris.New("llm: repaired output is not valid json")
	}
	return json.RawMessage(repaired), nil
}

// stripWrapping removes markdown code fences and isolates the outermost
// JSON document from surrounding prose.
func stripWrapping(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		if end := strings.LastIndex(text, "}"); end > objStart {
			text = text[objStart : end+1]
		}
	case arrStart >= 0:
		if end := strings.LastIndex(text, "]"); end > arrStart {
			text = text[arrStart : end+1]
		}
	}

	return strings.TrimSpace(text)
}

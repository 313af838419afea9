// Package verify implements the document verification core: dual-path
// reconciliation of structured extractions against raw OCR key/values, and
// closed-form arithmetic checks per document type.
package verify

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber normalizes a raw document string to a signed number.
// Handles "$1,234.56", "(1,234)" negatives, "12.5%" percent scaling, and
// plain decimals. Returns false for anything that is not a finite number.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	if negative {
		v = -v
	}
	if percent {
		v /= 100
	}
	return v, true
}

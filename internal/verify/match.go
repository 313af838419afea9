package verify

import "strings"

// normalize lowercases and strips every non-alphanumeric rune, so
// "Line 9 — Total Income:" and "totalincome" compare cleanly.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripIndices removes array subscripts: "scheduleC[2].wages" -> "scheduleC.wages".
func stripIndices(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	depth := 0
	for _, r := range path {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lastSegment returns the final dotted segment of a path with any array
// index removed.
func lastSegment(path string) string {
	p := stripIndices(path)
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// MatchesField decides whether an OCR key plausibly labels the structured
// field at fieldPath. Three strategies run in order; any positive wins.
// Ambiguity between several matching keys is resolved later by numeric
// closeness, not here.
func MatchesField(fieldPath, ocrKey string) bool {
	normKey := normalize(ocrKey)
	if normKey == "" {
		return false
	}

	// 1. Tax-form label dictionary.
	if labels, ok := taxLabels[lastSegment(fieldPath)]; ok {
		for _, label := range labels {
			if nl := normalize(label); nl != "" && strings.Contains(normKey, nl) {
				return true
			}
		}
	}

	// 2. Fuzzy phrase map for financial statements.
	seg := normalize(lastSegment(fieldPath))
	for _, row := range fuzzyRows {
		phraseHit := false
		for _, p := range row.ocrPhrases {
			if strings.Contains(normKey, normalize(p)) {
				phraseHit = true
				break
			}
		}
		if !phraseHit {
			continue
		}
		for _, tok := range row.fieldTokens {
			if strings.Contains(seg, tok) || strings.Contains(tok, seg) {
				return true
			}
		}
	}

	// 3. Direct substring match on the field name itself.
	if len(seg) >= 4 && (strings.Contains(normKey, seg) || strings.Contains(seg, normKey)) {
		return true
	}

	return false
}

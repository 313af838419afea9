package verify

import (
	"fmt"
	"math"
	"sort"
)

// FlatField is one numeric leaf of an extraction tree addressed by its
// dotted path. Array elements use bracket notation: "scheduleC[0].wages".
type FlatField struct {
	Path  string
	Value float64
}

// Flatten walks an extraction tree and emits every finite numeric leaf in
// deterministic (path-sorted at each level) order. String, bool, and null
// leaves are skipped; metadata filtering happens downstream.
func Flatten(tree map[string]any) []FlatField {
	var out []FlatField
	flattenMap("", tree, &out)
	return out
}

func flattenMap(prefix string, m map[string]any, out *[]FlatField) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		flattenValue(path, m[k], out)
	}
}

func flattenValue(path string, v any, out *[]FlatField) {
	switch t := v.(type) {
	case map[string]any:
		flattenMap(path, t, out)
	case []any:
		for i, elem := range t {
			flattenValue(fmt.Sprintf("%s[%d]", path, i), elem, out)
		}
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			*out = append(*out, FlatField{Path: path, Value: t})
		}
	case int:
		*out = append(*out, FlatField{Path: path, Value: float64(t)})
	case int64:
		*out = append(*out, FlatField{Path: path, Value: float64(t)})
	}
}

// metadataTokens are path segments that carry identity or bookkeeping data
// rather than financial evidence. Leaves whose last segment matches are
// excluded from OCR reconciliation.
var metadataTokens = map[string]bool{
	"page": true, "confidence": true, "status": true, "type": true,
	"name": true, "address": true, "ein": true, "ssn": true, "tin": true,
	"filingStatus": true, "taxYear": true, "year": true, "month": true,
	"businessCode": true, "accountNumber": true, "routingNumber": true,
	"description": true, "label": true, "category": true, "date": true,
	"id": true, "index": true, "count": true, "unit": true,
}

// isMetadataPath reports whether the last segment of a path names metadata:
// exact token match, or a metadata_ prefix/suffix.
func isMetadataPath(path string) bool {
	seg := lastSegment(path)
	if metadataTokens[seg] {
		return true
	}
	if len(seg) > 9 && seg[:9] == "metadata_" {
		return true
	}
	if len(seg) > 9 && seg[len(seg)-9:] == "_metadata" {
		return true
	}
	return seg == "metadata"
}

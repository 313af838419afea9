package verify

import (
	"math"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

type parsedKV struct {
	pair  model.OCRPair
	value float64
	index int
}

// Reconcile pairs every evidentiary numeric field in the structured tree
// with the closest matching OCR key/value. Exactly one Comparison is emitted
// per non-zero, non-metadata numeric leaf, whether or not anything matched.
func Reconcile(data map[string]any, ocr []model.OCRPair) []model.Comparison {
	kvs := make([]parsedKV, 0, len(ocr))
	for i, pair := range ocr {
		v, ok := ParseNumber(pair.Value)
		if !ok {
			continue
		}
		kvs = append(kvs, parsedKV{pair: pair, value: v, index: i})
	}

	fields := Flatten(data)
	comparisons := make([]model.Comparison, 0, len(fields))

	for _, f := range fields {
		if f.Value == 0 || isMetadataPath(f.Path) {
			continue
		}
		comparisons = append(comparisons, compareField(f, kvs))
	}
	return comparisons
}

// compareField picks the candidate KV with the smallest absolute difference.
// Ties go to the earliest page, then to the earliest KV in OCR order.
func compareField(f FlatField, kvs []parsedKV) model.Comparison {
	var best *parsedKV
	bestDiff := math.Inf(1)

	for i := range kvs {
		kv := &kvs[i]
		if !MatchesField(f.Path, kv.pair.Key) {
			continue
		}
		diff := math.Abs(f.Value - kv.value)
		switch {
		case diff < bestDiff:
			best, bestDiff = kv, diff
		case diff == bestDiff && best != nil && kv.pair.Page < best.pair.Page:
			best = kv
		}
	}

	if best == nil {
		return model.Comparison{
			FieldPath:       f.Path,
			StructuredValue: f.Value,
			Matched:         false,
			Difference:      math.Abs(f.Value),
		}
	}

	val := best.value
	key := best.pair.Key
	return model.Comparison{
		FieldPath:       f.Path,
		StructuredValue: f.Value,
		TextractValue:   &val,
		TextractKey:     &key,
		Matched:         bestDiff <= money.Tolerance,
		Difference:      bestDiff,
		Page:            best.pair.Page,
	}
}

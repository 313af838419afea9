package verify

import (
	"math"
	"strings"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
)

// getNum reads a numeric leaf at a dotted path (no array segments).
// The second return is false when the path is absent or non-numeric.
func getNum(tree map[string]any, path string) (float64, bool) {
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur, ok = m[seg]
		if !ok {
			return 0, false
		}
	}
	switch v := cur.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// num is getNum with absent collapsing to zero. Summing helpers use it so a
// missing line contributes nothing.
func num(tree map[string]any, path string) float64 {
	v, _ := getNum(tree, path)
	return v
}

// getMap reads a nested object at a dotted path.
func getMap(tree map[string]any, path string) (map[string]any, bool) {
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	m, ok := cur.(map[string]any)
	return m, ok
}

// getArray reads an array of objects at a dotted path. Non-object elements
// are dropped.
func getArray(tree map[string]any, path string) []map[string]any {
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, elem := range arr {
		if m, ok := elem.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// sumOf totals the named leaves, treating absent ones as zero.
func sumOf(tree map[string]any, paths ...string) float64 {
	var total float64
	for _, p := range paths {
		total += num(tree, p)
	}
	return total
}

// checker accumulates math checks for one document.
type checker struct {
	checks []model.MathCheck
}

// add records a check unconditionally.
func (c *checker) add(fieldPath, description string, expected, actual, tol float64) {
	diff := math.Abs(expected - actual)
	c.checks = append(c.checks, model.MathCheck{
		FieldPath:   fieldPath,
		Description: description,
		Expected:    expected,
		Actual:      actual,
		Difference:  diff,
		Passed:      diff <= tol,
	})
}

// derived records a subtotal check with the skip rule: if the target field
// is absent or zero the check is skipped rather than failed, since many
// forms legitimately omit derived lines.
func (c *checker) derived(tree map[string]any, fieldPath, description string, expected, tol float64) {
	actual, ok := getNum(tree, fieldPath)
	if !ok || actual == 0 {
		return
	}
	c.add(fieldPath, description, expected, actual, tol)
}

// mandatory records a check that fires even when the target is zero, as
// long as the field is present.
func (c *checker) mandatory(tree map[string]any, fieldPath, description string, expected, tol float64) {
	actual, ok := getNum(tree, fieldPath)
	if !ok {
		return
	}
	c.add(fieldPath, description, expected, actual, tol)
}

// ratio records a ratio check with relative tolerance.
func (c *checker) ratio(tree map[string]any, fieldPath, description string, expected float64) {
	actual, ok := getNum(tree, fieldPath)
	if !ok || actual == 0 {
		return
	}
	c.add(fieldPath, description, expected, actual, money.RelTolerance*math.Abs(expected))
}

package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONCleanObject(t *testing.T) {
	t.Parallel()

	raw, err := ExtractJSON(`{"executiveSummary": "Strong borrower.", "score": 3}`)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Strong borrower.", out["executiveSummary"])
	assert.Equal(t, float64(3), out["score"])
}

func TestExtractJSONMarkdownFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```"},
		{"bare fence", "```\n{\"a\": 1}\n```"},
		{"prose around", "Here is the result:\n\n{\"a\": 1}\n\nLet me know if you need more."},
		{"fence and prose", "Sure!\n```json\n{\"a\": 1}\n```\nDone."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw, err := ExtractJSON(tc.text)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, float64(1), out["a"])
		})
	}
}

func TestExtractJSONRepairsTrailingComma(t *testing.T) {
	t.Parallel()

	raw, err := ExtractJSON(`{"a": 1, "b": "two",}`)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out, 2)
}

func TestExtractJSONArray(t *testing.T) {
	t.Parallel()

	raw, err := ExtractJSON(`["a", "b"]`)
	require.NoError(t, err)

	var out []string
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestExtractJSONRejectsNonDocuments(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "no json here at all"} {
		_, err := ExtractJSON(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestStripWrapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a": 1}`, stripWrapping("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripWrapping(`preamble {"a": 1} postamble`))
	assert.Equal(t, `[1, 2]`, stripWrapping(`the list is [1, 2] thanks`))
	// Object wins when it opens first.
	assert.Equal(t, `{"xs": [1, 2]}`, stripWrapping(`{"xs": [1, 2]}`))
}

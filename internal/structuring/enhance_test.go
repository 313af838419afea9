package structuring

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/program"
	"github.com/meridianlending/underwrite/pkg/llm"
	llmmocks "github.com/meridianlending/underwrite/pkg/llm/mocks"
)

func enhancerFixture(t *testing.T) (*model.StructureDealInput, *model.RulesEngineOutput) {
	t.Helper()
	in := dealInput(t, program.CommercialCRE, 1_000_000)
	out, err := NewEngine(nil).Run(context.Background(), in)
	require.NoError(t, err)
	return in, out
}

func TestEnhancerNilGenerator(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)
	enh := NewEnhancer(nil, 0).Run(context.Background(), in, rules)
	assert.Equal(t, model.EmptyEnhancement(), enh)
}

func TestEnhancerCoercesShape(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)

	// Numeric smuggling and malformed fields are dropped; blank entries are
	// filtered.
	gen := llmmocks.NewMockGenerator(t)
	gen.On("GenerateJSON", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{
			"custom_covenants": ["Quarterly site inspection during lease-up", "  "],
			"additional_conditions": "not a list",
			"special_terms": [],
			"justification": "Occupancy history supports standard terms.",
			"approved_amount": 9999999
		}`), llm.Usage{}, nil).
		Once()

	enh := NewEnhancer(gen, 0).Run(context.Background(), in, rules)
	assert.Equal(t, []string{"Quarterly site inspection during lease-up"}, enh.CustomCovenants)
	assert.Empty(t, enh.AdditionalConditions)
	assert.Empty(t, enh.SpecialTerms)
	assert.Equal(t, "Occupancy history supports standard terms.", enh.Justification)
}

func TestEnhancerMalformedJustification(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)

	gen := llmmocks.NewMockGenerator(t)
	gen.On("GenerateJSON", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"custom_covenants":[],"justification":42}`), llm.Usage{}, nil).
		Once()

	enh := NewEnhancer(gen, 0).Run(context.Background(), in, rules)
	assert.Empty(t, enh.Justification)
}

func TestEnhancerDegradesOnError(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)

	gen := llmmocks.NewMockGenerator(t)
	gen.On("GenerateJSON", mock.Anything, mock.Anything).
		Return(json.RawMessage(nil), llm.Usage{}, eris.New("deadline exceeded")).
		Once()

	enh := NewEnhancer(gen, 0).Run(context.Background(), in, rules)
	assert.Equal(t, model.EmptyEnhancement(), enh)
}

func TestEnhancerDegradesOnNonObject(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)

	gen := llmmocks.NewMockGenerator(t)
	gen.On("GenerateJSON", mock.Anything, mock.Anything).
		Return(json.RawMessage(`["not","an","object"]`), llm.Usage{}, nil).
		Once()

	enh := NewEnhancer(gen, 0).Run(context.Background(), in, rules)
	assert.Equal(t, model.EmptyEnhancement(), enh)
}

func TestEnhancePromptCarriesDealFigures(t *testing.T) {
	t.Parallel()
	in, rules := enhancerFixture(t)
	prompt := enhancePrompt(in, rules)
	assert.Contains(t, prompt, in.BorrowerName)
	assert.Contains(t, prompt, "$1,000,000.00")
	assert.Contains(t, prompt, "Risk rating: low")
}

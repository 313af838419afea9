package structuring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/money"
	"github.com/meridianlending/underwrite/pkg/llm"
)

const enhanceSystemPrompt = `You are a senior commercial credit officer reviewing an already-priced loan.
The term sheet is final: you may not change any amount, rate, term, payment, or fee.
Your job is to add deal-specific narrative color on top of the standard terms.

Respond with a single JSON object, no other text:
{
  "custom_covenants": ["covenant tailored to this borrower's specific risks"],
  "additional_conditions": ["closing condition beyond the standard list"],
  "special_terms": ["non-numeric special term worth documenting"],
  "justification": "2-4 sentences explaining why these terms fit this credit"
}

Every entry must be prose. Never include numbers that restate or alter the term
sheet. Empty arrays are acceptable when the standard terms already fit.`

// Enhancer layers borrower-specific narrative onto a priced deal. It is a
// strictly additive stage: nothing it returns can move a number, and any
// failure degrades to the empty enhancement rather than an error.
type Enhancer struct {
	gen     llm.Generator
	timeout time.Duration
}

// NewEnhancer wraps gen. A nil gen disables enhancement entirely, which is
// the offline mode.
func NewEnhancer(gen llm.Generator, timeout time.Duration) *Enhancer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Enhancer{gen: gen, timeout: timeout}
}

// Run produces the narrative enhancement for a priced deal. It never returns
// an error: timeouts, transport failures, and malformed model output all
// degrade to the empty enhancement and the pipeline continues.
func (e *Enhancer) Run(ctx context.Context, in *model.StructureDealInput, rules *model.RulesEngineOutput) *model.AiEnhancement {
	if e == nil || e.gen == nil {
		return model.EmptyEnhancement()
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, _, err := e.gen.GenerateJSON(ctx, llm.GenerateRequest{
		System:    enhanceSystemPrompt,
		Prompt:    enhancePrompt(in, rules),
		MaxTokens: 1024,
	})
	if err != nil {
		zap.L().Warn("narrative enhancement unavailable, continuing with rules output",
			zap.String("borrower", in.BorrowerName),
			zap.Error(err))
		return model.EmptyEnhancement()
	}

	enh, ok := coerceEnhancement(raw)
	if !ok {
		zap.L().Warn("narrative enhancement malformed, continuing with rules output",
			zap.String("borrower", in.BorrowerName))
		return model.EmptyEnhancement()
	}
	return enh
}

// enhancePrompt summarizes the deal for the generator. Figures are included
// read-only so the narrative can reference them.
func enhancePrompt(in *model.StructureDealInput, rules *model.RulesEngineOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Borrower: %s\n", in.BorrowerName)
	fmt.Fprintf(&b, "Program: %s\n", in.Program.Name)
	if in.LoanPurpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", in.LoanPurpose)
	}
	fmt.Fprintf(&b, "Approved amount: %s\n", money.FormatUSD(rules.ApprovedAmount))
	fmt.Fprintf(&b, "Rate: %s (%s %s + %s spread)\n",
		money.FormatPercent(rules.Rate.TotalRate, 3),
		rules.Rate.BaseRateType,
		money.FormatPercent(rules.Rate.BaseRateValue, 3),
		money.FormatPercent(rules.Rate.Spread, 3))
	fmt.Fprintf(&b, "Term: %d months", rules.TermMonths)
	if rules.InterestOnly {
		b.WriteString(", interest only")
	} else if rules.AmortizationMonths > 0 {
		fmt.Fprintf(&b, ", %d month amortization", rules.AmortizationMonths)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Monthly payment: %s\n", money.FormatUSD(rules.MonthlyPayment))
	fmt.Fprintf(&b, "Risk rating: %s (score %.0f)\n", in.Analysis.Summary.RiskRating, in.Analysis.RiskScore)

	if dscr := in.Analysis.Summary.GlobalDSCR; dscr != nil {
		fmt.Fprintf(&b, "Global DSCR: %s\n", money.FormatRatio(*dscr))
	}
	if dti := in.Analysis.Summary.BackEndDTI; dti != nil {
		fmt.Fprintf(&b, "Back-end DTI: %s\n", money.FormatPercent(*dti, 1))
	}
	fmt.Fprintf(&b, "Months of reserves: %.1f\n", in.Analysis.Summary.MonthsOfReserves)

	if len(in.Analysis.RiskFlags) > 0 {
		b.WriteString("Risk flags:\n")
		for _, f := range in.Analysis.RiskFlags {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Title, f.Description)
		}
	}
	if len(rules.Eligibility.Warnings) > 0 {
		b.WriteString("Eligibility warnings:\n")
		for _, w := range rules.Eligibility.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// coerceEnhancement validates model output against the enhancement shape.
// Unknown fields are dropped, malformed fields fall back to their zero
// values, and anything that is not a JSON object fails coercion.
func coerceEnhancement(raw json.RawMessage) (*model.AiEnhancement, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}

	out := &model.AiEnhancement{
		CustomCovenants:      stringList(fields["custom_covenants"]),
		AdditionalConditions: stringList(fields["additional_conditions"]),
		SpecialTerms:         stringList(fields["special_terms"]),
	}
	if j, ok := fields["justification"]; ok {
		_ = json.Unmarshal(j, &out.Justification)
	}
	return out, true
}

// stringList parses a JSON array of strings, dropping blanks. Anything else
// coerces to the empty list.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return out
	}
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

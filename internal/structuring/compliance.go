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

const reviewSystemPrompt = `You are a lending compliance officer performing a second-line review of a
structured loan. Statutory rate caps, size caps, and disclosure triggers have
already been checked mechanically; do not repeat them. Look for issues the
mechanical checks cannot see: fair-lending concerns, licensing questions,
collateral or purpose mismatches, documentation gaps.

Respond with a single JSON object, no other text:
{
  "issues": [
    {
      "severity": "critical|warning|info",
      "regulation": "the regulation or rule implicated",
      "description": "what the concern is",
      "recommendation": "what to do about it"
    }
  ]
}

Use "critical" only for violations that would make the loan unlawful as
structured. An empty issues array means no additional concerns.`

// Compliance reviews a priced deal in two layers: deterministic statutory
// checks that always run, and an external narrative review that degrades to
// a manual-review warning when unavailable. Only critical issues make the
// deal non-compliant.
type Compliance struct {
	gen     llm.Generator
	tables  *complianceTables
	timeout time.Duration
	now     func() time.Time
}

// NewCompliance builds the reviewer. A nil gen skips the external layer and
// every deal carries the manual-review warning instead.
func NewCompliance(gen llm.Generator, timeout time.Duration) (*Compliance, error) {
	tables, err := loadComplianceTables()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Compliance{gen: gen, tables: tables, timeout: timeout, now: time.Now}, nil
}

// Run executes the program's deterministic checks plus the always-on ones,
// then the external review, and merges everything into one result.
func (c *Compliance) Run(ctx context.Context, in *model.StructureDealInput, rules *model.RulesEngineOutput) *model.ComplianceResult {
	res := &model.ComplianceResult{
		Issues:     []model.ComplianceIssue{},
		ReviewedAt: c.now().UTC(),
	}

	record := func(name string, issues ...*model.ComplianceIssue) {
		res.DeterministicChecks = append(res.DeterministicChecks, name)
		for _, is := range issues {
			if is != nil {
				res.Issues = append(res.Issues, *is)
			}
		}
	}

	ran := make(map[string]bool)
	for _, name := range in.Program.ComplianceChecks {
		ran[name] = true
		switch name {
		case "state_usury":
			record(name, c.checkUsury(in, rules))
		case "sba_7a_caps":
			record(name, checkSBA7aCaps(rules)...)
		case "sba_504_cap":
			record(name, checkSBA504Cap(rules))
		case "tila_apr":
			record(name, checkTILAAPR(rules))
		case "ecoa":
			record(name, ecoaReminder())
		default:
			zap.L().Warn("unknown compliance check on program",
				zap.String("program", in.Program.ID),
				zap.String("check", name))
		}
	}
	if !ran["ecoa"] {
		record("ecoa", ecoaReminder())
	}
	record("state_disclosures", c.checkDisclosures(in))
	record("prepayment_penalty", checkPrepayment(in.Program, rules))

	ai := c.externalReview(ctx, in, rules)
	res.AIReviewIssues = ai
	res.Issues = append(res.Issues, ai...)

	res.Compliant = true
	for _, is := range res.Issues {
		if is.Severity == model.ComplianceCritical {
			res.Compliant = false
			break
		}
	}
	return res
}

func (c *Compliance) checkUsury(in *model.StructureDealInput, rules *model.RulesEngineOutput) *model.ComplianceIssue {
	if in.StateAbbr == "" {
		return nil
	}
	state := strings.ToUpper(strings.TrimSpace(in.StateAbbr))
	isCommercial := in.Program.Category != model.CategoryResidential
	ceiling, ok := c.tables.usuryCeiling(state, isCommercial)
	if !ok || rules.Rate.TotalRate <= ceiling+1e-9 {
		return nil
	}
	kind := "consumer"
	if isCommercial {
		kind = "commercial"
	}
	return &model.ComplianceIssue{
		Severity:   model.ComplianceCritical,
		Regulation: fmt.Sprintf("%s usury statute", state),
		Description: fmt.Sprintf("total rate %s exceeds the %s %s usury limit of %s",
			money.FormatPercent(rules.Rate.TotalRate, 2), state, kind, money.FormatPercent(ceiling, 2)),
		Recommendation: "Reprice below the statutory ceiling or document an applicable exemption",
	}
}

// SBA 7(a) statutory size and variable-rate caps. The rate cap tiers differ
// from the pricing tiers: the cap steps down to prime plus 2.75% above
// $250,000 with no intermediate step.
func checkSBA7aCaps(rules *model.RulesEngineOutput) []*model.ComplianceIssue {
	var issues []*model.ComplianceIssue
	if rules.ApprovedAmount > 5_000_000 {
		issues = append(issues, &model.ComplianceIssue{
			Severity:   model.ComplianceCritical,
			Regulation: "SBA SOP 50 10",
			Description: fmt.Sprintf("approved amount %s exceeds the SBA 7(a) maximum of $5,000,000",
				money.FormatUSDWhole(rules.ApprovedAmount)),
			Recommendation: "Reduce the SBA-guaranteed portion or restructure as a conventional facility",
		})
	}

	var capOverPrime float64
	switch {
	case rules.ApprovedAmount <= 50_000:
		capOverPrime = 0.065
	case rules.ApprovedAmount <= 250_000:
		capOverPrime = 0.06
	default:
		capOverPrime = 0.0275
	}
	maxRate := rules.Rate.BaseRateValue + capOverPrime
	if rules.Rate.TotalRate > maxRate+1e-9 {
		issues = append(issues, &model.ComplianceIssue{
			Severity:   model.ComplianceCritical,
			Regulation: "SBA SOP 50 10",
			Description: fmt.Sprintf("total rate %s exceeds the SBA 7(a) cap of prime plus %s (%s) at this loan size",
				money.FormatPercent(rules.Rate.TotalRate, 2),
				money.FormatPercent(capOverPrime, 2),
				money.FormatPercent(maxRate, 2)),
			Recommendation: "Reprice within the SBA variable-rate maximum",
		})
	}
	return issues
}

func checkSBA504Cap(rules *model.RulesEngineOutput) *model.ComplianceIssue {
	if rules.ApprovedAmount <= 5_000_000 {
		return nil
	}
	return &model.ComplianceIssue{
		Severity:   model.ComplianceCritical,
		Regulation: "SBA SOP 50 10",
		Description: fmt.Sprintf("approved amount %s exceeds the SBA 504 debenture maximum of $5,000,000",
			money.FormatUSDWhole(rules.ApprovedAmount)),
		Recommendation: "Verify whether the project qualifies for the $5.5M manufacturing or energy public policy exception",
	}
}

// checkTILAAPR is a coarse Reg Z screen: it spreads the one-time fees evenly
// over the term and flags when the resulting APR estimate runs far above the
// note rate. It is a triage signal, not a disclosure-grade APR.
func checkTILAAPR(rules *model.RulesEngineOutput) *model.ComplianceIssue {
	if rules.ApprovedAmount <= 0 || rules.TermMonths <= 0 {
		return nil
	}
	years := float64(rules.TermMonths) / 12
	apr := rules.Rate.TotalRate + rules.TotalFees/rules.ApprovedAmount/years
	if apr <= 1.5*rules.Rate.TotalRate {
		return nil
	}
	return &model.ComplianceIssue{
		Severity:   model.ComplianceWarning,
		Regulation: "TILA / Regulation Z",
		Description: fmt.Sprintf("estimated APR %s runs well above the note rate %s once fees are included",
			money.FormatPercent(apr, 2), money.FormatPercent(rules.Rate.TotalRate, 2)),
		Recommendation: "Prepare full Regulation Z disclosures and verify the fee structure before closing",
	}
}

func (c *Compliance) checkDisclosures(in *model.StructureDealInput) *model.ComplianceIssue {
	if in.StateAbbr == "" {
		return nil
	}
	list := c.tables.stateDisclosures(in.StateAbbr)
	if len(list) == 0 {
		return nil
	}
	return &model.ComplianceIssue{
		Severity:       model.ComplianceInfo,
		Regulation:     fmt.Sprintf("%s financing disclosure law", strings.ToUpper(strings.TrimSpace(in.StateAbbr))),
		Description:    strings.Join(list, "; "),
		Recommendation: "Deliver the required disclosures before consummation",
	}
}

func checkPrepayment(p *model.LoanProgram, rules *model.RulesEngineOutput) *model.ComplianceIssue {
	if rules.PrepaymentPenalty == "" || !p.HasRegulation("Dodd-Frank Act") {
		return nil
	}
	return &model.ComplianceIssue{
		Severity:   model.ComplianceWarning,
		Regulation: "Dodd-Frank Act ATR/QM",
		Description: fmt.Sprintf("prepayment penalty (%s) on a Dodd-Frank covered loan is restricted in scope and duration",
			rules.PrepaymentPenalty),
		Recommendation: "Confirm the penalty structure fits the qualified mortgage limits or remove it",
	}
}

func ecoaReminder() *model.ComplianceIssue {
	return &model.ComplianceIssue{
		Severity:       model.ComplianceInfo,
		Regulation:     "ECOA / Regulation B",
		Description:    "Fair lending obligations apply: consistent underwriting standards and timely adverse action notices",
		Recommendation: "Retain the decision record and issue notices within 30 days of a completed application",
	}
}

// manualReviewWarning is the degraded external-review result.
func manualReviewWarning() []model.ComplianceIssue {
	return []model.ComplianceIssue{{
		Severity:       model.ComplianceWarning,
		Regulation:     "internal policy",
		Description:    "manual compliance review required: automated narrative review was unavailable",
		Recommendation: "Route to the compliance team before closing",
	}}
}

func (c *Compliance) externalReview(ctx context.Context, in *model.StructureDealInput, rules *model.RulesEngineOutput) []model.ComplianceIssue {
	if c.gen == nil {
		return manualReviewWarning()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, _, err := c.gen.GenerateJSON(ctx, llm.GenerateRequest{
		System:    reviewSystemPrompt,
		Prompt:    reviewPrompt(in, rules),
		MaxTokens: 1024,
	})
	if err != nil {
		zap.L().Warn("external compliance review unavailable",
			zap.String("borrower", in.BorrowerName),
			zap.Error(err))
		return manualReviewWarning()
	}

	issues, ok := coerceReviewIssues(raw)
	if !ok {
		zap.L().Warn("external compliance review malformed",
			zap.String("borrower", in.BorrowerName))
		return manualReviewWarning()
	}
	return issues
}

func reviewPrompt(in *model.StructureDealInput, rules *model.RulesEngineOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Borrower: %s\n", in.BorrowerName)
	fmt.Fprintf(&b, "Program: %s (%s)\n", in.Program.Name, in.Program.Category)
	if in.StateAbbr != "" {
		fmt.Fprintf(&b, "State: %s\n", strings.ToUpper(in.StateAbbr))
	}
	if in.LoanPurpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", in.LoanPurpose)
	}
	fmt.Fprintf(&b, "Approved amount: %s\n", money.FormatUSD(rules.ApprovedAmount))
	fmt.Fprintf(&b, "Total rate: %s, term %d months\n", money.FormatPercent(rules.Rate.TotalRate, 3), rules.TermMonths)
	fmt.Fprintf(&b, "Total fees: %s\n", money.FormatUSD(rules.TotalFees))
	if rules.PrepaymentPenalty != "" {
		fmt.Fprintf(&b, "Prepayment penalty: %s\n", rules.PrepaymentPenalty)
	}
	if len(in.Program.ApplicableRegulations) > 0 {
		fmt.Fprintf(&b, "Program regulations: %s\n", strings.Join(in.Program.ApplicableRegulations, ", "))
	}
	if !rules.Eligibility.Eligible {
		b.WriteString("Eligibility failures:\n")
		for _, f := range rules.Eligibility.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// coerceReviewIssues validates the external review payload. Entries with no
// description are dropped; unrecognized severities downgrade to warning.
func coerceReviewIssues(raw json.RawMessage) ([]model.ComplianceIssue, bool) {
	var payload struct {
		Issues []struct {
			Severity       string `json:"severity"`
			Regulation     string `json:"regulation"`
			Description    string `json:"description"`
			Recommendation string `json:"recommendation"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}

	out := []model.ComplianceIssue{}
	for _, is := range payload.Issues {
		desc := strings.TrimSpace(is.Description)
		if desc == "" {
			continue
		}
		var sev model.ComplianceSeverity
		switch strings.ToLower(strings.TrimSpace(is.Severity)) {
		case "critical":
			sev = model.ComplianceCritical
		case "info", "informational":
			sev = model.ComplianceInfo
		default:
			sev = model.ComplianceWarning
		}
		out = append(out, model.ComplianceIssue{
			Severity:       sev,
			Regulation:     strings.TrimSpace(is.Regulation),
			Description:    desc,
			Recommendation: strings.TrimSpace(is.Recommendation),
		})
	}
	return out, true
}

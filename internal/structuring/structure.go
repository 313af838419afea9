package structuring

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
)

// Pipeline runs the full structuring sequence for one deal: rules engine,
// narrative enhancement, compliance review, final check. The stages run
// strictly in that order; the enhancer never sees compliance output and the
// final check sees everything.
type Pipeline struct {
	engine     *Engine
	enhancer   *Enhancer
	compliance *Compliance
}

// NewPipeline assembles the pipeline. A nil engine prices off static rates;
// a nil enhancer disables narrative enhancement; a nil compliance reviewer
// is replaced with one that runs the deterministic checks only.
func NewPipeline(engine *Engine, enhancer *Enhancer, compliance *Compliance) (*Pipeline, error) {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if compliance == nil {
		var err error
		compliance, err = NewCompliance(nil, 0)
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{engine: engine, enhancer: enhancer, compliance: compliance}, nil
}

// StructureDeal produces the complete structuring artifact for one deal, or
// a pipeline-level error that leaves the deal untouched. Degraded external
// stages are not errors; they surface as warnings on the output.
func (p *Pipeline) StructureDeal(ctx context.Context, in *model.StructureDealInput) (*model.StructureDealOutput, error) {
	switch {
	case in == nil:
		return nil, eris.New("structuring: input is required")
	case in.Analysis == nil:
		return nil, eris.New("structuring: analysis is required")
	case in.Program == nil:
		return nil, eris.New("structuring: program is required")
	case in.BorrowerName == "":
		return nil, eris.New("structuring: borrower name is required")
	case in.RequestedAmount <= 0:
		return nil, eris.New("structuring: requested amount must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "structuring: cancelled")
	}

	log := zap.L().With(
		zap.String("borrower", in.BorrowerName),
		zap.String("program", in.Program.ID),
	)

	rules, err := p.engine.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "structuring: cancelled")
	}

	enhancement := p.enhancer.Run(ctx, in, rules)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "structuring: cancelled")
	}

	compliance := p.compliance.Run(ctx, in, rules)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "structuring: cancelled")
	}

	final := FinalCheck(rules, in.Program, compliance)

	out := &model.StructureDealOutput{
		Rules:          rules,
		Enhancement:    enhancement,
		Compliance:     compliance,
		FinalCheck:     final,
		DeclineReasons: []string{},
	}

	out.DeclineReasons = append(out.DeclineReasons, rules.Eligibility.Failures...)
	for _, is := range compliance.Issues {
		if is.Severity == model.ComplianceCritical {
			out.DeclineReasons = append(out.DeclineReasons, is.Description)
		}
	}
	for _, is := range final.Errors() {
		out.DeclineReasons = append(out.DeclineReasons, is.Message)
	}

	out.Status = decideStatus(out)

	log.Info("deal structured",
		zap.String("status", string(out.Status)),
		zap.Float64("approved_amount", rules.ApprovedAmount),
		zap.Float64("total_rate", rules.Rate.TotalRate),
		zap.Int("decline_reasons", len(out.DeclineReasons)),
		zap.Bool("final_check_passed", final.Passed))
	return out, nil
}

// decideStatus applies the status rules. Nothing auto-declines: failures and
// warnings both land in needs_review so a human always sees a complete,
// reviewable record.
func decideStatus(out *model.StructureDealOutput) model.DealStatus {
	if len(out.DeclineReasons) > 0 {
		return model.DealStatusNeedsReview
	}
	if len(out.Rules.Eligibility.Warnings) > 0 {
		return model.DealStatusNeedsReview
	}
	for _, is := range out.Compliance.Issues {
		if is.Severity == model.ComplianceWarning {
			return model.DealStatusNeedsReview
		}
	}
	if len(out.FinalCheck.Warnings()) > 0 {
		return model.DealStatusNeedsReview
	}
	return model.DealStatusApproved
}

package structuring

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridianlending/underwrite/internal/model"
)

// BatchResult pairs one batch input with its outcome. Exactly one of Output
// and Err is set.
type BatchResult struct {
	Input  *model.StructureDealInput
	Output *model.StructureDealOutput
	Err    error
}

// StructureBatch structures deals concurrently. Deals share no state, so the
// only coordination is the concurrency limit. One deal failing does not stop
// the rest; results come back in input order.
func (p *Pipeline) StructureBatch(ctx context.Context, inputs []*model.StructureDealInput, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]BatchResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			out, err := p.StructureDeal(ctx, in)
			results[i] = BatchResult{Input: in, Output: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

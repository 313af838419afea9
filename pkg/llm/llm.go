// Package llm is the JSON-generation port the structuring pipeline uses for
// narrative enhancement and compliance review. Implementations must return
// raw JSON; callers own schema validation and every numeric decision.
package llm

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// GenerateRequest asks for a single JSON document.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// Usage tracks token consumption for one call.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// Generator produces a JSON document from a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (json.RawMessage, Usage, error)
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// EstimateCost computes an estimated cost in USD for the given model.
// Returns 0 for unknown models.
func (u Usage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	cacheWriteCost := (float64(u.CacheCreationInputTokens) / 1e6) * pricing[0] * 1.25
	cacheReadCost := (float64(u.CacheReadInputTokens) / 1e6) * pricing[0] * 0.1
	return inCost + outCost + cacheWriteCost + cacheReadCost
}

// Log emits token usage and estimated cost for one call.
func (u Usage) Log(model, operation string) {
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("operation", operation),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/meridianlending/underwrite/internal/resilience"
)

// AnthropicConfig tunes the SDK-backed generator.
type AnthropicConfig struct {
	APIKey string

	// Model defaults to the current Sonnet release.
	Model string

	// MaxTokens is the default ceiling when a request does not set one.
	MaxTokens int64

	// RequestTimeout bounds each attempt. Default 60s.
	RequestTimeout time.Duration

	// RequestsPerMinute throttles outbound calls. 0 disables throttling.
	RequestsPerMinute int

	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig
}

// Anthropic implements Generator over the official SDK, with request
// throttling, transient-error retry, and a circuit breaker.
type Anthropic struct {
	client  sdk.Client
	cfg     AnthropicConfig
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewAnthropic builds the SDK-backed generator.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 1)
	}

	return &Anthropic{
		client:  sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:     cfg,
		limiter: limiter,
		breaker: resilience.NewBreaker(cfg.Breaker),
	}
}

// GenerateJSON implements Generator. The model's text output is repaired
// into a JSON document; transport and parse failures both surface as errors
// so the caller can degrade.
func (a *Anthropic) GenerateJSON(ctx context.Context, req GenerateRequest) (json.RawMessage, Usage, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, Usage{}, eris.Wrap(err, "llm: rate limit wait")
		}
	}

	retryCfg := a.cfg.Retry
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = resilience.RetryLogger("anthropic", "generate_json")
	}

	msg, err := resilience.RetryVal(ctx, retryCfg, func(ctx context.Context) (*sdk.Message, error) {
		return resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (*sdk.Message, error) {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
			defer cancel()
			return a.createMessage(callCtx, req)
		})
	})
	if err != nil {
		return nil, Usage{}, eris.Wrap(err, "llm: generate json")
	}

	usage := Usage{
		InputTokens:              msg.Usage.InputTokens,
		OutputTokens:             msg.Usage.OutputTokens,
		CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
	}
	usage.Log(a.cfg.Model, "generate_json")

	text := collectText(msg)
	if text == "" {
		return nil, usage, eris.New("llm: empty model response")
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, usage, err
	}
	return raw, usage, nil
}

func (a *Anthropic) createMessage(ctx context.Context, req GenerateRequest) (*sdk.Message, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.cfg.Model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		// Cache the system prompt: batch runs reuse it across deals.
		params.System = []sdk.TextBlockParam{{
			Text:         req.System,
			CacheControl: sdk.NewCacheControlEphemeralParam(),
		}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAPIError(err)
	}
	return msg, nil
}

// classifyAPIError marks retryable API failures as transient so the retry
// and breaker layers treat them correctly.
func classifyAPIError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && resilience.IsRetryableStatus(apiErr.StatusCode) {
		return resilience.NewTransient(err, apiErr.StatusCode)
	}
	return err
}

func collectText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

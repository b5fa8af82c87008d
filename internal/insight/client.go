// internal/insight/client.go
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/moodline/internal/types"
	"github.com/user/moodline/pkg/llm"
)

const displayFormat = "3:04 PM"

// Generator produces insights from a day's timeline, trying a chain of
// models with per-model retry before giving up.
type Generator struct {
	provider llm.Provider
	models   []string
	decoder  Decoder
	mode     string
	retry    *RetryPolicy
	builder  *Builder
	apiKey   string
	logger   *slog.Logger
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Models      []string
	ExtractMode string
	MaxTokens   int // prompt token budget, 0 disables truncation
	APIKey      string
	Retry       *RetryPolicy
	Logger      *slog.Logger
}

// NewGenerator creates a Generator backed by the given provider.
func NewGenerator(provider llm.Provider, opts GeneratorOptions) (*Generator, error) {
	if len(opts.Models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}
	builder, err := NewBuilder(opts.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("create prompt builder: %w", err)
	}
	retry := opts.Retry
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		models:   opts.Models,
		decoder:  DecoderFor(opts.ExtractMode),
		mode:     opts.ExtractMode,
		retry:    retry,
		builder:  builder,
		apiKey:   opts.APIKey,
		logger:   logger,
	}, nil
}

// Generate runs one insight generation over the given timeline. It never
// returns a Go error for provider failures; degraded outcomes are reported
// through the result's Error field so callers always have something to
// store or deliver.
func (g *Generator) Generate(ctx context.Context, entries []types.TimelineEntry) *types.InsightResult {
	if len(entries) == 0 {
		return g.failure("No emotion data available yet. Start tracking your emotions to receive insights.")
	}
	if g.apiKey == "" {
		return g.failure("LLM API key not configured.")
	}

	data := g.builder.Render(entries)
	prompt := instructionsFor(g.mode, data)

	var lastErr error
	for _, model := range g.models {
		payload, err := g.tryModel(ctx, model, prompt)
		if err != nil {
			g.logger.Warn("model failed", "model", model, "error", err)
			lastErr = err
			continue
		}
		return &types.InsightResult{
			ID:        types.NewInsightID(),
			Summary:   payload.Summary,
			Insight:   payload.Insight,
			Prompt:    payload.Prompt,
			Model:     model,
			Timestamp: time.Now().Format(displayFormat),
		}
	}
	return g.failure(fmt.Sprintf("All models failed. Last error: %v", lastErr))
}

// tryModel calls one model with retry and runs the extraction cascade over
// its response.
func (g *Generator) tryModel(ctx context.Context, model, prompt string) (*Payload, error) {
	var resp *llm.Response
	err := g.retry.Execute(ctx, func() error {
		var callErr error
		resp, callErr = g.provider.Complete(ctx, llm.Request{
			Model:  model,
			System: systemPrompt,
			Prompt: prompt,
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("complete with %s: %w", model, err)
	}

	payload, err := Extract(resp.Content, g.decoder)
	if err != nil {
		return nil, fmt.Errorf("extract payload from %s response: %w", model, err)
	}
	return payload, nil
}

func (g *Generator) failure(msg string) *types.InsightResult {
	return &types.InsightResult{
		ID:        types.NewInsightID(),
		Error:     msg,
		Timestamp: time.Now().Format(displayFormat),
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/user/moodline/internal/config"
	"github.com/user/moodline/internal/delivery"
	"github.com/user/moodline/internal/insight"
	"github.com/user/moodline/internal/telegram"
	"github.com/user/moodline/internal/timeline"
	"github.com/user/moodline/internal/types"
	"github.com/user/moodline/pkg/llm"
	"github.com/user/moodline/pkg/llm/anthropic"
)

// timelineOptions maps config to assembler options.
func timelineOptions(cfg *config.Config) timeline.Options {
	return timeline.Options{
		Window:         time.Duration(cfg.Timeline.WindowMinutes) * time.Minute,
		MaxSample:      cfg.Timeline.MaxSample,
		SampleStrategy: timeline.Strategy(cfg.Timeline.SampleStrategy),
		Mode:           timeline.Mode(cfg.Timeline.Mode),
		PeakTopK:       cfg.Timeline.PeakTopK,
		AverageTopK:    cfg.Timeline.AverageTopK,
		Label:          timeline.LabelPolicy(cfg.Timeline.Label),
	}
}

// newGenerator builds the insight generator from config.
func newGenerator(cfg *config.Config) (*insight.Generator, error) {
	provider := anthropic.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	gen, err := insight.NewGenerator(provider, insight.GeneratorOptions{
		Models:      cfg.LLM.Models,
		ExtractMode: cfg.LLM.ExtractMode,
		MaxTokens:   cfg.LLM.MaxPromptTokens,
		APIKey:      cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create insight generator: %w", err)
	}
	return gen, nil
}

// newDeliveryRegistry builds the delivery registry: stdout always, telegram
// when a bot token is configured.
func newDeliveryRegistry(cfg *config.Config) (*delivery.Registry, error) {
	reg := delivery.NewRegistry()
	reg.Register("stdout:", func(_ string, result *types.InsightResult) error {
		fmt.Fprintln(os.Stdout, delivery.Format(result))
		return nil
	})
	if cfg.Telegram.Token != "" {
		notifier, err := telegram.New(cfg.Telegram.Token)
		if err != nil {
			return nil, fmt.Errorf("create telegram notifier: %w", err)
		}
		notifier.RegisterWith(reg)
		slog.Info("telegram notifier registered")
	}
	return reg, nil
}

// dayArg parses an optional YYYY-MM-DD positional argument, defaulting to
// today.
func dayArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}

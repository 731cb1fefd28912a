package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raintag/raintag/internal/ai"
	"github.com/raintag/raintag/internal/ai/provider"
	"github.com/raintag/raintag/internal/ai/provider/anthropic"
	"github.com/raintag/raintag/internal/ai/provider/gemini"
	"github.com/raintag/raintag/internal/ai/provider/openai"
	"github.com/raintag/raintag/internal/config"
	"github.com/raintag/raintag/internal/history"
	"github.com/raintag/raintag/internal/retry"
	"github.com/raintag/raintag/internal/tagging"
	"github.com/raintag/raintag/pkg/clients/raindrop"
)

// RunDependencies contains everything a tagging run needs, wired from the
// configuration once and reused across runs.
type RunDependencies struct {
	Config   *config.Config
	Raindrop *raindrop.Client

	// History is nil when run history is disabled or unavailable.
	History history.Store

	categorizer *ai.Categorizer
}

// BuildRunDependencies creates the Raindrop client, the language model
// provider, and the optional history store from the configuration.
func BuildRunDependencies(ctx context.Context, cfg *config.Config) (*RunDependencies, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("Building run dependencies")

	raindropClient := raindrop.NewClient(
		raindrop.WithToken(cfg.RaindropToken),
		raindrop.WithCollection(cfg.Collection),
		raindrop.WithTimeout(cfg.RequestTimeout),
		raindrop.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Minute,
		}),
		raindrop.WithPaceInterval(cfg.RaindropDelay),
	)

	model, err := buildLanguageModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	categorizer := ai.NewCategorizer(ai.CategorizerDependencies{
		Model: model,
		Retry: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    5 * time.Minute,
		},
		PaceInterval: cfg.AIDelay,
	})

	deps := &RunDependencies{
		Config:      cfg,
		Raindrop:    raindropClient,
		categorizer: categorizer,
	}

	if cfg.HistoryEnabled {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			// Tagging still works without history, so degrade instead
			// of refusing to run
			log.Warn().Err(err).Msg("Could not open run history, continuing without it")
		} else {
			deps.History = store
		}
	}

	return deps, nil
}

func buildLanguageModel(ctx context.Context, cfg *config.Config) (provider.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.Model), nil
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.Model)
	default:
		return anthropic.New(cfg.AnthropicAPIKey, cfg.Model), nil
	}
}

// Run executes one tagging pass and records the finished summary in the
// history store.
func (d *RunDependencies) Run(ctx context.Context, dryRun bool) (tagging.RunSummary, error) {
	pipeline := tagging.NewPipeline(tagging.PipelineDependencies{
		Source:      d.Raindrop,
		Categorizer: d.categorizer,
		Provider:    d.Config.Provider,
		Model:       d.Config.Model,
		BatchSize:   d.Config.BatchSize,
		PageSize:    d.Config.PageSize,
		MaxPages:    d.Config.MaxPages,
		DryRun:      dryRun,
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return summary, err
	}

	if d.History != nil {
		if err := d.History.RecordRun(ctx, summary); err != nil {
			log.Warn().Err(err).Str("run_id", summary.RunID).Msg("Could not record run in history")
		}
	}

	return summary, nil
}

// Close releases the resources held by the dependencies.
func (d *RunDependencies) Close() {
	if d.History != nil {
		if err := d.History.Close(); err != nil {
			log.Warn().Err(err).Msg("Could not close run history cleanly")
		}
	}
}

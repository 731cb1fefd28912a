// Package ai turns batches of bookmarks into tag assignments by prompting
// a language model and strictly validating what comes back.
package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raintag/raintag/internal/ai/provider"
	"github.com/raintag/raintag/internal/retry"
)

const (
	defaultTemperature float32 = 0.3
	defaultMaxTokens           = 4096
)

// Bookmark is the sanitized view of a bookmark sent to the model.
type Bookmark struct {
	ID      int64
	Title   string
	Excerpt string
	URL     string
	Domain  string
}

// Assignment pairs a bookmark with the tags the model proposed for it.
type Assignment struct {
	BookmarkID int64
	Tags       []string
}

// Categorizer asks a language model to tag batches of bookmarks.
type Categorizer struct {
	model provider.LanguageModel
	retry retry.Policy
	pacer *retry.Pacer

	temperature float32
	maxTokens   int
}

type CategorizerDependencies struct {
	Model        provider.LanguageModel
	Retry        retry.Policy
	PaceInterval time.Duration
}

// NewCategorizer creates a categorizer on the given model. A zero Retry
// falls back to the model-call defaults.
func NewCategorizer(deps CategorizerDependencies) *Categorizer {
	policy := deps.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    5 * time.Minute,
		}
	}

	return &Categorizer{
		model:       deps.Model,
		retry:       policy,
		pacer:       retry.NewPacer(deps.PaceInterval),
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
}

// Categorize requests tags for every bookmark in the batch. The result
// covers each input bookmark exactly once, in input order. Anything less
// from the model is a *ParseError.
func (c *Categorizer) Categorize(ctx context.Context, bookmarks []Bookmark, taxonomy []string) ([]Assignment, error) {
	if len(bookmarks) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(bookmarks, taxonomy)
	if err != nil {
		return nil, err
	}

	var resp *provider.GenerateResponse

	err = retry.Do(ctx, c.retry, "categorize batch", func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}

		var genErr error
		resp, genErr = c.model.Generate(ctx, provider.GenerateRequest{
			Prompt:      prompt,
			System:      systemPrompt,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		return genErr
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("model", c.model.ID()).
		Int("bookmarks", len(bookmarks)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", resp.FinishReason).
		Msg("Model call completed")

	return parseAssignments(resp.Content, bookmarks)
}

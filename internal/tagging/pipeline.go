package tagging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/raintag/raintag/internal/ai"
	"github.com/raintag/raintag/internal/ai/provider"
	"github.com/raintag/raintag/pkg/clients/raindrop"
)

const (
	// DefaultPageSize is the Raindrop page size used when listing
	// untagged bookmarks.
	DefaultPageSize = 50

	// DefaultMaxPages bounds pagination so a single run cannot walk an
	// unbounded collection.
	DefaultMaxPages = 20
)

// Categorizer produces tag assignments for a batch of bookmarks.
type Categorizer interface {
	Categorize(ctx context.Context, bookmarks []ai.Bookmark, taxonomy []string) ([]ai.Assignment, error)
}

// Pipeline runs one tagging pass: fetch taxonomy, fetch untagged bookmarks,
// categorize them in batches, and apply the resulting tags. Execution is
// sequential; pacing toward both APIs is handled inside the clients.
type Pipeline struct {
	source      raindrop.ClientInterface
	categorizer Categorizer
	reconciler  *Reconciler

	provider  string
	model     string
	batchSize int
	pageSize  int
	maxPages  int
	dryRun    bool
}

type PipelineDependencies struct {
	Source      raindrop.ClientInterface
	Categorizer Categorizer

	// Provider and Model name the language model for the run summary.
	Provider string
	Model    string

	BatchSize int
	PageSize  int
	MaxPages  int
	DryRun    bool
}

func NewPipeline(deps PipelineDependencies) *Pipeline {
	if deps.BatchSize < 1 {
		deps.BatchSize = DefaultBatchSize
	}
	if deps.PageSize < 1 {
		deps.PageSize = DefaultPageSize
	}
	if deps.MaxPages < 1 {
		deps.MaxPages = DefaultMaxPages
	}

	return &Pipeline{
		source:      deps.Source,
		categorizer: deps.Categorizer,
		reconciler: NewReconciler(ReconcilerDependencies{
			Client: deps.Source,
			DryRun: deps.DryRun,
		}),
		provider:  deps.Provider,
		model:     deps.Model,
		batchSize: deps.BatchSize,
		pageSize:  deps.PageSize,
		maxPages:  deps.MaxPages,
		dryRun:    deps.DryRun,
	}
}

// Run executes one tagging pass. Failures of individual bookmarks or
// batches are counted and the run continues; only auth failures and
// context cancellation abort it. The summary is returned in both cases so
// partial progress is never lost.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	reporter := NewReporter(p.provider, p.model, p.dryRun)

	log.Info().
		Str("run_id", reporter.RunID()).
		Str("provider", p.provider).
		Str("model", p.model).
		Bool("dry_run", p.dryRun).
		Msg("Starting tagging run")

	taxonomy, err := p.fetchTaxonomy(ctx)
	if err != nil {
		return reporter.Finalize(), err
	}

	bookmarks, err := p.fetchUntagged(ctx, reporter)
	if err != nil {
		return reporter.Finalize(), err
	}

	if len(bookmarks) == 0 {
		log.Info().Msg("No untagged bookmarks found")
		summary := reporter.Finalize()
		logSummary(summary)
		return summary, nil
	}

	batches := BuildBatches(bookmarks, p.batchSize)
	log.Info().
		Int("bookmarks", len(bookmarks)).
		Int("batches", len(batches)).
		Msg("Categorizing untagged bookmarks")

	for i, batch := range batches {
		log.Info().
			Int("batch", i+1).
			Int("total_batches", len(batches)).
			Int("size", len(batch)).
			Msg("Processing batch")

		if err := p.processBatch(ctx, batch, taxonomy, reporter); err != nil {
			return reporter.Finalize(), err
		}
	}

	summary := reporter.Finalize()
	logSummary(summary)
	return summary, nil
}

// fetchTaxonomy returns the user's existing tag names. The taxonomy is
// advisory, so any failure short of an auth error degrades to an empty
// taxonomy instead of ending the run.
func (p *Pipeline) fetchTaxonomy(ctx context.Context) ([]string, error) {
	tags, err := p.source.GetTags(ctx)
	if err != nil {
		if raindrop.IsAuthError(err) {
			return nil, fmt.Errorf("failed to fetch tag taxonomy: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Msg("Could not fetch existing tags, continuing without taxonomy")
		return nil, nil
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	log.Info().Int("tags", len(names)).Msg("Fetched tag taxonomy")
	return names, nil
}

// fetchUntagged pages through the untagged bookmarks. Malformed items are
// counted as skipped. A failing page stops pagination but keeps the
// bookmarks collected so far, unless the failure is an auth error.
func (p *Pipeline) fetchUntagged(ctx context.Context, reporter *Reporter) ([]ai.Bookmark, error) {
	var bookmarks []ai.Bookmark

	for page := 0; page < p.maxPages; page++ {
		items, err := p.source.ListUntagged(ctx, page, p.pageSize)
		if err != nil {
			if raindrop.IsAuthError(err) {
				return nil, fmt.Errorf("failed to list untagged bookmarks: %w", err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Int("page", page).Msg("Pagination failed, continuing with bookmarks fetched so far")
			break
		}

		if len(items) == 0 {
			break
		}

		reporter.AddFetched(len(items))

		for _, item := range items {
			bookmark, err := NewBookmark(item)
			if err != nil {
				log.Warn().Err(err).Int64("raindrop_id", item.ID).Msg("Skipping malformed bookmark")
				reporter.Record(WriteResult{BookmarkID: item.ID, Status: StatusSkipped, Reason: err.Error()})
				continue
			}
			bookmarks = append(bookmarks, bookmark)
		}

		if len(items) < p.pageSize {
			break
		}
	}

	log.Info().Int("bookmarks", len(bookmarks)).Msg("Fetched untagged bookmarks")
	return bookmarks, nil
}

// processBatch categorizes one batch and applies its assignments in order.
// A categorization failure marks every batch member failed and lets the
// run continue with the next batch.
func (p *Pipeline) processBatch(ctx context.Context, batch Batch, taxonomy []string, reporter *Reporter) error {
	assignments, err := p.categorizer.Categorize(ctx, batch, taxonomy)
	if err != nil {
		if provider.IsAuthError(err) {
			return fmt.Errorf("failed to categorize batch: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn().
			Err(err).
			Int("size", len(batch)).
			Bool("parse_error", ai.IsParseError(err)).
			Msg("Batch categorization failed")

		if provider.IsRateLimitedError(err) {
			reporter.AddRateLimited(1)
		}
		for _, bookmark := range batch {
			reporter.Record(WriteResult{
				BookmarkID: bookmark.ID,
				Status:     StatusFailed,
				Reason:     "categorization failed",
			})
		}
		return nil
	}

	reporter.AddCategorized(len(assignments))

	for _, assignment := range assignments {
		result, err := p.reconciler.Apply(ctx, assignment.BookmarkID, assignment.Tags)
		if err != nil {
			return err
		}
		reporter.Record(result)
	}

	return nil
}

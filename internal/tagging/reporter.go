package tagging

import (
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// RunSummary holds the final counts of one pipeline run. Every fetched
// bookmark ends in exactly one of Applied, Failed, or Skipped.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DryRun      bool      `json:"dry_run"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Fetched     int       `json:"fetched"`
	Categorized int       `json:"categorized"`
	Applied     int       `json:"applied"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	RateLimited int       `json:"rate_limited"`
	SuccessRate float64   `json:"success_rate"`
}

func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Reporter accumulates per-bookmark outcomes during a run.
type Reporter struct {
	runID     string
	startedAt time.Time
	dryRun    bool
	provider  string
	model     string

	fetched     int
	categorized int
	applied     int
	failed      int
	skipped     int
	rateLimited int
}

func NewReporter(provider, model string, dryRun bool) *Reporter {
	return &Reporter{
		runID:     xid.New().String(),
		startedAt: time.Now(),
		dryRun:    dryRun,
		provider:  provider,
		model:     model,
	}
}

func (r *Reporter) RunID() string { return r.runID }

func (r *Reporter) AddFetched(n int)     { r.fetched += n }
func (r *Reporter) AddCategorized(n int) { r.categorized += n }
func (r *Reporter) AddRateLimited(n int) { r.rateLimited += n }

// Record counts one terminal write result.
func (r *Reporter) Record(result WriteResult) {
	switch result.Status {
	case StatusApplied:
		r.applied++
	case StatusFailed:
		r.failed++
	case StatusSkipped:
		r.skipped++
	}
	if result.RateLimited {
		r.rateLimited++
	}
}

// Finalize computes the summary. Call it once, at the end of the run.
func (r *Reporter) Finalize() RunSummary {
	summary := RunSummary{
		RunID:       r.runID,
		StartedAt:   r.startedAt,
		FinishedAt:  time.Now(),
		DryRun:      r.dryRun,
		Provider:    r.provider,
		Model:       r.model,
		Fetched:     r.fetched,
		Categorized: r.categorized,
		Applied:     r.applied,
		Failed:      r.failed,
		Skipped:     r.skipped,
		RateLimited: r.rateLimited,
	}

	if summary.Fetched > 0 {
		summary.SuccessRate = float64(summary.Applied) / float64(summary.Fetched) * 100
	}

	return summary
}

func logSummary(summary RunSummary) {
	log.Info().
		Str("run_id", summary.RunID).
		Bool("dry_run", summary.DryRun).
		Int("fetched", summary.Fetched).
		Int("categorized", summary.Categorized).
		Int("applied", summary.Applied).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int("rate_limited", summary.RateLimited).
		Float64("success_rate", summary.SuccessRate).
		Dur("duration", summary.Duration()).
		Msg("Run complete")
}

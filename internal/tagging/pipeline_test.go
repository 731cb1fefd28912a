package tagging

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raintag/raintag/internal/ai"
	"github.com/raintag/raintag/internal/ai/provider"
	"github.com/raintag/raintag/pkg/clients/raindrop"
)

type fakeCategorizer struct {
	err       error
	errOnCall int

	calls      int
	batches    [][]ai.Bookmark
	taxonomies [][]string
}

func (f *fakeCategorizer) Categorize(ctx context.Context, bookmarks []ai.Bookmark, taxonomy []string) ([]ai.Assignment, error) {
	f.calls++
	f.batches = append(f.batches, bookmarks)
	f.taxonomies = append(f.taxonomies, taxonomy)

	if f.err != nil && (f.errOnCall == 0 || f.errOnCall == f.calls) {
		return nil, f.err
	}

	assignments := make([]ai.Assignment, len(bookmarks))
	for i, bookmark := range bookmarks {
		assignments[i] = ai.Assignment{BookmarkID: bookmark.ID, Tags: []string{"auto", "generated", "tags"}}
	}
	return assignments, nil
}

func makePage(startID int64, n int) []raindrop.Raindrop {
	items := make([]raindrop.Raindrop, n)
	for i := range items {
		id := startID + int64(i)
		items[i] = raindrop.Raindrop{
			ID:     id,
			Title:  fmt.Sprintf("Bookmark %d", id),
			Link:   fmt.Sprintf("https://example.com/%d", id),
			Domain: "example.com",
		}
	}
	return items
}

func TestRunTagsEverythingInOneBatch(t *testing.T) {
	fake := newFakeRaindrop()
	fake.tags = []raindrop.Tag{{Name: "golang"}, {Name: "ai"}}
	fake.pages = [][]raindrop.Raindrop{makePage(1, 12)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, cat.calls)
	assert.Len(t, cat.batches[0], 12)
	assert.Equal(t, []string{"golang", "ai"}, cat.taxonomies[0])

	assert.Equal(t, 12, summary.Fetched)
	assert.Equal(t, 12, summary.Categorized)
	assert.Equal(t, 12, summary.Applied)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.InDelta(t, 100.0, summary.SuccessRate, 0.001)
	assert.Len(t, fake.updated, 12)
}

func TestRunSplitsIntoBatches(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 30)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, cat.calls)
	assert.Len(t, cat.batches[0], 25)
	assert.Len(t, cat.batches[1], 5)
	assert.Equal(t, 30, summary.Applied)
}

func TestRunCategorizationFailureFailsWholeBatch(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 12)}
	cat := &fakeCategorizer{err: &ai.ParseError{Reason: "assignment covers 10 of 12 bookmarks"}}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Fetched)
	assert.Equal(t, 0, summary.Categorized)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 12, summary.Failed)
	assert.Equal(t, 0, fake.updateCalls)
}

func TestRunBadBatchDoesNotAbortRun(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 4)}
	cat := &fakeCategorizer{err: &ai.ParseError{Reason: "unparseable"}, errOnCall: 1}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat, BatchSize: 2})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, cat.calls)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, 2, summary.Categorized)
}

func TestRunAuthFailureOnTaxonomyAborts(t *testing.T) {
	fake := newFakeRaindrop()
	fake.tagsErr = &raindrop.Error{StatusCode: 401, Message: "Incorrect access_token"}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	_, err := p.Run(context.Background())
	require.Error(t, err)

	assert.True(t, raindrop.IsAuthError(err))
	assert.Equal(t, 0, fake.listCalls)
	assert.Equal(t, 0, fake.updateCalls)
}

func TestRunTaxonomyFailureDegradesToEmpty(t *testing.T) {
	fake := newFakeRaindrop()
	fake.tagsErr = &raindrop.Error{StatusCode: 500, Message: "boom"}
	fake.pages = [][]raindrop.Raindrop{makePage(1, 2)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, cat.calls)
	assert.Empty(t, cat.taxonomies[0])
	assert.Equal(t, 2, summary.Applied)
}

func TestRunAuthFailureDuringPaginationAborts(t *testing.T) {
	fake := newFakeRaindrop()
	fake.listErrs[0] = &raindrop.Error{StatusCode: 401}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, raindrop.IsAuthError(err))
	assert.Equal(t, 0, cat.calls)
}

func TestRunPaginationFailureKeepsPartialFetch(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 2)}
	fake.listErrs[1] = &raindrop.Error{StatusCode: 500}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat, PageSize: 2})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fake.listCalls)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Applied)
}

func TestRunStopsAtShortPage(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 2), makePage(3, 1)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat, PageSize: 2})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fake.listCalls)
	assert.Equal(t, 3, summary.Fetched)
}

func TestRunRespectsPageCap(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 1), makePage(2, 1), makePage(3, 1)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat, PageSize: 1, MaxPages: 2})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fake.listCalls)
	assert.Equal(t, 2, summary.Fetched)
}

func TestRunSkipsMalformedBookmarks(t *testing.T) {
	fake := newFakeRaindrop()
	page := makePage(1, 3)
	page[1].Link = "not a url"
	fake.pages = [][]raindrop.Raindrop{page}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, cat.calls)
	assert.Len(t, cat.batches[0], 2)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Applied)
}

func TestRunAuthFailureFromModelAborts(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 2)}
	cat := &fakeCategorizer{err: &provider.APIError{Provider: "anthropic", StatusCode: 401, Message: "invalid x-api-key"}}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	_, err := p.Run(context.Background())
	require.Error(t, err)

	assert.True(t, provider.IsAuthError(err))
	assert.Equal(t, 0, fake.updateCalls)
}

func TestRunCountsRateLimitedCategorization(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 3)}
	cat := &fakeCategorizer{err: &provider.APIError{Provider: "anthropic", StatusCode: 429, Message: "rate limited"}}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 1, summary.RateLimited)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	fake := newFakeRaindrop()
	fake.pages = [][]raindrop.Raindrop{makePage(1, 5)}
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat, DryRun: true})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 5, summary.Applied)
	assert.Equal(t, 0, fake.getCalls)
	assert.Equal(t, 0, fake.updateCalls)
}

func TestRunNothingToDo(t *testing.T) {
	fake := newFakeRaindrop()
	cat := &fakeCategorizer{}

	p := NewPipeline(PipelineDependencies{Source: fake, Categorizer: cat})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, cat.calls)
	assert.Equal(t, 0, summary.Fetched)
	assert.InDelta(t, 0.0, summary.SuccessRate, 0.001)
}

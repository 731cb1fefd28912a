package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raintag/raintag/internal/tagging"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleSummary(id string, startedAt time.Time) tagging.RunSummary {
	return tagging.RunSummary{
		RunID:       id,
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(90 * time.Second),
		Provider:    "anthropic",
		Model:       "claude-3-5-haiku-20241022",
		Fetched:     12,
		Categorized: 12,
		Applied:     10,
		Failed:      1,
		Skipped:     1,
		SuccessRate: 83.3,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, sampleSummary("run-1", base)))
	require.NoError(t, store.RecordRun(ctx, sampleSummary("run-2", base.Add(time.Hour))))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].RunID, "newest run first")
	assert.Equal(t, "run-1", runs[1].RunID)

	got := runs[1]
	assert.Equal(t, "anthropic", got.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", got.Model)
	assert.Equal(t, 12, got.Fetched)
	assert.Equal(t, 10, got.Applied)
	assert.Equal(t, 1, got.Failed)
	assert.InDelta(t, 83.3, got.SuccessRate, 0.001)
	assert.Equal(t, base, got.StartedAt.UTC())
}

func TestListRunsHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		summary := sampleSummary(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordRun(ctx, summary))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestListRunsEmptyStore(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStatsAggregates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, sampleSummary("run-1", base)))
	require.NoError(t, store.RecordRun(ctx, sampleSummary("run-2", base.Add(time.Hour))))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 20, stats.TotalApplied)
	assert.Equal(t, 2, stats.TotalFailed)
	assert.Equal(t, 2, stats.TotalSkipped)
	assert.Equal(t, base.Add(time.Hour).Add(90*time.Second), stats.LastRunAt.UTC())
}

func TestStatsExcludesDryRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, sampleSummary("real", base)))

	dry := sampleSummary("dry", base.Add(time.Hour))
	dry.DryRun = true
	require.NoError(t, store.RecordRun(ctx, dry))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 10, stats.TotalApplied)
	assert.Equal(t, base.Add(90*time.Second), stats.LastRunAt.UTC())

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2, "dry runs still listed")
}

func TestStatsEmptyStore(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalRuns)
	assert.True(t, stats.LastRunAt.IsZero())
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordRun(context.Background(), sampleSummary("run-1", time.Now())))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(context.Background(), sampleSummary("run-1", time.Now())))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raintag/raintag/internal/controllers"
	"github.com/raintag/raintag/internal/history"
	"github.com/raintag/raintag/internal/tagging"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	dryRuns []bool

	summary tagging.RunSummary
	err     error

	// When set, Run signals started and then blocks until release closes.
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, dryRun bool) (tagging.RunSummary, error) {
	f.mu.Lock()
	f.calls++
	f.dryRuns = append(f.dryRuns, dryRun)
	started := f.started
	release := f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	return f.summary, f.err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRunner) dryRunArgs() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.dryRuns...)
}

type fakeHistory struct {
	stats    history.Stats
	runs     []tagging.RunSummary
	statsErr error

	listLimit int
}

func (f *fakeHistory) RecordRun(ctx context.Context, summary tagging.RunSummary) error {
	f.runs = append(f.runs, summary)
	return nil
}

func (f *fakeHistory) ListRuns(ctx context.Context, limit int) ([]tagging.RunSummary, error) {
	f.listLimit = limit
	return f.runs, nil
}

func (f *fakeHistory) Stats(ctx context.Context) (*history.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	stats := f.stats
	return &stats, nil
}

func (f *fakeHistory) Close() error { return nil }

func newTestApp(runner controllers.PipelineRunner, store history.Store, authToken string) *fiber.App {
	controller := controllers.NewRunController(controllers.RunControllerDependencies{
		Runner:  runner,
		History: store,
	})
	return NewHTTPServer(context.Background(), HTTPServerDependencies{
		RunController: controller,
		AuthToken:     authToken,
	})
}

func sampleSummary() tagging.RunSummary {
	now := time.Now().UTC().Truncate(time.Second)
	return tagging.RunSummary{
		RunID:       "run-1",
		StartedAt:   now.Add(-time.Minute),
		FinishedAt:  now,
		Provider:    "anthropic",
		Model:       "claude-3-5-haiku-20241022",
		Fetched:     10,
		Categorized: 9,
		Applied:     8,
		Failed:      1,
		Skipped:     1,
		SuccessRate: 80,
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&fakeRunner{}, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "raintag", body["service"])
}

func TestHealthSkipsAuth(t *testing.T) {
	app := newTestApp(&fakeRunner{}, nil, "hunter2")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTriggerRunReturnsSummary(t *testing.T) {
	runner := &fakeRunner{summary: sampleSummary()}
	app := newTestApp(runner, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status  string             `json:"status"`
		Summary tagging.RunSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "run-1", body.Summary.RunID)
	assert.Equal(t, 8, body.Summary.Applied)
	assert.False(t, body.Summary.DryRun)

	assert.Equal(t, []bool{false}, runner.dryRunArgs())
}

func TestTriggerRunHonorsDryRunQuery(t *testing.T) {
	runner := &fakeRunner{summary: sampleSummary()}
	app := newTestApp(runner, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run?dry_run=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []bool{true}, runner.dryRunArgs())
}

func TestTriggerRunReportsFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("raindrop api unreachable")}
	app := newTestApp(runner, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Error, "unreachable")
}

func TestTriggerRunRequiresToken(t *testing.T) {
	runner := &fakeRunner{summary: sampleSummary()}
	app := newTestApp(runner, nil, "hunter2")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, runner.callCount())

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer hunter2")

	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, runner.callCount())
}

func TestTriggerRunRejectsConcurrentRuns(t *testing.T) {
	runner := &fakeRunner{
		summary: sampleSummary(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	app := newTestApp(runner, nil, "")

	firstDone := make(chan error, 1)
	go func() {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil), fiber.TestConfig{
			Timeout:       5 * time.Second,
			FailOnTimeout: true,
		})
		if resp != nil {
			resp.Body.Close()
		}
		firstDone <- err
	}()

	// Wait until the first run is in flight, then trigger a second one.
	<-runner.started

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	close(runner.release)
	require.NoError(t, <-firstDone)

	assert.Equal(t, 1, runner.callCount())
}

func TestStatsReturnsAggregateAndRuns(t *testing.T) {
	store := &fakeHistory{
		stats: history.Stats{
			TotalRuns:    3,
			TotalApplied: 24,
			TotalFailed:  2,
			LastRunAt:    time.Now().UTC().Truncate(time.Second),
		},
		runs: []tagging.RunSummary{sampleSummary()},
	}
	app := newTestApp(&fakeRunner{}, store, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Stats history.Stats        `json:"stats"`
		Runs  []tagging.RunSummary `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Stats.TotalRuns)
	assert.Equal(t, 24, body.Stats.TotalApplied)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].RunID)

	assert.Equal(t, 20, store.listLimit)
}

func TestStatsWithoutHistory(t *testing.T) {
	app := newTestApp(&fakeRunner{}, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStatsReportsReadFailure(t *testing.T) {
	store := &fakeHistory{statsErr: errors.New("database is locked")}
	app := newTestApp(&fakeRunner{}, store, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

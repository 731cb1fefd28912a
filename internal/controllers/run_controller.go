// Package controllers holds the fiber handlers for service mode.
package controllers

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/raintag/raintag/internal/history"
	"github.com/raintag/raintag/internal/tagging"
)

// Recent runs returned alongside the aggregate on /stats.
const statsRunsLimit = 20

// PipelineRunner runs one tagging pass and reports its summary.
type PipelineRunner interface {
	Run(ctx context.Context, dryRun bool) (tagging.RunSummary, error)
}

// RunController handles HTTP-triggered tagging runs and serves recorded
// run statistics.
type RunController struct {
	runner  PipelineRunner
	history history.Store

	running atomic.Bool
}

type RunControllerDependencies struct {
	Runner PipelineRunner

	// History backs /stats. Nil when run history is disabled.
	History history.Store
}

func NewRunController(deps RunControllerDependencies) *RunController {
	return &RunController{
		runner:  deps.Runner,
		history: deps.History,
	}
}

// TriggerRun starts a tagging pass and responds with its summary once it
// finishes. At most one run is active at a time; triggers that arrive
// while one is in progress get a conflict response and cause no work.
func (c *RunController) TriggerRun(ctx fiber.Ctx) error {
	dryRun := ctx.Query("dry_run") == "true"

	if !c.running.CompareAndSwap(false, true) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "a run is already in progress",
		})
	}
	defer c.running.Store(false)

	log.Info().Bool("dry_run", dryRun).Msg("Run triggered over HTTP")

	summary, err := c.runner.Run(ctx.RequestCtx(), dryRun)
	if err != nil {
		log.Error().Err(err).Msg("Triggered run failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"summary": summary,
	})
}

// GetStats serves the aggregate over all recorded runs plus the most
// recent summaries, without triggering any work.
func (c *RunController) GetStats(ctx fiber.Ctx) error {
	if c.history == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "run history is disabled",
		})
	}

	stats, err := c.history.Stats(ctx.RequestCtx())
	if err != nil {
		log.Error().Err(err).Msg("Failed to aggregate run history")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read run history",
		})
	}

	runs, err := c.history.ListRuns(ctx.RequestCtx(), statsRunsLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list recorded runs")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read run history",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"stats": stats,
		"runs":  runs,
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

// Engine runs one pass over every pending task.
type Engine struct {
	tasks     TaskStore
	processor *Processor
	clock     clock.Clock
	logger    zerolog.Logger
}

func NewEngine(tasks TaskStore, processor *Processor, clk clock.Clock, logger zerolog.Logger) *Engine {
	return &Engine{
		tasks:     tasks,
		processor: processor,
		clock:     clk,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// RunCycle fetches the pending tasks and processes them in fetch order.
// A failing task is logged and counted; the rest of the batch still runs.
func (e *Engine) RunCycle(ctx context.Context) (*domain.CycleStats, error) {
	start := e.clock.Now()

	tasks, err := e.tasks.GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pending tasks: %w", err)
	}

	e.logger.Info().Int("count", len(tasks)).Msg("fetched pending tasks")

	stats := &domain.CycleStats{Fetched: len(tasks)}
	for i := range tasks {
		task := &tasks[i]

		taskStats, err := e.process(ctx, task)
		stats.Add(taskStats)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			stats.Duration = e.clock.Now().Sub(start)
			return stats, ctxErr
		}

		stats.Errors++
		metrics.IncTaskErrors()
		e.logger.Error().Err(err).Str("task_id", task.ID).Msg("task processing failed")
	}

	stats.Duration = e.clock.Now().Sub(start)

	e.logger.Info().
		Int("fetched", stats.Fetched).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("denied", stats.Denied).
		Int("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Msg("cycle completed")

	return stats, nil
}

func (e *Engine) process(ctx context.Context, task *domain.Task) (stats domain.TaskStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.processor.Process(ctx, task)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

// Processor drives every destination of a task from pending to processed.
type Processor struct {
	tasks     TaskStore
	activity  ActivityStore
	admission *AdmissionController
	executor  *Executor
	clock     clock.Clock
	postDelay time.Duration
	logger    zerolog.Logger
}

func NewProcessor(
	tasks TaskStore,
	activity ActivityStore,
	admission *AdmissionController,
	executor *Executor,
	clk clock.Clock,
	postDelay time.Duration,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		tasks:     tasks,
		activity:  activity,
		admission: admission,
		executor:  executor,
		clock:     clk,
		postDelay: postDelay,
		logger:    logger.With().Str("component", "processor").Logger(),
	}
}

// Process walks the destinations of task in order. Destination failures are
// recorded on the task; a returned error means the task could not be
// persisted or its state could not be read, and the task is retried on the
// next cycle.
func (p *Processor) Process(ctx context.Context, task *domain.Task) (domain.TaskStats, error) {
	var stats domain.TaskStats
	if task.Completed {
		stats.Skipped = len(task.Destinations)
		return stats, nil
	}

	logger := p.logger.With().Str("task_id", task.ID).Logger()

	if err := task.Validate(); err != nil {
		return p.reject(ctx, logger, task, err)
	}

	for i := range task.Destinations {
		dest := task.Destinations[i]
		if dest.Processed {
			stats.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record, err := p.activity.Get(ctx, dest.Name)
		if err != nil {
			return stats, fmt.Errorf("get activity of %s: %w", dest.Name, err)
		}

		verdict, err := p.admission.ShouldPost(ctx, dest.Name, record, p.clock.Now())
		if err != nil {
			if isCanceled(err) {
				return stats, err
			}
			logger.Warn().Err(err).Str("channel", dest.Name).Msg("admission undecided, leaving destination pending")
			stats.Denied++
			continue
		}
		if !verdict.Allowed {
			stats.Denied++
			continue
		}

		res := p.executor.Execute(ctx, task, dest)
		if res.Outcome != Succeeded && isCanceled(res.Err) {
			return stats, res.Err
		}

		now := p.clock.Now()
		if res.Outcome == Succeeded {
			task.MarkSucceeded(i, res.Submission.URL, now)
		} else {
			task.MarkFailed(i, res.Err, now)
		}

		// The attempt already happened on the platform; record it even when
		// shutdown was requested meanwhile.
		persistCtx := context.WithoutCancel(ctx)
		if err := p.tasks.Update(persistCtx, task); err != nil {
			return stats, fmt.Errorf("persist task: %w", err)
		}
		metrics.ObserveDestination(res.Outcome.String(), string(res.Operation))

		if res.Outcome != Succeeded {
			stats.Failed++
			logger.Error().
				Err(res.Err).
				Str("channel", dest.Name).
				Str("operation", string(res.Operation)).
				Msg("destination failed")
			continue
		}

		stats.Succeeded++
		logger.Info().
			Str("channel", dest.Name).
			Str("operation", string(res.Operation)).
			Str("url", res.Submission.URL).
			Msg("destination published")

		if err := p.activity.Upsert(persistCtx, dest.Name, now); err != nil {
			return stats, fmt.Errorf("record activity of %s: %w", dest.Name, err)
		}

		if err := p.clock.Sleep(ctx, p.postDelay); err != nil {
			return stats, err
		}
	}

	if task.Completed {
		logger.Info().Msg("task completed")
	}
	return stats, nil
}

// reject fails every pending destination of a malformed task at once.
func (p *Processor) reject(ctx context.Context, logger zerolog.Logger, task *domain.Task, cause error) (domain.TaskStats, error) {
	var stats domain.TaskStats
	now := p.clock.Now()
	for i := range task.Destinations {
		if task.Destinations[i].Processed {
			stats.Skipped++
			continue
		}
		task.MarkFailed(i, cause, now)
		stats.Failed++
	}
	if stats.Failed == 0 {
		return stats, nil
	}

	if err := p.tasks.Update(context.WithoutCancel(ctx), task); err != nil {
		return stats, fmt.Errorf("persist task: %w", err)
	}
	for range stats.Failed {
		metrics.ObserveDestination(Terminal.String(), "")
	}

	logger.Error().Err(cause).Int("destinations", stats.Failed).Msg("invalid task rejected")
	return stats, nil
}

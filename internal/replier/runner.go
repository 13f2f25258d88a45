// Package replier posts deferred replies on published submissions. It runs
// apart from the scheduler and owns the retry bookkeeping of reply jobs.
package replier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

type Replier interface {
	Reply(ctx context.Context, submissionID, text string) error
}

type Requeuer interface {
	EnqueueReply(ctx context.Context, job domain.ReplyJob) error
}

type DeadLetterStore interface {
	Push(ctx context.Context, letter DeadLetter) error
}

type Runner struct {
	replier     Replier
	queue       Requeuer
	deadLetters DeadLetterStore
	policy      RetryPolicy
	clock       clock.Clock
	logger      zerolog.Logger
}

func NewRunner(
	replier Replier,
	queue Requeuer,
	deadLetters DeadLetterStore,
	policy RetryPolicy,
	clk clock.Clock,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		replier:     replier,
		queue:       queue,
		deadLetters: deadLetters,
		policy:      policy,
		clock:       clk,
		logger:      logger.With().Str("component", "replier").Logger(),
	}
}

// Handle makes one attempt at job. A failed attempt is rescheduled as a new
// job until the retry budget is spent, after which the job is dead-lettered.
// The published submission is never touched. A returned error means the
// job could not be rescheduled and should be delivered again.
func (r *Runner) Handle(ctx context.Context, job domain.ReplyJob) error {
	// The broker holds retries until they are due; only clock skew between
	// hosts is left to wait out here.
	if wait := job.NotBefore.Sub(r.clock.Now()); wait > 0 {
		if err := r.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	logger := r.logger.With().
		Str("job_id", job.ID).
		Str("task_id", job.TaskID).
		Str("submission", job.Submission.ID).
		Int("attempt", job.Attempt).
		Logger()

	err := r.replier.Reply(ctx, job.Submission.ID, job.Text)
	if err == nil {
		metrics.ObserveReplyJob("succeeded")
		logger.Info().Msg("reply posted")
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if job.Attempt >= r.policy.MaxRetries {
		r.deadLetter(ctx, logger, job, err)
		return nil
	}

	next := job.Retry(r.clock.Now(), r.policy.NextDelay(job.Attempt+1))
	if err := r.queue.EnqueueReply(ctx, next); err != nil {
		return fmt.Errorf("requeue reply job %s: %w", job.ID, err)
	}

	metrics.ObserveReplyJob("retried")
	logger.Warn().Err(err).Time("not_before", next.NotBefore).Msg("reply failed, retry scheduled")
	return nil
}

func (r *Runner) deadLetter(ctx context.Context, logger zerolog.Logger, job domain.ReplyJob, cause error) {
	metrics.ObserveReplyJob("dead_lettered")
	logger.Error().Err(cause).Msg("reply job exhausted retries")

	letter := DeadLetter{Job: job, Error: cause.Error(), FailedAt: r.clock.Now()}
	if err := r.deadLetters.Push(ctx, letter); err != nil {
		logger.Error().Err(err).Msg("failed to store dead letter")
	}
}

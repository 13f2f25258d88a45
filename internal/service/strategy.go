package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

type Outcome int

const (
	Succeeded Outcome = iota
	// Recoverable rejections let the executor move on to the next strategy.
	Recoverable
	Terminal
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Recoverable:
		return "recoverable"
	case Terminal:
		return "terminal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the tagged outcome of a single strategy attempt.
type Result struct {
	Outcome    Outcome
	Operation  Operation
	Submission domain.Submission
	Err        error
}

func success(op Operation, sub domain.Submission) Result {
	return Result{Outcome: Succeeded, Operation: op, Submission: sub}
}

func failure(op Operation, err error) Result {
	if domain.IsCrosspostForbidden(err) && op == OpCrosspost {
		return Result{Outcome: Recoverable, Operation: op, Err: err}
	}
	return Result{Outcome: Terminal, Operation: op, Err: err}
}

// Executor publishes a destination by trying each applicable strategy in
// order, falling back only on recoverable rejections.
type Executor struct {
	platform    Platform
	replies     ReplyEnqueuer
	clock       clock.Clock
	nsfwDefault bool
	logger      zerolog.Logger
}

func NewExecutor(platform Platform, replies ReplyEnqueuer, clk clock.Clock, nsfwDefault bool, logger zerolog.Logger) *Executor {
	return &Executor{
		platform:    platform,
		replies:     replies,
		clock:       clk,
		nsfwDefault: nsfwDefault,
		logger:      logger.With().Str("component", "executor").Logger(),
	}
}

// Execute never returns Recoverable: running out of strategies is terminal.
func (e *Executor) Execute(ctx context.Context, task *domain.Task, dest domain.Destination) Result {
	ops, err := SelectOperations(task)
	if err != nil {
		return Result{Outcome: Terminal, Err: err}
	}

	var last Result
	for _, op := range ops {
		last = e.run(ctx, op, task, dest)
		if last.Outcome != Recoverable {
			return last
		}
		e.logger.Warn().
			Str("task_id", task.ID).
			Str("channel", dest.Name).
			Str("operation", string(op)).
			Err(last.Err).
			Msg("strategy rejected, falling back")
	}

	return Result{
		Outcome:   Terminal,
		Operation: last.Operation,
		Err:       fmt.Errorf("no strategy left: %w", last.Err),
	}
}

func (e *Executor) run(ctx context.Context, op Operation, task *domain.Task, dest domain.Destination) Result {
	switch op {
	case OpCrosspost:
		return e.crosspost(ctx, task, dest)
	case OpSubmit:
		return e.submit(ctx, task, dest)
	}
	return Result{Outcome: Terminal, Operation: op, Err: fmt.Errorf("unknown operation %q", op)}
}

func (e *Executor) crosspost(ctx context.Context, task *domain.Task, dest domain.Destination) Result {
	sub, err := e.platform.Crosspost(ctx, domain.CrosspostRequest{
		Channel:    dest.Name,
		SourceLink: task.CrosspostSourceLink,
		FlairID:    dest.FlairID,
		NSFW:       e.nsfw(task),
	})
	if err != nil {
		return failure(OpCrosspost, err)
	}
	return success(OpCrosspost, sub)
}

func (e *Executor) submit(ctx context.Context, task *domain.Task, dest domain.Destination) Result {
	title, err := e.resolveTitle(ctx, task)
	if err != nil {
		return failure(OpSubmit, err)
	}

	sub, err := e.platform.Submit(ctx, domain.SubmitRequest{
		Channel: dest.Name,
		Title:   title,
		Link:    task.Link,
		FlairID: dest.FlairID,
		NSFW:    e.nsfw(task),
	})
	if err != nil {
		return failure(OpSubmit, err)
	}

	if task.ReplyContent != "" {
		e.enqueueReply(context.WithoutCancel(ctx), task, sub)
	}
	return success(OpSubmit, sub)
}

// resolveTitle reuses the cross-post source's title when there is one.
func (e *Executor) resolveTitle(ctx context.Context, task *domain.Task) (string, error) {
	if task.CrosspostSourceLink != "" {
		title, err := e.platform.Title(ctx, task.CrosspostSourceLink)
		if err != nil {
			return "", fmt.Errorf("resolve title: %w", err)
		}
		if title != "" {
			return title, nil
		}
	}
	if task.Title != "" {
		return task.Title, nil
	}
	return "", fmt.Errorf("%w: no title can be resolved", domain.ErrInvalidTask)
}

// enqueueReply failures leave the publish in place.
func (e *Executor) enqueueReply(ctx context.Context, task *domain.Task, sub domain.Submission) {
	job := domain.NewReplyJob(task.ID, sub, task.ReplyContent, e.clock.Now())
	if err := e.replies.EnqueueReply(ctx, job); err != nil {
		metrics.ObserveReplyJob("enqueue_failed")
		e.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("submission", sub.ID).
			Msg("failed to enqueue reply job")
		return
	}
	metrics.ObserveReplyJob("enqueued")
	e.logger.Debug().Str("job_id", job.ID).Str("submission", sub.ID).Msg("reply job enqueued")
}

func (e *Executor) nsfw(task *domain.Task) bool {
	return task.NSFW || e.nsfwDefault
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

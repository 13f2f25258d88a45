package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"crossposter/internal/domain"
)

type TaskStore interface {
	GetPending(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
}

type ActivityStore interface {
	Get(ctx context.Context, channel string) (*domain.ChannelActivity, error)
	Upsert(ctx context.Context, channel string, postedAt time.Time) error
}

type Platform interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (domain.Submission, error)
	Crosspost(ctx context.Context, req domain.CrosspostRequest) (domain.Submission, error)
	Title(ctx context.Context, sourceURL string) (string, error)
}

type FrontpageChecker interface {
	IsOnFrontpage(ctx context.Context, channel, category string, threshold int) (bool, error)
}

type ReplyEnqueuer interface {
	EnqueueReply(ctx context.Context, job domain.ReplyJob) error
}

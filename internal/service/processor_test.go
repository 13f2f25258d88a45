package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"crossposter/internal/clock"
	"crossposter/internal/config"
	"crossposter/internal/domain"
	"crossposter/internal/service/mocks"
)

var (
	errNoCrossposts = &domain.RejectionError{Code: domain.CodeNoCrossposts, Message: "this community doesn't allow crossposts"}
	errNotAllowed   = &domain.RejectionError{Code: "SUBREDDIT_NOTALLOWED", Message: "you aren't allowed to post there.", Field: "sr"}
)

// engineSuite wires the service layer against mocked collaborators.
type engineSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	tasks     *mocks.MockTaskStore
	activity  *mocks.MockActivityStore
	platform  *mocks.MockPlatform
	frontpage *mocks.MockFrontpageChecker
	replies   *mocks.MockReplyEnqueuer

	clock     *clock.Fake
	cfg       config.EngineConfig
	processor *Processor
	ctx       context.Context
	now       time.Time
}

func (s *engineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.tasks = mocks.NewMockTaskStore(s.ctrl)
	s.activity = mocks.NewMockActivityStore(s.ctrl)
	s.platform = mocks.NewMockPlatform(s.ctrl)
	s.frontpage = mocks.NewMockFrontpageChecker(s.ctrl)
	s.replies = mocks.NewMockReplyEnqueuer(s.ctrl)

	s.now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.clock = clock.NewFake(s.now)
	s.ctx = context.Background()

	s.cfg = config.EngineConfig{
		RunningWindow:          config.RunningWindow{StartHour: 8, EndHour: 22},
		MinRepostingDelayHours: 12,
		MaxRepostingDelayHours: 24,
		FrontpageThreshold:     10,
		RunInterval:            time.Hour,
		PostDelay:              60 * time.Second,
	}
	s.build()
}

func (s *engineSuite) build() {
	logger := zerolog.Nop()
	s.processor = NewProcessor(
		s.tasks,
		s.activity,
		NewAdmissionController(s.frontpage, s.cfg, logger),
		NewExecutor(s.platform, s.replies, s.clock, s.cfg.NSFWDefault, logger),
		s.clock,
		s.cfg.PostDelay,
		logger,
	)
}

func (s *engineSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectUpdate records a copy of the task as it was when persisted.
func (s *engineSuite) expectUpdate(saved *[]domain.Task) *gomock.Call {
	return s.tasks.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task *domain.Task) error {
			cp := *task
			cp.Destinations = append([]domain.Destination(nil), task.Destinations...)
			*saved = append(*saved, cp)
			return nil
		},
	)
}

type ProcessorTestSuite struct {
	engineSuite
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func (s *ProcessorTestSuite) TestFirstPostCrosspostSucceeds() {
	task := &domain.Task{
		ID:                  "1",
		Link:                "https://x",
		CrosspostSourceLink: "https://reddit.com/y",
		Destinations:        []domain.Destination{{Name: "a"}},
	}
	sub := domain.Submission{ID: "t3_new", URL: "https://www.reddit.com/r/a/comments/new"}

	var saved []domain.Task
	gomock.InOrder(
		s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Crosspost(s.ctx, domain.CrosspostRequest{Channel: "a", SourceLink: "https://reddit.com/y"}).Return(sub, nil),
		s.expectUpdate(&saved),
		s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil),
	)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Succeeded: 1}, stats)

	s.Require().Len(saved, 1)
	s.True(saved[0].Completed)
	s.True(saved[0].Destinations[0].Processed)
	s.Equal(sub.URL, saved[0].Destinations[0].Link)
	s.Equal(s.now, saved[0].Destinations[0].Timestamp)
	s.Empty(saved[0].Destinations[0].Error)
	s.Equal([]time.Duration{60 * time.Second}, s.clock.Sleeps())
}

func (s *ProcessorTestSuite) TestProcessedDestinationsAreNotRetried() {
	task := &domain.Task{
		ID:   "1",
		Link: "https://x",
		Destinations: []domain.Destination{
			{Name: "a", Processed: true, Link: "https://www.reddit.com/r/a/comments/1"},
			{Name: "b", Processed: true, Error: "SUBREDDIT_NOEXIST: that subreddit doesn't exist"},
		},
	}

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Skipped: 2}, stats)
	s.False(task.Completed)
	s.Empty(s.clock.Sleeps())
}

func (s *ProcessorTestSuite) TestCompletedTaskIsInert() {
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Completed:    true,
		Destinations: []domain.Destination{{Name: "a"}},
	}

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.True(task.Completed)
	s.False(task.Destinations[0].Processed)
}

func (s *ProcessorTestSuite) TestForbiddenCrosspostFallsBackToSubmit() {
	task := &domain.Task{
		ID:                  "1",
		Link:                "https://x",
		CrosspostSourceLink: "https://www.reddit.com/r/pics/comments/abc/y",
		NSFW:                true,
		Destinations:        []domain.Destination{{Name: "a", FlairID: "f1"}},
	}
	sub := domain.Submission{ID: "t3_new", URL: "https://www.reddit.com/r/a/comments/new"}

	var saved []domain.Task
	gomock.InOrder(
		s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Crosspost(s.ctx, gomock.Any()).Return(domain.Submission{}, errNoCrossposts),
		s.platform.EXPECT().Title(s.ctx, task.CrosspostSourceLink).Return("Original title", nil),
		s.platform.EXPECT().Submit(s.ctx, domain.SubmitRequest{
			Channel: "a", Title: "Original title", Link: "https://x", FlairID: "f1", NSFW: true,
		}).Return(sub, nil),
		s.expectUpdate(&saved),
		s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil),
	)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Succeeded)
	s.Equal(sub.URL, task.Destinations[0].Link)
	s.True(task.Completed)
}

func (s *ProcessorTestSuite) TestTerminalRejectionRecordedWithoutActivityOrPacing() {
	task := &domain.Task{
		ID:                  "1",
		Link:                "https://x",
		CrosspostSourceLink: "https://reddit.com/y",
		Destinations:        []domain.Destination{{Name: "a"}},
	}

	var saved []domain.Task
	gomock.InOrder(
		s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Crosspost(s.ctx, gomock.Any()).Return(domain.Submission{}, errNotAllowed),
		s.expectUpdate(&saved),
	)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Failed: 1}, stats)

	s.Require().Len(saved, 1)
	d := saved[0].Destinations[0]
	s.True(d.Processed)
	s.Empty(d.Link)
	s.Equal(s.now, d.Timestamp)
	s.Contains(d.Error, "SUBREDDIT_NOTALLOWED")
	s.True(saved[0].Completed)
	s.Empty(s.clock.Sleeps())
}

func (s *ProcessorTestSuite) TestExhaustedStrategiesFailTerminally() {
	task := &domain.Task{
		ID:                  "1",
		CrosspostSourceLink: "https://reddit.com/y",
		Destinations:        []domain.Destination{{Name: "a"}},
	}

	var saved []domain.Task
	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Crosspost(s.ctx, gomock.Any()).Return(domain.Submission{}, errNoCrossposts)
	s.expectUpdate(&saved)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Failed)
	s.Contains(task.Destinations[0].Error, domain.CodeNoCrossposts)
	s.True(task.Completed)
}

func (s *ProcessorTestSuite) TestInvalidTaskFailsEachDestination() {
	task := &domain.Task{
		ID:           "1",
		Title:        "no links",
		Destinations: []domain.Destination{{Name: "a"}, {Name: "b"}},
	}

	var saved []domain.Task
	s.expectUpdate(&saved)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Failed: 2}, stats)

	s.Require().Len(saved, 1)
	s.True(saved[0].Completed)
	for _, d := range task.Destinations {
		s.True(d.Processed)
		s.Equal(s.now, d.Timestamp)
		s.Contains(d.Error, domain.ErrInvalidTask.Error())
	}
	s.Empty(s.clock.Sleeps())
}

func (s *ProcessorTestSuite) TestDuplicateDestinationNamesRejectPendingDestinations() {
	task := &domain.Task{
		ID:    "1",
		Link:  "https://x",
		Title: "t",
		Destinations: []domain.Destination{
			{Name: "a", Processed: true, Link: "https://done"},
			{Name: "b"},
			{Name: "a"},
		},
	}

	var saved []domain.Task
	s.expectUpdate(&saved)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Failed: 2, Skipped: 1}, stats)

	s.Require().Len(saved, 1)
	s.True(saved[0].Completed)
	s.Equal("https://done", task.Destinations[0].Link)
	s.Empty(task.Destinations[0].Error)
	for _, d := range task.Destinations[1:] {
		s.True(d.Processed)
		s.Contains(d.Error, domain.ErrInvalidTask.Error())
	}
}

func (s *ProcessorTestSuite) TestUnresolvableTitleIsInvalid() {
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Destinations: []domain.Destination{{Name: "a"}},
	}

	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.tasks.EXPECT().Update(gomock.Any(), task).Return(nil)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Failed)
	s.Contains(task.Destinations[0].Error, "no title")
}

func (s *ProcessorTestSuite) TestDeniedDestinationStaysPending() {
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Title:        "t",
		Destinations: []domain.Destination{{Name: "a"}},
	}
	record := &domain.ChannelActivity{Name: "a", LastPostedAt: s.now.Add(-3 * time.Hour)}

	s.activity.EXPECT().Get(s.ctx, "a").Return(record, nil)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Denied: 1}, stats)
	s.False(task.Destinations[0].Processed)
	s.False(task.Completed)
}

func (s *ProcessorTestSuite) TestUndecidedAdmissionStaysPending() {
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Title:        "t",
		Destinations: []domain.Destination{{Name: "a"}},
	}
	record := &domain.ChannelActivity{Name: "a", LastPostedAt: s.now.Add(-16 * time.Hour)}

	s.activity.EXPECT().Get(s.ctx, "a").Return(record, nil)
	s.frontpage.EXPECT().IsOnFrontpage(s.ctx, "a", "new", 10).Return(false, errors.New("listing unavailable"))

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Denied)
	s.False(task.Destinations[0].Processed)
}

func (s *ProcessorTestSuite) TestDestinationsEvaluatedIndependently() {
	task := &domain.Task{
		ID:    "1",
		Link:  "https://x",
		Title: "t",
		Destinations: []domain.Destination{
			{Name: "a"},
			{Name: "b"},
		},
	}
	sub := domain.Submission{ID: "t3_new", URL: "https://www.reddit.com/r/a/comments/new"}

	var saved []domain.Task
	gomock.InOrder(
		s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(sub, nil),
		s.expectUpdate(&saved),
		s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil),
		s.activity.EXPECT().Get(s.ctx, "b").Return(&domain.ChannelActivity{Name: "b", LastPostedAt: s.now}, nil),
	)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(domain.TaskStats{Succeeded: 1, Denied: 1}, stats)
	s.False(task.Completed)
	s.True(task.Destinations[0].Processed)
	s.False(task.Destinations[1].Processed)
}

func (s *ProcessorTestSuite) TestPersistenceFailureAbortsTask() {
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Title:        "t",
		Destinations: []domain.Destination{{Name: "a"}, {Name: "b"}},
	}

	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(domain.Submission{ID: "t3_new", URL: "https://u"}, nil)
	s.tasks.EXPECT().Update(gomock.Any(), task).Return(domain.ErrConflict)

	_, err := s.processor.Process(s.ctx, task)
	s.ErrorIs(err, domain.ErrConflict)
	s.Empty(s.clock.Sleeps())
}

func (s *ProcessorTestSuite) TestActivityReadFailureAbortsTask() {
	task := &domain.Task{ID: "1", Link: "https://x", Destinations: []domain.Destination{{Name: "a"}}}

	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, errors.New("connection refused"))

	_, err := s.processor.Process(s.ctx, task)
	s.ErrorContains(err, "connection refused")
}

func (s *ProcessorTestSuite) TestReplyEnqueuedAfterDirectSubmit() {
	task := &domain.Task{
		ID:           "7",
		Link:         "https://x",
		Title:        "t",
		ReplyContent: "source in comments",
		Destinations: []domain.Destination{{Name: "a"}},
	}
	sub := domain.Submission{ID: "t3_new", URL: "https://www.reddit.com/r/a/comments/new"}

	var job domain.ReplyJob
	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(sub, nil)
	s.replies.EXPECT().EnqueueReply(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, j domain.ReplyJob) error {
			job = j
			return nil
		},
	)
	s.tasks.EXPECT().Update(gomock.Any(), task).Return(nil)
	s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil)

	_, err := s.processor.Process(s.ctx, task)
	s.NoError(err)

	s.NotEmpty(job.ID)
	s.Equal("7", job.TaskID)
	s.Equal(sub, job.Submission)
	s.Equal("source in comments", job.Text)
	s.Equal(0, job.Attempt)
	s.Equal(s.now, job.EnqueuedAt)
}

func (s *ProcessorTestSuite) TestReplyEnqueueFailureKeepsPublish() {
	task := &domain.Task{
		ID:           "7",
		Link:         "https://x",
		Title:        "t",
		ReplyContent: "source in comments",
		Destinations: []domain.Destination{{Name: "a"}},
	}

	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(domain.Submission{ID: "t3_new", URL: "https://u"}, nil)
	s.replies.EXPECT().EnqueueReply(s.ctx, gomock.Any()).Return(errors.New("channel closed"))
	s.tasks.EXPECT().Update(gomock.Any(), task).Return(nil)
	s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil)

	stats, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
	s.Equal(1, stats.Succeeded)
	s.Equal("https://u", task.Destinations[0].Link)
}

func (s *ProcessorTestSuite) TestNSFWDefaultApplied() {
	s.cfg.NSFWDefault = true
	s.build()

	task := &domain.Task{ID: "1", Link: "https://x", Title: "t", Destinations: []domain.Destination{{Name: "a"}}}

	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(s.ctx, domain.SubmitRequest{Channel: "a", Title: "t", Link: "https://x", NSFW: true}).
		Return(domain.Submission{ID: "t3_new", URL: "https://u"}, nil)
	s.tasks.EXPECT().Update(gomock.Any(), task).Return(nil)
	s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil)

	_, err := s.processor.Process(s.ctx, task)
	s.NoError(err)
}

func (s *ProcessorTestSuite) TestCancelledDuringAttemptLeavesDestinationPending() {
	ctx, cancel := context.WithCancel(s.ctx)
	task := &domain.Task{ID: "1", Link: "https://x", Title: "t", Destinations: []domain.Destination{{Name: "a"}}}

	s.activity.EXPECT().Get(ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(ctx, gomock.Any()).DoAndReturn(
		func(context.Context, domain.SubmitRequest) (domain.Submission, error) {
			cancel()
			return domain.Submission{}, context.Canceled
		},
	)

	_, err := s.processor.Process(ctx, task)
	s.ErrorIs(err, context.Canceled)
	s.False(task.Destinations[0].Processed)
}

func (s *ProcessorTestSuite) TestCancelledAfterAcceptedSubmitIsRecorded() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	task := &domain.Task{
		ID:           "1",
		Link:         "https://x",
		Title:        "t",
		Destinations: []domain.Destination{{Name: "a"}, {Name: "b"}},
	}

	var saved []domain.Task
	gomock.InOrder(
		s.activity.EXPECT().Get(ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Submit(ctx, gomock.Any()).DoAndReturn(
			func(context.Context, domain.SubmitRequest) (domain.Submission, error) {
				cancel()
				return domain.Submission{ID: "t3_new", URL: "https://u"}, nil
			},
		),
		s.expectUpdate(&saved),
		s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).DoAndReturn(
			func(upsertCtx context.Context, _ string, _ time.Time) error {
				s.NoError(upsertCtx.Err())
				return nil
			},
		),
	)

	stats, err := s.processor.Process(ctx, task)
	s.ErrorIs(err, context.Canceled)
	s.Equal(1, stats.Succeeded)

	s.Require().Len(saved, 1)
	s.True(saved[0].Destinations[0].Processed)
	s.Equal("https://u", saved[0].Destinations[0].Link)
	s.False(task.Destinations[1].Processed)
	s.Empty(s.clock.Sleeps())
}

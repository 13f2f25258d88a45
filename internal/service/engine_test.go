package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"crossposter/internal/domain"
)

type EngineTestSuite struct {
	engineSuite
	engine *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.engineSuite.SetupTest()
	s.engine = NewEngine(s.tasks, s.processor, s.clock, zerolog.Nop())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) TestRunCycle_ProcessesBatchInOrder() {
	tasks := []domain.Task{
		{ID: "1", Link: "https://x", Title: "one", Destinations: []domain.Destination{{Name: "a"}}},
		{ID: "2", Link: "https://y", Title: "two", Destinations: []domain.Destination{{Name: "b"}}},
	}

	s.tasks.EXPECT().GetPending(s.ctx).Return(tasks, nil)
	gomock.InOrder(
		s.activity.EXPECT().Get(s.ctx, "a").Return(nil, nil),
		s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(domain.Submission{ID: "t3_1", URL: "https://u/1"}, nil),
		s.tasks.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
		s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).Return(nil),
		s.activity.EXPECT().Get(s.ctx, "b").Return(nil, nil),
		s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(domain.Submission{ID: "t3_2", URL: "https://u/2"}, nil),
		s.tasks.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
		s.activity.EXPECT().Upsert(gomock.Any(), "b", s.now.Add(time.Minute)).Return(nil),
	)

	stats, err := s.engine.RunCycle(s.ctx)
	s.NoError(err)
	s.Equal(2, stats.Fetched)
	s.Equal(2, stats.Processed)
	s.Equal(2, stats.Succeeded)
	s.Equal(0, stats.Errors)
	s.Equal(2*time.Minute, stats.Duration)
}

func (s *EngineTestSuite) TestRunCycle_FailingTaskDoesNotHaltBatch() {
	tasks := []domain.Task{
		{ID: "1", Link: "https://x", Title: "one", Destinations: []domain.Destination{{Name: "a"}}},
		{ID: "2", Link: "https://y", Title: "two", Destinations: []domain.Destination{{Name: "b"}}},
	}

	s.tasks.EXPECT().GetPending(s.ctx).Return(tasks, nil)
	s.activity.EXPECT().Get(s.ctx, "a").Return(nil, errors.New("connection reset"))
	s.activity.EXPECT().Get(s.ctx, "b").Return(nil, nil)
	s.platform.EXPECT().Submit(s.ctx, gomock.Any()).Return(domain.Submission{ID: "t3_2", URL: "https://u/2"}, nil)
	s.tasks.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.activity.EXPECT().Upsert(gomock.Any(), "b", s.now).Return(nil)

	stats, err := s.engine.RunCycle(s.ctx)
	s.NoError(err)
	s.Equal(1, stats.Errors)
	s.Equal(1, stats.Succeeded)
}

func (s *EngineTestSuite) TestRunCycle_PanickingTaskIsIsolated() {
	tasks := []domain.Task{
		{ID: "1", Link: "https://x", Title: "one", Destinations: []domain.Destination{{Name: "a"}}},
		{ID: "2", Link: "https://y", Title: "two", Destinations: []domain.Destination{{Name: "b"}, {Name: "c", Processed: true}}},
	}

	s.tasks.EXPECT().GetPending(s.ctx).Return(tasks, nil)
	s.activity.EXPECT().Get(s.ctx, "a").DoAndReturn(
		func(context.Context, string) (*domain.ChannelActivity, error) {
			panic("corrupt record")
		},
	)
	s.activity.EXPECT().Get(s.ctx, "b").Return(&domain.ChannelActivity{Name: "b", LastPostedAt: s.now}, nil)

	stats, err := s.engine.RunCycle(s.ctx)
	s.NoError(err)
	s.Equal(1, stats.Errors)
	s.Equal(1, stats.Denied)
	s.Equal(2, stats.Processed)
}

func (s *EngineTestSuite) TestRunCycle_FetchFailure() {
	s.tasks.EXPECT().GetPending(s.ctx).Return(nil, errors.New("database is locked"))

	stats, err := s.engine.RunCycle(s.ctx)
	s.Nil(stats)
	s.ErrorContains(err, "fetch pending tasks")
}

func (s *EngineTestSuite) TestRunCycle_EmptyBatch() {
	s.tasks.EXPECT().GetPending(s.ctx).Return(nil, nil)

	stats, err := s.engine.RunCycle(s.ctx)
	s.NoError(err)
	s.Equal(0, stats.Fetched)
	s.Equal(0, stats.Processed)
}

func (s *EngineTestSuite) TestRunCycle_StopsOnCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)
	tasks := []domain.Task{
		{ID: "1", Link: "https://x", Title: "one", Destinations: []domain.Destination{{Name: "a"}}},
		{ID: "2", Link: "https://y", Title: "two", Destinations: []domain.Destination{{Name: "b"}}},
	}

	s.tasks.EXPECT().GetPending(ctx).Return(tasks, nil)
	s.activity.EXPECT().Get(ctx, "a").Return(nil, nil)
	s.platform.EXPECT().Submit(ctx, gomock.Any()).Return(domain.Submission{ID: "t3_1", URL: "https://u/1"}, nil)
	s.tasks.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.activity.EXPECT().Upsert(gomock.Any(), "a", s.now).DoAndReturn(
		func(context.Context, string, time.Time) error {
			cancel()
			return nil
		},
	)

	stats, err := s.engine.RunCycle(ctx)
	s.ErrorIs(err, context.Canceled)
	s.Equal(1, stats.Succeeded)
	s.Equal(1, stats.Processed)
}

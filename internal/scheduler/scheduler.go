package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/config"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

// CycleRunner defines the interface for one processing pass.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*domain.CycleStats, error)
}

type Scheduler struct {
	runner   CycleRunner
	window   config.RunningWindow
	interval time.Duration
	clock    clock.Clock
	logger   zerolog.Logger
}

func NewScheduler(runner CycleRunner, cfg config.EngineConfig, clk clock.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		window:   cfg.RunningWindow,
		interval: cfg.RunInterval,
		clock:    clk,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start runs cycles until ctx is cancelled. Every cycle, inside the running
// window or not, is followed by a sleep of the configured interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().
		Int("start_hour", s.window.StartHour).
		Int("end_hour", s.window.EndHour).
		Dur("interval", s.interval).
		Msg("scheduler started")

	for {
		s.tick(ctx)

		if err := s.clock.Sleep(ctx, s.interval); err != nil {
			s.logger.Info().Msg("scheduler stopped")
			return err
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	hour := s.clock.Now().Hour()
	if !InWindow(s.window, hour) {
		metrics.ObserveCycle("idle")
		s.logger.Info().Int("hour", hour).Msg("outside running window, skipping cycle")
		return
	}

	metrics.ObserveCycle("running")
	if _, err := s.runner.RunCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("cycle failed")
	}
}

// InWindow reports whether hour lies within the inclusive window. A window
// whose start is after its end wraps past midnight.
func InWindow(w config.RunningWindow, hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour <= w.EndHour
	}
	return hour >= w.StartHour || hour <= w.EndHour
}

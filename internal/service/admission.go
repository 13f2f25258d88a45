package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crossposter/internal/config"
	"crossposter/internal/domain"
	"crossposter/internal/metrics"
)

// Rules that can decide an admission verdict, in evaluation order.
const (
	RuleFirstPost      = "first_post"
	RuleMinDelay       = "min_delay"
	RuleMaxDelay       = "max_delay"
	RuleFrontpage      = "frontpage"
	RuleClearFrontpage = "clear_frontpage"
)

// Listings inspected for front-page presence.
var frontpageCategories = []string{"new", "hot"}

type Verdict struct {
	Allowed bool
	Rule    string
	Reason  string
}

// AdmissionController decides whether a channel may receive another post now.
type AdmissionController struct {
	frontpage FrontpageChecker
	minDelay  time.Duration
	maxDelay  time.Duration
	threshold int
	logger    zerolog.Logger
}

func NewAdmissionController(frontpage FrontpageChecker, cfg config.EngineConfig, logger zerolog.Logger) *AdmissionController {
	return &AdmissionController{
		frontpage: frontpage,
		minDelay:  cfg.MinRepostingDelay(),
		maxDelay:  cfg.MaxRepostingDelay(),
		threshold: cfg.FrontpageThreshold,
		logger:    logger.With().Str("component", "admission").Logger(),
	}
}

// ShouldPost evaluates the admission rules for channel against its last
// activity record, which is nil for a channel that was never posted to.
// The first matching rule decides. An error means the front-page state
// could not be determined and no verdict was reached.
func (a *AdmissionController) ShouldPost(ctx context.Context, channel string, record *domain.ChannelActivity, now time.Time) (Verdict, error) {
	verdict, err := a.decide(ctx, channel, record, now)
	if err != nil {
		return Verdict{}, err
	}

	event := a.logger.Info().
		Str("channel", channel).
		Str("verdict", verdictLabel(verdict.Allowed)).
		Str("rule", verdict.Rule)
	if record != nil {
		event = event.Time("last_posted_at", record.LastPostedAt)
	}
	event.Msg(verdict.Reason)

	metrics.ObserveAdmission(verdict.Allowed, verdict.Rule)
	return verdict, nil
}

func (a *AdmissionController) decide(ctx context.Context, channel string, record *domain.ChannelActivity, now time.Time) (Verdict, error) {
	if record == nil {
		return Verdict{Allowed: true, Rule: RuleFirstPost, Reason: "no previous post in this channel"}, nil
	}

	elapsed := now.Sub(record.LastPostedAt)
	if elapsed <= a.minDelay {
		return Verdict{
			Rule:   RuleMinDelay,
			Reason: fmt.Sprintf("last post %s ago, minimum delay is %s", elapsed.Round(time.Second), a.minDelay),
		}, nil
	}
	if elapsed > a.maxDelay {
		return Verdict{
			Allowed: true,
			Rule:    RuleMaxDelay,
			Reason:  fmt.Sprintf("last post %s ago, exceeds maximum delay of %s", elapsed.Round(time.Second), a.maxDelay),
		}, nil
	}

	for _, category := range frontpageCategories {
		present, err := a.frontpage.IsOnFrontpage(ctx, channel, category, a.threshold)
		if err != nil {
			return Verdict{}, fmt.Errorf("check %s front page of %s: %w", category, channel, err)
		}
		if present {
			return Verdict{
				Rule:   RuleFrontpage,
				Reason: fmt.Sprintf("own submission is within the top %d of %q", a.threshold, category),
			}, nil
		}
	}

	return Verdict{
		Allowed: true,
		Rule:    RuleClearFrontpage,
		Reason:  fmt.Sprintf("no own submission within the top %d of new or hot", a.threshold),
	}, nil
}

func verdictLabel(allowed bool) string {
	if allowed {
		return "ALLOWED"
	}
	return "DENIED"
}

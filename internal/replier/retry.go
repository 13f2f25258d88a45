package replier

import (
	"math"
	"time"
)

// RetryPolicy defines the delay between reply attempts. A BackoffFactor of 1
// yields a fixed delay.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given retry (1-based) with clamping.
func (r RetryPolicy) NextDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 1
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(retry-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

package domain

import "time"

// CycleStats holds statistics about one scheduler cycle.
type CycleStats struct {
	Fetched   int
	Processed int
	Succeeded int
	Failed    int
	Denied    int
	Errors    int
	Duration  time.Duration
}

// Add folds the outcome of one task into the cycle totals.
func (s *CycleStats) Add(t TaskStats) {
	s.Processed++
	s.Succeeded += t.Succeeded
	s.Failed += t.Failed
	s.Denied += t.Denied
}

// TaskStats counts destination transitions made while processing a single task.
type TaskStats struct {
	Succeeded int
	Failed    int
	Denied    int
	Skipped   int
}

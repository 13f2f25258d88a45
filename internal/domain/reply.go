package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReplyJob posts a follow-up comment on an already published submission.
// It is immutable once enqueued except for the retry bookkeeping.
type ReplyJob struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	Submission Submission `json:"submission"`
	Text       string     `json:"text"`
	Attempt    int        `json:"attempt"`
	NotBefore  time.Time  `json:"not_before"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

func NewReplyJob(taskID string, submission Submission, text string, now time.Time) ReplyJob {
	return ReplyJob{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		Submission: submission,
		Text:       text,
		EnqueuedAt: now,
	}
}

// Retry returns a copy of the job scheduled for another attempt after delay.
func (j ReplyJob) Retry(now time.Time, delay time.Duration) ReplyJob {
	j.Attempt++
	j.NotBefore = now.Add(delay)
	return j
}

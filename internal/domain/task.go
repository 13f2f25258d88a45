package domain

import (
	"fmt"
	"time"
)

// Task is a unit of content distributed to one or more channels.
type Task struct {
	ID                  string
	Revision            int64
	Link                string
	CrosspostSourceLink string
	Title               string
	ReplyContent        string
	NSFW                bool
	Completed           bool
	LastUpdatedAt       time.Time
	Destinations        []Destination
}

// Destination is a single target channel within a task.
type Destination struct {
	Name      string
	FlairID   string
	Processed bool
	Link      string
	Timestamp time.Time
	Error     string
}

// Validate reports whether the task carries enough information to be published.
func (t *Task) Validate() error {
	if t.Link == "" && t.CrosspostSourceLink == "" {
		return fmt.Errorf("%w: neither crosspost source nor direct link found", ErrInvalidTask)
	}
	seen := make(map[string]struct{}, len(t.Destinations))
	for _, d := range t.Destinations {
		if d.Name == "" {
			return fmt.Errorf("%w: destination without a name", ErrInvalidTask)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%w: duplicate destination %q", ErrInvalidTask, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// MarkSucceeded records a successful publish on the destination at index i.
func (t *Task) MarkSucceeded(i int, postURL string, at time.Time) {
	d := &t.Destinations[i]
	d.Processed = true
	d.Link = postURL
	d.Timestamp = at
	d.Error = ""
	t.touch(at)
}

// MarkFailed records a terminal failure on the destination at index i.
func (t *Task) MarkFailed(i int, cause error, at time.Time) {
	d := &t.Destinations[i]
	d.Processed = true
	d.Timestamp = at
	d.Error = cause.Error()
	t.touch(at)
}

// Pending returns the number of destinations not yet processed.
func (t *Task) Pending() int {
	n := 0
	for _, d := range t.Destinations {
		if !d.Processed {
			n++
		}
	}
	return n
}

func (t *Task) touch(at time.Time) {
	t.Completed = t.Pending() == 0
	t.LastUpdatedAt = at
}

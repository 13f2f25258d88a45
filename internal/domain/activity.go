package domain

import "time"

// ChannelActivity tracks the most recent successful publish to a channel across all tasks.
type ChannelActivity struct {
	Name         string
	Revision     int64
	LastPostedAt time.Time
}

package domain

import (
	"fmt"
	"time"
)

// TaskDocument is the stored shape of a Task.
type TaskDocument struct {
	ID                   string                `json:"_id"`
	Rev                  int64                 `json:"_rev,omitempty"`
	Link                 string                `json:"link"`
	CrosspostSourceLink  string                `json:"crosspost_source_link"`
	Title                string                `json:"title"`
	ReplyContent         string                `json:"reply_content"`
	NSFW                 bool                  `json:"nsfw"`
	Completed            bool                  `json:"completed"`
	LastUpdatedTimestamp string                `json:"last_updated_timestamp"`
	Subreddits           []DestinationDocument `json:"subreddits"`
}

// DestinationDocument is the stored shape of a Destination.
type DestinationDocument struct {
	Name      string `json:"name"`
	FlairID   string `json:"flair_id"`
	Processed bool   `json:"processed"`
	Link      string `json:"link"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// FromDocument converts a stored document into a Task.
// Timestamps must be empty or RFC 3339 formatted. Any offset or fractional
// precision is accepted, but only the UTC RFC3339Nano form written by
// ToDocument survives a round trip byte for byte.
func FromDocument(doc TaskDocument) (Task, error) {
	updated, err := parseTimestamp(doc.LastUpdatedTimestamp)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: last_updated_timestamp: %w", doc.ID, err)
	}

	task := Task{
		ID:                  doc.ID,
		Revision:            doc.Rev,
		Link:                doc.Link,
		CrosspostSourceLink: doc.CrosspostSourceLink,
		Title:               doc.Title,
		ReplyContent:        doc.ReplyContent,
		NSFW:                doc.NSFW,
		Completed:           doc.Completed,
		LastUpdatedAt:       updated,
	}

	if doc.Subreddits != nil {
		task.Destinations = make([]Destination, 0, len(doc.Subreddits))
	}
	for _, d := range doc.Subreddits {
		ts, err := parseTimestamp(d.Timestamp)
		if err != nil {
			return Task{}, fmt.Errorf("task %s: subreddit %s: timestamp: %w", doc.ID, d.Name, err)
		}
		task.Destinations = append(task.Destinations, Destination{
			Name:      d.Name,
			FlairID:   d.FlairID,
			Processed: d.Processed,
			Link:      d.Link,
			Timestamp: ts,
			Error:     d.Error,
		})
	}

	return task, nil
}

// ToDocument converts a Task into its stored shape.
// Timestamps are always written as UTC RFC3339Nano.
func ToDocument(t Task) TaskDocument {
	doc := TaskDocument{
		ID:                   t.ID,
		Rev:                  t.Revision,
		Link:                 t.Link,
		CrosspostSourceLink:  t.CrosspostSourceLink,
		Title:                t.Title,
		ReplyContent:         t.ReplyContent,
		NSFW:                 t.NSFW,
		Completed:            t.Completed,
		LastUpdatedTimestamp: formatTimestamp(t.LastUpdatedAt),
	}

	if t.Destinations != nil {
		doc.Subreddits = make([]DestinationDocument, 0, len(t.Destinations))
	}
	for _, d := range t.Destinations {
		doc.Subreddits = append(doc.Subreddits, DestinationDocument{
			Name:      d.Name,
			FlairID:   d.FlairID,
			Processed: d.Processed,
			Link:      d.Link,
			Timestamp: formatTimestamp(d.Timestamp),
			Error:     d.Error,
		})
	}

	return doc
}

// formatTimestamp drops trailing zero fractions, so ".000Z" comes back as "Z".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTask marks a malformed task. It is terminal for the destination being processed.
	ErrInvalidTask = errors.New("invalid task")
	// ErrConflict is returned by the store when a write raced with another writer.
	ErrConflict = errors.New("revision conflict")
	ErrNotFound = errors.New("not found")
)

// Rejection codes returned by the platform when cross-posting is not permitted on the target.
const (
	CodeNoCrossposts    = "NO_CROSSPOSTS"
	CodeOver18Crosspost = "OVER18_SUBREDDIT_CROSSPOST"
	CodeRateLimit       = "RATELIMIT"
)

// RejectionError is a platform-side refusal of a request.
type RejectionError struct {
	Code    string
	Message string
	Field   string
}

func (e *RejectionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s on field %q", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCrosspostForbidden reports whether err is a rejection that allows
// falling back from a cross-post to a direct submission.
func IsCrosspostForbidden(err error) bool {
	var rej *RejectionError
	if !errors.As(err, &rej) {
		return false
	}
	switch rej.Code {
	case CodeNoCrossposts, CodeOver18Crosspost:
		return true
	}
	return false
}

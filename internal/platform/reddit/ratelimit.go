package reddit

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"crossposter/internal/domain"
)

const defaultRateLimitWait = 70 * time.Second

// RateLimitError asks the caller to wait before repeating the request.
type RateLimitError struct {
	Wait    time.Duration
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s (retry in %s)", domain.CodeRateLimit, e.Message, e.Wait)
}

var waitPattern = regexp.MustCompile(`(\d+)\s*(minute|second)`)

// rateLimitWait derives a wait from messages such as
// "Take a break for 5 minutes before trying again." The wait covers the
// reported period plus a safety margin.
func rateLimitWait(message string) time.Duration {
	m := waitPattern.FindStringSubmatch(strings.ToLower(message))
	if m == nil {
		return defaultRateLimitWait
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultRateLimitWait
	}
	if m[2] == "second" {
		return time.Duration(n+10) * time.Second
	}
	return time.Duration(60*(n+1)+10) * time.Second
}

// retryAfter reads the wait from a 429 response.
func retryAfter(h http.Header) time.Duration {
	for _, key := range []string{"Retry-After", "X-Ratelimit-Reset"} {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			continue
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(math.Ceil(secs)) * time.Second
		}
	}
	return defaultRateLimitWait
}

// rejection converts the errors array of a write response into an error.
// Each entry is [code, message, field].
func rejection(errs [][]string) error {
	if len(errs) == 0 {
		return nil
	}

	entry := errs[0]
	var code, message, field string
	if len(entry) > 0 {
		code = entry[0]
	}
	if len(entry) > 1 {
		message = entry[1]
	}
	if len(entry) > 2 {
		field = entry[2]
	}

	if strings.TrimSpace(code) == domain.CodeRateLimit {
		return &RateLimitError{Wait: rateLimitWait(message), Message: message}
	}
	return &domain.RejectionError{Code: code, Message: message, Field: field}
}

package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"crossposter/internal/clock"
	"crossposter/internal/domain"
)

const (
	webBaseURL = "https://www.reddit.com"

	CategoryNew = "new"
	CategoryHot = "hot"
)

// Config holds Reddit API client configuration.
type Config struct {
	BaseURL           string
	UserAgent         string
	Username          string
	RequestsPerSecond float64
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
}

// Client talks to the Reddit API on behalf of a single account.
// Every request passes through a shared rate limiter; rate-limit rejections
// are waited out and the call is retried exactly once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	username   string
	limiter    *rate.Limiter

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	clock  clock.Clock
	logger zerolog.Logger
}

// New creates a client. httpClient must already carry authentication, see NewHTTPClient.
func New(cfg Config, httpClient *http.Client, clk clock.Clock, logger zerolog.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:      cfg.UserAgent,
		username:       cfg.Username,
		limiter:        rate.NewLimiter(limit, burst),
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		clock:          clk,
		logger:         logger.With().Str("component", "reddit").Logger(),
	}
}

// Submit creates a new link submission.
func (c *Client) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Submission, error) {
	form := url.Values{
		"api_type":    {"json"},
		"kind":        {"link"},
		"sr":          {req.Channel},
		"title":       {req.Title},
		"url":         {req.Link},
		"nsfw":        {strconv.FormatBool(req.NSFW)},
		"sendreplies": {"true"},
		"resubmit":    {"true"},
	}
	if req.FlairID != "" {
		form.Set("flair_id", req.FlairID)
	}

	var sub domain.Submission
	err := c.withRateLimit(ctx, "submit", func() error {
		var err error
		sub, err = c.submit(ctx, form)
		return err
	})
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submit to %s: %w", req.Channel, err)
	}

	c.logger.Info().Str("channel", req.Channel).Str("url", sub.URL).Msg("posted successfully")
	return sub, nil
}

// Crosspost re-publishes an existing submission, keeping its original title.
func (c *Client) Crosspost(ctx context.Context, req domain.CrosspostRequest) (domain.Submission, error) {
	source, err := c.lookup(ctx, req.SourceLink)
	if err != nil {
		return domain.Submission{}, err
	}

	form := url.Values{
		"api_type":           {"json"},
		"kind":               {"crosspost"},
		"sr":                 {req.Channel},
		"title":              {source.Title},
		"crosspost_fullname": {source.Name},
		"nsfw":               {strconv.FormatBool(req.NSFW)},
		"sendreplies":        {"true"},
	}
	if req.FlairID != "" {
		form.Set("flair_id", req.FlairID)
	}

	var sub domain.Submission
	err = c.withRateLimit(ctx, "crosspost", func() error {
		var err error
		sub, err = c.submit(ctx, form)
		return err
	})
	if err != nil {
		return domain.Submission{}, fmt.Errorf("crosspost to %s: %w", req.Channel, err)
	}

	c.logger.Info().Str("channel", req.Channel).Str("url", sub.URL).Msg("crossposted successfully")
	return sub, nil
}

// Title returns the title of the submission at sourceURL.
func (c *Client) Title(ctx context.Context, sourceURL string) (string, error) {
	source, err := c.lookup(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	return source.Title, nil
}

// Reply comments on a submission identified by its fullname.
func (c *Client) Reply(ctx context.Context, submissionID, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {submissionID},
		"text":     {text},
	}

	err := c.withRateLimit(ctx, "reply", func() error {
		var resp apiResponse
		if err := c.post(ctx, "/api/comment", form, &resp); err != nil {
			return err
		}
		return rejection(resp.JSON.Errors)
	})
	if err != nil {
		return fmt.Errorf("reply to %s: %w", submissionID, err)
	}

	c.logger.Info().Str("submission", submissionID).Msg("commented successfully")
	return nil
}

// IsOnFrontpage reports whether any submission by the authenticated account is
// listed within the top threshold entries of the channel's new or hot listing.
func (c *Client) IsOnFrontpage(ctx context.Context, channel, category string, threshold int) (bool, error) {
	if category != CategoryNew && category != CategoryHot {
		return false, fmt.Errorf("frontpage check only supports %s or %s listings, got %q", CategoryHot, CategoryNew, category)
	}

	query := url.Values{"limit": {strconv.Itoa(threshold)}}
	path := "/r/" + url.PathEscape(channel) + "/" + category

	var l listing
	err := c.withRateLimit(ctx, "listing", func() error {
		return c.get(ctx, path, query, &l)
	})
	if err != nil {
		return false, fmt.Errorf("list %s of %s: %w", category, channel, err)
	}

	for i, ch := range l.Data.Children {
		if i >= threshold {
			break
		}
		if strings.EqualFold(ch.Data.Author, c.username) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) lookup(ctx context.Context, link string) (thing, error) {
	fullname, err := SubmissionFullname(link)
	if err != nil {
		return thing{}, err
	}

	var l listing
	err = c.withRateLimit(ctx, "lookup", func() error {
		return c.get(ctx, "/by_id/"+fullname, nil, &l)
	})
	if err != nil {
		return thing{}, fmt.Errorf("lookup %s: %w", fullname, err)
	}
	if len(l.Data.Children) == 0 {
		return thing{}, fmt.Errorf("%w: submission %s does not exist", domain.ErrInvalidTask, fullname)
	}

	return l.Data.Children[0].Data, nil
}

func (c *Client) submit(ctx context.Context, form url.Values) (domain.Submission, error) {
	var resp apiResponse
	if err := c.post(ctx, "/api/submit", form, &resp); err != nil {
		return domain.Submission{}, err
	}
	if err := rejection(resp.JSON.Errors); err != nil {
		return domain.Submission{}, err
	}

	data := resp.JSON.Data
	sub := domain.Submission{ID: data.Name, URL: data.URL}
	if sub.ID == "" && data.ID != "" {
		sub.ID = "t3_" + data.ID
	}
	if sub.URL == "" {
		sub.URL = webBaseURL + "/comments/" + strings.TrimPrefix(sub.ID, "t3_")
	}
	return sub, nil
}

// withRateLimit runs fn and, if the platform asks us to slow down, waits the
// reported duration and runs it once more. A second rate-limit is terminal.
func (c *Client) withRateLimit(ctx context.Context, op string, fn func() error) error {
	err := fn()

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		return err
	}

	c.logger.Warn().
		Str("op", op).
		Dur("wait", rl.Wait).
		Msg("reddit API ratelimit reached")

	if err := c.clock.Sleep(ctx, rl.Wait); err != nil {
		return err
	}

	err = fn()
	if errors.As(err, &rl) {
		return &domain.RejectionError{Code: domain.CodeRateLimit, Message: rl.Message}
	}
	return err
}

// get performs an idempotent request, retrying transient failures with exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.do(ctx, http.MethodGet, u, nil, out)
		if err == nil || !isTransient(err) {
			return err
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(err).
			Msg("request failed, retrying")

		if err := c.clock.Sleep(ctx, backoff); err != nil {
			return err
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

// post is never retried on transport errors: the platform may have accepted the first request.
func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()), out)
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transientError{err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Wait: retryAfter(resp.Header), Message: "too many requests"}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &transientError{err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return &domain.RejectionError{
			Code:    "HTTP_" + strconv.Itoa(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if c.maxBackoff > 0 && backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

package reddit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"crossposter/internal/domain"
)

var (
	commentsPath = regexp.MustCompile(`^/(?:r/[^/]+/)?comments/([A-Za-z0-9]+)`)
	shortID      = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// SubmissionFullname extracts the t3_ fullname from a submission URL such as
// https://www.reddit.com/r/pics/comments/abc123/title or https://redd.it/abc123.
// Anything else is an invalid task input.
func SubmissionFullname(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not a reddit submission URL", domain.ErrInvalidTask, link)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "redd.it":
		id := strings.Trim(u.Path, "/")
		if shortID.MatchString(id) {
			return "t3_" + strings.ToLower(id), nil
		}
	case host == "reddit.com" || strings.HasSuffix(host, ".reddit.com"):
		if m := commentsPath.FindStringSubmatch(u.Path); m != nil {
			return "t3_" + strings.ToLower(m[1]), nil
		}
	}

	return "", fmt.Errorf("%w: %q is not a reddit submission URL", domain.ErrInvalidTask, link)
}

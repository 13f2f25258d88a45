package reddit

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Credentials identify a script application and the account it acts for.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	TokenURL     string
	UserAgent    string
	Timeout      time.Duration
}

// NewHTTPClient returns an HTTP client that authenticates every request with
// a bearer token obtained through the password grant. Tokens are cached and
// re-issued when they expire.
func NewHTTPClient(ctx context.Context, cred Credentials) *http.Client {
	base := &http.Client{
		Timeout:   cred.Timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: cred.UserAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	conf := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cred.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	src := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
		ctx:      ctx,
		conf:     conf,
		username: cred.Username,
		password: cred.Password,
	})

	client := oauth2.NewClient(ctx, src)
	client.Timeout = cred.Timeout
	return client
}

type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	return s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

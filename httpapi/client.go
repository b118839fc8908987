// Package httpapi is the HTTP implementation of the API client contract the
// session engine depends on: OIDC discovery, token endpoint calls, userinfo
// and revocation, plus the in-memory access-token cache with its
// "should refresh now" bookkeeping.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/pkg/errors"
)

// refreshHorizon is the fraction of an access token's lifetime after which
// the token is considered due for refresh.
const refreshHorizon = 0.8

// Client talks to one identity provider deployment. The zero value is not
// usable; construct with New.
type Client struct {
	endpoint   string
	httpClient *http.Client
	nowFunc    func() time.Time

	mu              sync.Mutex
	config          *oauthmodel.OIDCConfiguration
	accessToken     string
	shouldRefreshAt time.Time
	refreshDisabled bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for all provider calls.
// First-party deployments supply a client with a cookie jar here so the
// provider session cookie is carried on userinfo calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithNowFunc sets the now time function (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New creates a Client for the provider at endpoint.
func New(endpoint string, options ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("[httpapi.New] endpoint is required")
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: http.DefaultClient,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the provider base URL the client was constructed with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchOIDCConfiguration fetches and caches the provider's discovery
// document. The document is immutable for the lifetime of the client.
func (c *Client) FetchOIDCConfiguration(ctx context.Context) (*oauthmodel.OIDCConfiguration, error) {
	c.mu.Lock()
	cached := c.config
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "[FetchOIDCConfiguration] fetching discovery document")
	}

	var config oauthmodel.OIDCConfiguration
	if err := provider.Claims(&config); err != nil {
		return nil, errors.Wrap(err, "[FetchOIDCConfiguration] decoding discovery document")
	}

	c.mu.Lock()
	c.config = &config
	c.mu.Unlock()
	return &config, nil
}

// AccessToken returns the cached access token, or "" when there is none.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// SetAccessTokenAndExpiresIn replaces the cached access token and derives
// the refresh horizon from the token's lifetime.
func (c *Client) SetAccessTokenAndExpiresIn(accessToken string, expiresIn int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = accessToken
	c.refreshDisabled = false
	if expiresIn > 0 {
		lifetime := time.Duration(float64(expiresIn) * refreshHorizon * float64(time.Second))
		c.shouldRefreshAt = c.nowFunc().Add(lifetime)
	} else {
		c.shouldRefreshAt = time.Time{}
	}
}

// ShouldRefresh reports whether the cached access token is missing or past
// its refresh horizon. It returns false after SetShouldNotRefresh until the
// next SetAccessTokenAndExpiresIn.
func (c *Client) ShouldRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refreshDisabled {
		return false
	}
	if c.accessToken == "" {
		return true
	}
	if c.shouldRefreshAt.IsZero() {
		return false
	}
	return !c.nowFunc().Before(c.shouldRefreshAt)
}

// SetShouldNotRefresh marks refreshing as pointless (no refresh token is
// stored), so callers stop issuing doomed token requests.
func (c *Client) SetShouldNotRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshDisabled = true
}

// ClearAccessToken drops the cached access token and its refresh horizon.
func (c *Client) ClearAccessToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.shouldRefreshAt = time.Time{}
}

// Package container implements the OIDC session/token lifecycle engine: the
// authorization URL builder, code-exchange and refresh-token handling, the
// session state machine, and the credential persistence around them.
//
// A Container owns exactly one API client and one credential store, scoped
// by a name namespace; multiple containers with different names may coexist
// for multi-account scenarios. The engine provides no built-in mutual
// exclusion: callers must serialize session-mutating operations per
// container instance.
package container

import (
	"context"
	"reflect"
	"time"

	"github.com/jrsteele09/go-auth-client/anonymous"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/userinfo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultName is the storage namespace used when no name option is given.
const DefaultName = "default"

// Container orchestrates the session lifecycle against one identity
// provider deployment on behalf of one application identity.
type Container struct {
	name      string
	apiClient APIClient
	storage   storage.Storage
	keys      anonymous.KeyProvider
	opener    URLOpener
	logger    zerolog.Logger
	nowFunc   func() time.Time

	clientID     string
	isFirstParty bool
	refreshToken string

	sessionState       SessionState
	sessionStateReason SessionStateChangeReason
	listeners          []SessionStateListener
}

// Option configures a Container.
type Option func(*Container)

// WithName sets the container name, which namespaces its persisted
// credentials. Defaults to DefaultName.
func WithName(name string) Option {
	return func(c *Container) {
		c.name = name
	}
}

// WithKeyProvider wires the platform key provider required for
// anonymous-user authentication and promotion.
func WithKeyProvider(keys anonymous.KeyProvider) Option {
	return func(c *Container) {
		c.keys = keys
	}
}

// WithURLOpener wires the platform launcher used by Authorize, Logout
// (first-party) and OpenURL.
func WithURLOpener(opener URLOpener) Option {
	return func(c *Container) {
		c.opener = opener
	}
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithNowFunc sets the now time function (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(c *Container) {
		c.nowFunc = now
	}
}

// New creates a Container in the Unknown session state. The API client and
// storage are required; failing to supply them is a configuration error.
func New(apiClient APIClient, store storage.Storage, options ...Option) (*Container, error) {
	if apiClient == nil {
		return nil, oauthmodel.ErrMissingAPIClient
	}
	if store == nil {
		return nil, oauthmodel.ErrMissingStorage
	}

	c := &Container{
		name:         DefaultName,
		apiClient:    apiClient,
		storage:      store,
		logger:       zerolog.Nop(),
		nowFunc:      time.Now,
		sessionState: SessionStateUnknown,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Name returns the container's storage namespace.
func (c *Container) Name() string {
	return c.name
}

// ClientID returns the configured OAuth2 client ID, or "" before Configure.
func (c *Container) ClientID() string {
	return c.clientID
}

// SessionState returns the current session state.
func (c *Container) SessionState() SessionState {
	return c.sessionState
}

// AddSessionStateListener registers a listener for subsequent transitions.
func (c *Container) AddSessionStateListener(listener SessionStateListener) {
	c.listeners = append(c.listeners, listener)
}

// RemoveSessionStateListener unregisters a previously added listener.
// Listeners are matched by interface equality, so a listener must be
// registered and removed through the same value; pointer implementations
// satisfy this naturally.
func (c *Container) RemoveSessionStateListener(listener SessionStateListener) {
	for i, registered := range c.listeners {
		if listenerEqual(registered, listener) {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// listenerEqual compares listeners without panicking on non-comparable
// implementations, which can never be removed and are simply skipped.
func listenerEqual(a, b SessionStateListener) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	return a == b
}

// Configure loads any persisted session and settles the session state:
// LoggedIn/FoundToken when a usable refresh token is found (refreshed
// eagerly unless SkipRefreshAccessToken is set), NoSession/NoToken when
// neither a refresh token nor a cached access token exists. A failed eager
// refresh with invalid_grant ends in NoSession/Expired; any other refresh
// error is returned unchanged with the stored session left intact.
func (c *Container) Configure(ctx context.Context, options ConfigureOptions) error {
	if options.ClientID == "" {
		return oauthmodel.ErrMissingClientID
	}
	c.clientID = options.ClientID
	c.isFirstParty = options.IsFirstParty

	refreshToken, ok, err := c.storage.GetRefreshToken(ctx, c.name)
	if err != nil {
		return errors.Wrap(err, "[Configure] reading refresh token")
	}
	c.refreshToken = refreshToken

	if ok {
		if options.SkipRefreshAccessToken {
			// A stored refresh token counts as a logged in session even
			// without an access token yet.
			c.updateSessionState(SessionStateLoggedIn, SessionStateChangeReasonFoundToken)
			return nil
		}
		if _, err := c.RefreshAccessToken(ctx); err != nil {
			return errors.Wrap(err, "[Configure] eager refresh")
		}
		return nil
	}

	if c.apiClient.AccessToken() != "" {
		c.updateSessionState(SessionStateLoggedIn, SessionStateChangeReasonFoundToken)
		return nil
	}
	c.updateSessionState(SessionStateNoSession, SessionStateChangeReasonNoToken)
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. It returns false without error when no refresh token is stored
// (and flips the API client into do-not-refresh mode), and false without
// error when the provider rejects the token with invalid_grant, in which
// case the session is cleared and the state becomes NoSession/Expired.
// Every other failure is returned unchanged: the session and stored
// credentials are untouched so the caller can simply retry.
func (c *Container) RefreshAccessToken(ctx context.Context) (bool, error) {
	if c.clientID == "" {
		return false, oauthmodel.ErrMissingClientID
	}

	refreshToken, ok, err := c.storage.GetRefreshToken(ctx, c.name)
	if err != nil {
		return false, errors.Wrap(err, "[RefreshAccessToken] reading refresh token")
	}
	if !ok {
		c.apiClient.SetShouldNotRefresh()
		return false, nil
	}

	response, err := c.apiClient.RefreshToken(ctx, c.clientID, refreshToken)
	if err != nil {
		if oauthmodel.IsInvalidGrant(err) {
			// The provider no longer accepts the refresh token; the
			// session is dead. RFC 6749 section 5.2.
			c.logger.Warn().Msg("refresh token rejected, clearing session")
			if clearErr := c.clearSession(ctx); clearErr != nil {
				return false, errors.Wrap(clearErr, "[RefreshAccessToken] clearing session")
			}
			c.updateSessionState(SessionStateNoSession, SessionStateChangeReasonExpired)
			return false, nil
		}
		return false, errors.Wrap(err, "[RefreshAccessToken] token request")
	}

	if err := c.persistTokenResponse(ctx, response); err != nil {
		return false, errors.Wrap(err, "[RefreshAccessToken] persisting tokens")
	}
	c.updateSessionState(SessionStateLoggedIn, SessionStateChangeReasonFoundToken)
	return true, nil
}

// FetchUserInfo fetches the userinfo snapshot for the current session.
func (c *Container) FetchUserInfo(ctx context.Context) (*userinfo.UserInfo, error) {
	return c.apiClient.FetchUserInfo(ctx, c.apiClient.AccessToken())
}

// persistTokenResponse copies a token response into the credential store
// and the API client's access-token cache. Storage writes happen before
// any in-memory mutation so a failed write never leaves the two views
// inconsistent.
func (c *Container) persistTokenResponse(ctx context.Context, response *oauthmodel.TokenResponse) error {
	if response.RefreshToken != "" {
		if err := c.storage.SetRefreshToken(ctx, c.name, response.RefreshToken); err != nil {
			return err
		}
		c.refreshToken = response.RefreshToken
	}
	c.apiClient.SetAccessTokenAndExpiresIn(response.AccessToken, response.ExpiresIn)
	return nil
}

// clearSession deletes all persisted credentials for this container and
// resets the in-memory token state. Storage first, memory second.
func (c *Container) clearSession(ctx context.Context) error {
	if err := c.storage.DelRefreshToken(ctx, c.name); err != nil {
		return err
	}
	if err := c.storage.DelOIDCCodeVerifier(ctx, c.name); err != nil {
		return err
	}
	if err := c.storage.DelAnonymousKeyID(ctx, c.name); err != nil {
		return err
	}
	c.refreshToken = ""
	c.apiClient.ClearAccessToken()
	return nil
}

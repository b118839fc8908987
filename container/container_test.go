package container_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/anonymous"
	"github.com/jrsteele09/go-auth-client/container"
	"github.com/jrsteele09/go-auth-client/container/apiclientfake"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "test-client-1"
	testRedirectURI = "https://myapp.example.com/callback"
	testState       = "random-state-value"
)

type transition struct {
	State  container.SessionState
	Reason container.SessionStateChangeReason
}

// recordingListener captures every session state transition in order.
type recordingListener struct {
	transitions []transition
}

func (l *recordingListener) OnSessionStateChanged(c *container.Container, reason container.SessionStateChangeReason) {
	l.transitions = append(l.transitions, transition{State: c.SessionState(), Reason: reason})
}

// fakeOpener is a scripted URLOpener.
type fakeOpener struct {
	AuthorizeURLs    []string
	RedirectURL      string
	OpenAuthorizeErr error
	OpenedURLs       []string
}

func (o *fakeOpener) OpenAuthorizeURL(_ context.Context, authorizeURL, _ string) (string, error) {
	o.AuthorizeURLs = append(o.AuthorizeURLs, authorizeURL)
	if o.OpenAuthorizeErr != nil {
		return "", o.OpenAuthorizeErr
	}
	return o.RedirectURL, nil
}

func (o *fakeOpener) OpenURL(_ context.Context, url string) error {
	o.OpenedURLs = append(o.OpenedURLs, url)
	return nil
}

// testFixture holds all test dependencies.
type testFixture struct {
	api       *apiclientfake.FakeAPIClient
	store     *storage.ContainerStorage
	keys      *anonymous.InMemoryKeyProvider
	opener    *fakeOpener
	listener  *recordingListener
	container *container.Container
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := apiclientfake.NewFakeAPIClient()
	store := storage.NewContainerStorage(storage.NewInMemoryDriver())
	keys := anonymous.NewInMemoryKeyProvider()
	opener := &fakeOpener{}
	listener := &recordingListener{}

	c, err := container.New(api, store,
		container.WithKeyProvider(keys),
		container.WithURLOpener(opener),
		container.WithNowFunc(func() time.Time {
			return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	require.NoError(t, err)
	c.AddSessionStateListener(listener)

	return &testFixture{
		api:       api,
		store:     store,
		keys:      keys,
		opener:    opener,
		listener:  listener,
		container: c,
	}
}

func (f *testFixture) seedRefreshToken(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, f.store.SetRefreshToken(context.Background(), container.DefaultName, token))
}

func (f *testFixture) configure(t *testing.T, options container.ConfigureOptions) {
	t.Helper()
	if options.ClientID == "" {
		options.ClientID = testClientID
	}
	require.NoError(t, f.container.Configure(context.Background(), options))
}

func TestNew_RequiresDependencies(t *testing.T) {
	store := storage.NewContainerStorage(storage.NewInMemoryDriver())

	_, err := container.New(nil, store)
	require.ErrorIs(t, err, oauthmodel.ErrMissingAPIClient)

	_, err = container.New(apiclientfake.NewFakeAPIClient(), nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingStorage)
}

func TestConfigure_MissingClientID(t *testing.T) {
	f := setupTestFixture(t)
	err := f.container.Configure(context.Background(), container.ConfigureOptions{})
	require.ErrorIs(t, err, oauthmodel.ErrMissingClientID)
	require.Equal(t, container.SessionStateUnknown, f.container.SessionState())
}

func TestConfigure_NoStoredToken(t *testing.T) {
	// Scenario: fresh install, nothing persisted.
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateNoSession, Reason: container.SessionStateChangeReasonNoToken},
	}, f.listener.transitions)
	require.Empty(t, f.api.RefreshCalls)
}

func TestConfigure_SkipRefreshAccessToken(t *testing.T) {
	// Scenario: stored refresh token, eager refresh suppressed. The session
	// is reported without a single token endpoint call.
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateLoggedIn, Reason: container.SessionStateChangeReasonFoundToken},
	}, f.listener.transitions)
	require.Empty(t, f.api.RefreshCalls)
}

func TestConfigure_CachedAccessToken(t *testing.T) {
	// No stored refresh token, but the API client still holds an access
	// token (e.g. a cookie-based or short-lived session): that counts as a
	// logged in session without any token endpoint call.
	f := setupTestFixture(t)
	f.api.SetAccessTokenAndExpiresIn("at-cached", 3600)
	f.configure(t, container.ConfigureOptions{})

	require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateLoggedIn, Reason: container.SessionStateChangeReasonFoundToken},
	}, f.listener.transitions)
	require.Empty(t, f.api.RefreshCalls)
}

func TestConfigure_EagerRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{})

	require.Equal(t, []string{"rt-1"}, f.api.RefreshCalls)
	require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())
	require.Equal(t, "fake-access-token", f.api.AccessToken())

	// The rotated refresh token replaced the stored one.
	stored, ok, err := f.store.GetRefreshToken(context.Background(), container.DefaultName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fake-refresh-token", stored)
}

func TestConfigure_EagerRefreshInvalidGrant(t *testing.T) {
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-dead")
	f.api.RefreshFunc = func(clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
		return nil, &oauthmodel.OAuthError{Code: "invalid_grant"}
	}

	f.configure(t, container.ConfigureOptions{})

	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateNoSession, Reason: container.SessionStateChangeReasonExpired},
	}, f.listener.transitions)
}

func TestConfigure_EagerRefreshTransportError(t *testing.T) {
	// Non-invalid_grant failures propagate unchanged and leave the stored
	// session intact so Configure can simply be retried.
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	transportErr := errors.New("connection refused")
	f.api.RefreshFunc = func(clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
		return nil, transportErr
	}

	err := f.container.Configure(context.Background(), container.ConfigureOptions{ClientID: testClientID})
	require.ErrorIs(t, err, transportErr)

	require.Equal(t, container.SessionStateUnknown, f.container.SessionState())
	require.Empty(t, f.listener.transitions)
	_, ok, getErr := f.store.GetRefreshToken(context.Background(), container.DefaultName)
	require.NoError(t, getErr)
	require.True(t, ok)
}

func TestRefreshAccessToken_NoStoredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	refreshed, err := f.container.RefreshAccessToken(context.Background())
	require.NoError(t, err)
	require.False(t, refreshed)
	require.True(t, f.api.RefreshDisabled())
	require.Empty(t, f.api.RefreshCalls)
}

func TestRefreshAccessToken_InvalidGrantClearsSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-dead")
	require.NoError(t, f.store.SetOIDCCodeVerifier(ctx, container.DefaultName, "verifier"))
	require.NoError(t, f.store.SetAnonymousKeyID(ctx, container.DefaultName, "kid"))
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	f.api.RefreshFunc = func(clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
		return nil, &oauthmodel.OAuthError{Code: "invalid_grant", Description: "refresh token expired"}
	}

	refreshed, err := f.container.RefreshAccessToken(ctx)
	require.NoError(t, err)
	require.False(t, refreshed)

	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateLoggedIn, Reason: container.SessionStateChangeReasonFoundToken},
		{State: container.SessionStateNoSession, Reason: container.SessionStateChangeReasonExpired},
	}, f.listener.transitions)

	for _, get := range []func(context.Context, string) (string, bool, error){
		f.store.GetRefreshToken,
		f.store.GetOIDCCodeVerifier,
		f.store.GetAnonymousKeyID,
	} {
		_, ok, err := get(ctx, container.DefaultName)
		require.NoError(t, err)
		require.False(t, ok)
	}

	// A second failing call finds no stored token and changes nothing:
	// still one Expired notification in total.
	refreshed, err = f.container.RefreshAccessToken(ctx)
	require.NoError(t, err)
	require.False(t, refreshed)
	require.Len(t, f.listener.transitions, 2)
}

func TestRefreshAccessToken_TransportErrorKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	transportErr := errors.New("tls handshake timeout")
	f.api.RefreshFunc = func(clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
		return nil, transportErr
	}

	_, err := f.container.RefreshAccessToken(ctx)
	require.ErrorIs(t, err, transportErr)

	require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())
	_, ok, getErr := f.store.GetRefreshToken(ctx, container.DefaultName)
	require.NoError(t, getErr)
	require.True(t, ok)
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	require.NoError(t, f.container.Logout(ctx, container.LogoutOptions{Force: true}))
	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Equal(t, []string{"rt-1"}, f.api.RevokedTokens)

	// Second logout: no error, no revocation, no extra notification.
	require.NoError(t, f.container.Logout(ctx, container.LogoutOptions{Force: true}))
	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Equal(t, []string{"rt-1"}, f.api.RevokedTokens)
	require.Equal(t, []transition{
		{State: container.SessionStateLoggedIn, Reason: container.SessionStateChangeReasonFoundToken},
		{State: container.SessionStateNoSession, Reason: container.SessionStateChangeReasonLogout},
	}, f.listener.transitions)
}

func TestLogout_RevocationFailure(t *testing.T) {
	ctx := context.Background()
	revokeErr := errors.New("revocation endpoint unreachable")

	t.Run("without force the error propagates and the session survives", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedRefreshToken(t, "rt-1")
		f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})
		f.api.RevokeFunc = func(refreshToken string) error { return revokeErr }

		err := f.container.Logout(ctx, container.LogoutOptions{})
		require.ErrorIs(t, err, revokeErr)
		require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())

		_, ok, getErr := f.store.GetRefreshToken(ctx, container.DefaultName)
		require.NoError(t, getErr)
		require.True(t, ok)
	})

	t.Run("with force the session is cleared anyway", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedRefreshToken(t, "rt-1")
		f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})
		f.api.RevokeFunc = func(refreshToken string) error { return revokeErr }

		require.NoError(t, f.container.Logout(ctx, container.LogoutOptions{Force: true}))
		require.Equal(t, container.SessionStateNoSession, f.container.SessionState())

		_, ok, getErr := f.store.GetRefreshToken(ctx, container.DefaultName)
		require.NoError(t, getErr)
		require.False(t, ok)
	})
}

func TestLogout_FirstParty(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{IsFirstParty: true, SkipRefreshAccessToken: true})

	require.NoError(t, f.container.Logout(ctx, container.LogoutOptions{RedirectURI: "https://myapp.example.com/"}))

	require.Equal(t, container.SessionStateNoSession, f.container.SessionState())
	require.Empty(t, f.api.RevokedTokens)
	require.Len(t, f.opener.OpenedURLs, 1)
	require.Contains(t, f.opener.OpenedURLs[0], "/oauth2/end_session?")
	require.Contains(t, f.opener.OpenedURLs[0], "post_logout_redirect_uri=")
}

func TestRemoveSessionStateListener(t *testing.T) {
	f := setupTestFixture(t)
	f.container.RemoveSessionStateListener(f.listener)
	f.configure(t, container.ConfigureOptions{})
	require.Empty(t, f.listener.transitions)
}

// sliceListener is a value listener with a non-comparable underlying type.
type sliceListener struct {
	seen []container.SessionStateChangeReason
}

func (sliceListener) OnSessionStateChanged(*container.Container, container.SessionStateChangeReason) {}

func TestRemoveSessionStateListener_NonComparable(t *testing.T) {
	f := setupTestFixture(t)
	f.container.AddSessionStateListener(sliceListener{})

	// Removal must not panic on the non-comparable registration, and the
	// other listener must still be removable.
	require.NotPanics(t, func() {
		f.container.RemoveSessionStateListener(sliceListener{})
		f.container.RemoveSessionStateListener(f.listener)
	})

	f.configure(t, container.ConfigureOptions{})
	require.Empty(t, f.listener.transitions)
}

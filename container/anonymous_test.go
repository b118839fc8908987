package container_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/container"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

// parseAssertion verifies the assertion against the key the fixture's
// provider holds and returns its claims.
func parseAssertion(t *testing.T, f *testFixture, assertion, kid string) jwtlib.MapClaims {
	t.Helper()

	key, err := f.keys.GetOrCreate(context.Background(), kid)
	require.NoError(t, err)

	claims := jwtlib.MapClaims{}
	// The fixture clock is pinned in the past; skip exp/iat validation.
	parsed, err := jwtlib.ParseWithClaims(assertion, claims, func(*jwtlib.Token) (any, error) {
		return &key.PrivateKey.PublicKey, nil
	}, jwtlib.WithoutClaimsValidation())
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "vnd.authd.anonymous-request", parsed.Header["typ"])
	require.Equal(t, kid, parsed.Header["kid"])
	return claims
}

func TestAuthenticateAnonymously(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	result, err := f.container.AuthenticateAnonymously(ctx)
	require.NoError(t, err)
	require.Equal(t, "fake-sub", result.UserInfo.Sub)

	require.Equal(t, container.SessionStateLoggedIn, f.container.SessionState())
	require.Equal(t, []transition{
		{State: container.SessionStateNoSession, Reason: container.SessionStateChangeReasonNoToken},
		{State: container.SessionStateLoggedIn, Reason: container.SessionStateChangeReasonAuthorized},
	}, f.listener.transitions)

	// The key ID survives so the same anonymous identity is reused.
	kid, ok, err := f.store.GetAnonymousKeyID(ctx, container.DefaultName)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, f.api.AnonymousJWTs, 1)
	claims := parseAssertion(t, f, f.api.AnonymousJWTs[0], kid)
	require.Equal(t, "fake-challenge", claims["challenge"])
	require.Equal(t, "auth", claims["action"])

	stored, ok, err := f.store.GetRefreshToken(ctx, container.DefaultName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fake-refresh-token", stored)
}

func TestAuthenticateAnonymously_ReusesKey(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	_, err := f.container.AuthenticateAnonymously(ctx)
	require.NoError(t, err)
	first, _, err := f.store.GetAnonymousKeyID(ctx, container.DefaultName)
	require.NoError(t, err)

	_, err = f.container.AuthenticateAnonymously(ctx)
	require.NoError(t, err)
	second, _, err := f.store.GetAnonymousKeyID(ctx, container.DefaultName)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestPromoteAnonymousUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	_, err := f.container.AuthenticateAnonymously(ctx)
	require.NoError(t, err)
	kid, _, err := f.store.GetAnonymousKeyID(ctx, container.DefaultName)
	require.NoError(t, err)

	f.opener.RedirectURL = testRedirectURI + "?code=promote-code&state=" + testState

	result, err := f.container.PromoteAnonymousUser(ctx, container.PromoteOptions{
		RedirectURI: testRedirectURI,
		State:       testState,
	})
	require.NoError(t, err)
	require.Equal(t, testState, result.State)

	// The authorization URL carries the promote assertion as a login hint
	// and forces re-authentication.
	require.Len(t, f.opener.AuthorizeURLs, 1)
	parsed, err := url.Parse(f.opener.AuthorizeURLs[0])
	require.NoError(t, err)
	query := parsed.Query()
	require.Equal(t, "login", query.Get("prompt"))

	hint := query.Get("login_hint")
	require.True(t, strings.HasPrefix(hint, "https://authd.io/login_hint?type=anonymous&jwt="))
	hintURL, err := url.Parse(hint)
	require.NoError(t, err)
	claims := parseAssertion(t, f, hintURL.Query().Get("jwt"), kid)
	require.Equal(t, "promote", claims["action"])

	// The code was exchanged and the anonymous identity discarded.
	require.Len(t, f.api.ExchangeCalls, 1)
	require.Equal(t, "promote-code", f.api.ExchangeCalls[0].Code)
	_, ok, err := f.store.GetAnonymousKeyID(ctx, container.DefaultName)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPromoteAnonymousUser_NotAnonymous(t *testing.T) {
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	_, err := f.container.PromoteAnonymousUser(context.Background(), container.PromoteOptions{
		RedirectURI: testRedirectURI,
	})
	require.ErrorIs(t, err, oauthmodel.ErrAnonymousNotFound)
}

func TestOpenURL(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	require.NoError(t, f.container.OpenURL(ctx, "https://accounts.example.com/settings"))

	require.Len(t, f.opener.OpenedURLs, 1)
	parsed, err := url.Parse(f.opener.OpenedURLs[0])
	require.NoError(t, err)
	query := parsed.Query()

	require.Equal(t, "none", query.Get("response_type"))
	require.Equal(t, "none", query.Get("prompt"))
	require.Equal(t, "https://accounts.example.com/settings", query.Get("redirect_uri"))
	require.True(t, strings.HasPrefix(query.Get("login_hint"),
		"https://authd.io/login_hint?type=app_session_token&app_session_token="))
	require.Contains(t, query.Get("login_hint"), "fake-app-session-token")
}

func TestOpenURL_RequiresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.configure(t, container.ConfigureOptions{})

	err := f.container.OpenURL(context.Background(), "https://accounts.example.com/settings")
	require.ErrorIs(t, err, oauthmodel.ErrRefreshTokenNotFound)
}

func TestOpen_SettingsPage(t *testing.T) {
	f := setupTestFixture(t)
	f.seedRefreshToken(t, "rt-1")
	f.configure(t, container.ConfigureOptions{SkipRefreshAccessToken: true})

	require.NoError(t, f.container.Open(context.Background(), container.PageSettings))

	require.Len(t, f.opener.OpenedURLs, 1)
	parsed, err := url.Parse(f.opener.OpenedURLs[0])
	require.NoError(t, err)
	require.Equal(t, "https://accounts.example.com/settings", parsed.Query().Get("redirect_uri"))
}

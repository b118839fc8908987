package container

import (
	"context"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/userinfo"
)

// APIClient is the provider transport contract the session engine depends
// on. It owns the HTTP details: the engine never sees status codes, only
// decoded responses, structured OAuth errors, or transport failures.
// httpapi.Client is the stock implementation.
type APIClient interface {
	// Endpoint returns the provider base URL.
	Endpoint() string

	// FetchOIDCConfiguration returns the provider's discovery document.
	FetchOIDCConfiguration(ctx context.Context) (*oauthmodel.OIDCConfiguration, error)

	// ExchangeCode performs the authorization_code grant.
	ExchangeCode(ctx context.Context, clientID, code, redirectURI, codeVerifier string) (*oauthmodel.TokenResponse, error)

	// RefreshToken performs the refresh_token grant. Provider rejections
	// surface as *oauthmodel.OAuthError.
	RefreshToken(ctx context.Context, clientID, refreshToken string) (*oauthmodel.TokenResponse, error)

	// RequestAnonymousToken performs the anonymous-request grant with a
	// signed JWT assertion.
	RequestAnonymousToken(ctx context.Context, clientID, jwt string) (*oauthmodel.TokenResponse, error)

	// FetchUserInfo fetches the userinfo document. accessToken may be empty
	// in first-party session-cookie mode.
	FetchUserInfo(ctx context.Context, accessToken string) (*userinfo.UserInfo, error)

	// RevokeToken revokes a refresh token.
	RevokeToken(ctx context.Context, refreshToken string) error

	// OAuthChallenge obtains a one-time challenge token.
	OAuthChallenge(ctx context.Context, purpose string) (*oauthmodel.ChallengeResponse, error)

	// AppSessionToken exchanges a refresh token for a user-agent hand-off token.
	AppSessionToken(ctx context.Context, refreshToken string) (*oauthmodel.AppSessionTokenResponse, error)

	// Access-token cache bookkeeping.
	AccessToken() string
	SetAccessTokenAndExpiresIn(accessToken string, expiresIn int)
	ShouldRefresh() bool
	SetShouldNotRefresh()
	ClearAccessToken()
}

// URLOpener is the platform launcher collaborator: it presents URLs in the
// user agent on behalf of the engine.
type URLOpener interface {
	// OpenAuthorizeURL opens authorizeURL, waits for the provider to
	// navigate to redirectURI, and returns the full redirect URL it
	// navigated to. A user cancellation should be returned as an error;
	// the engine treats it like a transport failure.
	OpenAuthorizeURL(ctx context.Context, authorizeURL, redirectURI string) (string, error)

	// OpenURL opens a URL without waiting for any redirect.
	OpenURL(ctx context.Context, url string) error
}

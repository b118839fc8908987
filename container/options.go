package container

import "github.com/jrsteele09/go-auth-client/userinfo"

// ConfigureOptions holds the connection information for Configure.
type ConfigureOptions struct {
	// ClientID identifies the OAuth2 client. Required.
	ClientID string

	// IsFirstParty marks the application as sharing the provider's
	// cookie domain, enabling session-cookie authorization
	// (response_type=none). The zero value means third party, which is the
	// common case: third-party apps must use the code + PKCE flow.
	IsFirstParty bool

	// SkipRefreshAccessToken suppresses the eager token refresh normally
	// performed when a stored refresh token is found; the session is then
	// reported as LoggedIn/FoundToken without any token endpoint call.
	SkipRefreshAccessToken bool
}

// AuthorizeOptions are the request-scoped parameters of one authorization
// attempt. They are never persisted.
type AuthorizeOptions struct {
	// RedirectURI is where the authorization response will be sent. Required.
	RedirectURI string

	// State is the opaque OAuth 2.0 state value, echoed back on the redirect.
	State string

	// Prompt is the OIDC prompt parameter (e.g. "login").
	Prompt string

	// LoginHint pre-selects the identity to authenticate.
	LoginHint string

	// UILocales are the preferred locale tags for the authorization UI.
	UILocales []string
}

// PromoteOptions are the request-scoped parameters of one anonymous-user
// promotion attempt.
type PromoteOptions struct {
	// RedirectURI is where the authorization response will be sent. Required.
	RedirectURI string

	// State is the opaque OAuth 2.0 state value.
	State string

	// UILocales are the preferred locale tags for the authorization UI.
	UILocales []string
}

// LogoutOptions control Logout behavior.
type LogoutOptions struct {
	// Force clears the local session even when token revocation fails
	// (e.g. offline); the revocation error is logged and swallowed.
	Force bool

	// RedirectURI is where the provider sends the user agent after ending
	// the session. First-party mode only.
	RedirectURI string
}

// AuthorizeResult is the outcome of a completed authorization.
type AuthorizeResult struct {
	// State echoes the OAuth 2.0 state value from the redirect, if any.
	State string

	// UserInfo is the authenticated user's decoded userinfo snapshot.
	UserInfo *userinfo.UserInfo
}

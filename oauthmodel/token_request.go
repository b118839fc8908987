package oauthmodel

import "net/url"

// GrantType identifies the OAuth2 grant used in a token request.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code (plus the PKCE
	// code verifier that generated its challenge) for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token,
	// and possibly a rotated refresh token.
	RefreshTokenGrant GrantType = "refresh_token"

	// AnonymousRequestGrant exchanges a signed JWT assertion, proving
	// possession of a device-bound key, for tokens without user credentials.
	AnonymousRequestGrant GrantType = "urn:authd:params:oauth:grant-type:anonymous-request"
)

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the request body sent to the provider's token endpoint.
// Supports multiple grant types: authorization_code, refresh_token and the
// anonymous-request grant.
type TokenRequest struct {
	// GrantType selects which credential below is exchanged.
	// Required: Yes (for all grant types)
	GrantType GrantType

	// ClientID identifies the OAuth2 client making the request.
	// Required: Yes (for all grant types)
	// Example: "mobile-app-xyz"
	ClientID string

	// Code is the authorization code received from the authorization endpoint.
	// Required: Yes (only for authorization_code grant)
	// Example: "SplxlOBeZQQYbYS6WxSbIA"
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// RedirectURI must repeat the redirect_uri used in the authorization
	// request, with query and fragment stripped.
	// Required: Yes (only for authorization_code grant)
	RedirectURI string

	// CodeVerifier is the PKCE code verifier that matches the code_challenge
	// sent in the authorization request.
	// Required: Yes (authorization_code grant from a third-party client)
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Validation: Server compares SHA256(code_verifier) with stored code_challenge
	CodeVerifier string

	// RefreshToken is used to obtain new access tokens without re-authentication.
	// Required: Yes (only for refresh_token grant)
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	// Behavior: May be rotated - old refresh token invalidated, new one issued
	RefreshToken string

	// JWT is the signed assertion for the anonymous-request grant.
	// Required: Yes (only for anonymous-request grant)
	// Security: Short-lived (60s), bound to a one-time server challenge
	JWT string
}

// Values encodes the request as the form body the token endpoint expects,
// emitting only the parameters that belong to the selected grant.
func (r TokenRequest) Values() url.Values {
	form := url.Values{}
	form.Set("grant_type", string(r.GrantType))
	form.Set("client_id", r.ClientID)

	switch r.GrantType {
	case AuthorizationCodeGrant:
		form.Set("code", r.Code)
		form.Set("redirect_uri", r.RedirectURI)
		if r.CodeVerifier != "" {
			form.Set("code_verifier", r.CodeVerifier)
		}
	case RefreshTokenGrant:
		form.Set("refresh_token", r.RefreshToken)
	case AnonymousRequestGrant:
		form.Set("jwt", r.JWT)
	}
	return form
}

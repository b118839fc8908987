package oauthmodel

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in
// RFC 6749. It is ephemeral: its fields are copied into the credential store
// and the API client's access-token cache, then discarded.
type TokenResponse struct {
	// AccessToken is the token used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (typically 15 minutes - 1 hour)
	AccessToken string `json:"access_token"`

	// IDToken is the OpenID Connect ID token containing user identity claims.
	// Only present: When "openid" scope was requested
	IDToken string `json:"id_token,omitempty"`

	// TokenType indicates how to use the access token (normally "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token. The API
	// client derives its "should refresh now" horizon from this value.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Lifespan: Long-lived, may rotate on each use
	// Security: The only credential persisted across restarts
	RefreshToken string `json:"refresh_token,omitempty"`
}

// OIDCConfiguration is the subset of the OpenID Connect discovery document
// the session engine needs.
type OIDCConfiguration struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// ChallengeResponse carries a one-time challenge token issued by the
// provider. Anonymous-grant JWT assertions embed the token to prove they
// were minted for this specific request.
type ChallengeResponse struct {
	Token    string `json:"token"`
	ExpireAt string `json:"expire_at"`
}

// AppSessionTokenResponse carries a short-lived token that copies the
// current session into a user-agent (e.g. a settings webview).
type AppSessionTokenResponse struct {
	AppSessionToken string `json:"app_session_token"`
	ExpireAt        string `json:"expire_at"`
}

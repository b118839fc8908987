package oauthmodel

import (
	"errors"
	"fmt"
)

// Configuration errors. These indicate misuse of the SDK (missing wiring or
// calling an operation before Configure) and are never retryable.
var (
	ErrMissingClientID      = errors.New("missing client id")
	ErrMissingAPIClient     = errors.New("missing api client")
	ErrMissingStorage       = errors.New("missing storage")
	ErrMissingURLOpener     = errors.New("missing url opener")
	ErrMissingKeyProvider   = errors.New("missing anonymous key provider")
	ErrAnonymousNotFound    = errors.New("anonymous user credentials not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// OAuthError represents the OAuth2 error response as defined in
// RFC 6749 section 4.1.2.1 (authorization errors) and section 5.2 (token
// endpoint errors). It is returned verbatim to the caller; the session engine
// only ever inspects the "invalid_grant" code during token refresh.
type OAuthError struct {
	// State echoes the OAuth2 state parameter on redirect-based errors.
	State string `json:"state,omitempty"`

	// Code is the machine-readable error code, e.g. "invalid_grant",
	// "access_denied", "invalid_request".
	Code string `json:"error"`

	// Description is the optional human-readable detail.
	Description string `json:"error_description,omitempty"`

	// URI optionally points at a human-readable error page.
	URI string `json:"error_uri,omitempty"`
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// IsInvalidGrant reports whether err is an OAuth error with the
// "invalid_grant" code, which signals that a refresh token has been rejected
// by the provider and the session is dead.
func IsInvalidGrant(err error) bool {
	var oauthErr *OAuthError
	return errors.As(err, &oauthErr) && oauthErr.Code == "invalid_grant"
}

// NewMissingCodeError is raised when an authorization redirect in the code
// flow carries neither an error nor a code parameter.
func NewMissingCodeError() *OAuthError {
	return &OAuthError{
		Code:        "invalid_request",
		Description: "Missing parameter: code",
	}
}

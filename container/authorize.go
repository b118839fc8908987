package container

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/pkce"
	"github.com/jrsteele09/go-auth-client/userinfo"
	"github.com/pkg/errors"
)

const (
	scopeThirdParty = "openid offline_access https://authd.io/scopes/full-access"
	scopeFirstParty = "openid https://authd.io/scopes/full-access"
)

// AuthorizeEndpoint builds the full authorization URL for one authorization
// attempt. In third-party mode it generates a fresh PKCE pair and persists
// the verifier before returning, overwriting any verifier left behind by a
// previous attempt; verifiers are strictly single-use.
func (c *Container) AuthorizeEndpoint(ctx context.Context, options AuthorizeOptions) (string, error) {
	responseType := "code"
	if c.isFirstParty {
		responseType = "none"
	}
	return c.buildAuthorizationURL(ctx, options, responseType)
}

func (c *Container) buildAuthorizationURL(ctx context.Context, options AuthorizeOptions, responseType string) (string, error) {
	if c.clientID == "" {
		return "", oauthmodel.ErrMissingClientID
	}

	config, err := c.apiClient.FetchOIDCConfiguration(ctx)
	if err != nil {
		return "", errors.Wrap(err, "[AuthorizeEndpoint] fetching configuration")
	}

	query := url.Values{}
	if responseType == "code" {
		verifier, err := pkce.GenerateCodeVerifier()
		if err != nil {
			return "", errors.Wrap(err, "[AuthorizeEndpoint] generating code verifier")
		}
		if err := c.storage.SetOIDCCodeVerifier(ctx, c.name, verifier); err != nil {
			return "", errors.Wrap(err, "[AuthorizeEndpoint] persisting code verifier")
		}
		query.Set("response_type", "code")
		query.Set("scope", scopeThirdParty)
		query.Set("code_challenge_method", "S256")
		query.Set("code_challenge", pkce.ComputeCodeChallenge(verifier))
	} else {
		// First party: the provider session cookie authorizes the request.
		query.Set("response_type", "none")
		query.Set("scope", scopeFirstParty)
	}

	query.Set("client_id", c.clientID)
	query.Set("redirect_uri", options.RedirectURI)
	if options.State != "" {
		query.Set("state", options.State)
	}
	if options.Prompt != "" {
		query.Set("prompt", options.Prompt)
	}
	if options.LoginHint != "" {
		query.Set("login_hint", options.LoginHint)
	}
	if len(options.UILocales) > 0 {
		query.Set("ui_locales", strings.Join(options.UILocales, " "))
	}

	return config.AuthorizationEndpoint + "?" + query.Encode(), nil
}

// Authorize runs the whole interactive authorization round trip: it builds
// the authorization URL, hands it to the platform launcher, and completes
// the flow with the redirect URL the provider navigated to.
func (c *Container) Authorize(ctx context.Context, options AuthorizeOptions) (*AuthorizeResult, error) {
	if c.opener == nil {
		return nil, oauthmodel.ErrMissingURLOpener
	}

	authorizeURL, err := c.AuthorizeEndpoint(ctx, options)
	if err != nil {
		return nil, err
	}
	redirectURL, err := c.opener.OpenAuthorizeURL(ctx, authorizeURL, options.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(err, "[Authorize] opening authorization URL")
	}
	return c.FinishAuthorization(ctx, redirectURL)
}

// FinishAuthorization completes an authorization attempt from the redirect
// URL the provider navigated to. A provider error on the redirect surfaces
// verbatim as *oauthmodel.OAuthError and leaves the session untouched. On
// success the credentials are persisted and the state becomes
// LoggedIn/Authorized.
func (c *Container) FinishAuthorization(ctx context.Context, redirectURL string) (*AuthorizeResult, error) {
	if c.clientID == "" {
		return nil, oauthmodel.ErrMissingClientID
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return nil, errors.Wrap(err, "[FinishAuthorization] parsing redirect URL")
	}
	params := redirectParams(parsed)

	if errorCode := params.Get("error"); errorCode != "" {
		return nil, &oauthmodel.OAuthError{
			State:       params.Get("state"),
			Code:        errorCode,
			Description: params.Get("error_description"),
			URI:         params.Get("error_uri"),
		}
	}

	var info *userinfo.UserInfo
	var tokenResponse *oauthmodel.TokenResponse
	if c.isFirstParty {
		// The session cookie authorizes the userinfo call; there is no
		// code exchange.
		info, err = c.apiClient.FetchUserInfo(ctx, "")
		if err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] fetching userinfo")
		}
	} else {
		code := params.Get("code")
		if code == "" {
			return nil, oauthmodel.NewMissingCodeError()
		}

		verifier, _, err := c.storage.GetOIDCCodeVerifier(ctx, c.name)
		if err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] reading code verifier")
		}

		tokenResponse, err = c.apiClient.ExchangeCode(ctx, c.clientID, code, stripURL(parsed), verifier)
		if err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] exchanging code")
		}
		// The verifier is bound to the exchanged code; it must never be
		// reused across two authorization flows.
		if err := c.storage.DelOIDCCodeVerifier(ctx, c.name); err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] deleting code verifier")
		}

		info, err = c.apiClient.FetchUserInfo(ctx, tokenResponse.AccessToken)
		if err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] fetching userinfo")
		}
	}

	if tokenResponse != nil {
		if err := c.persistTokenResponse(ctx, tokenResponse); err != nil {
			return nil, errors.Wrap(err, "[FinishAuthorization] persisting tokens")
		}
	}
	c.updateSessionState(SessionStateLoggedIn, SessionStateChangeReasonAuthorized)

	return &AuthorizeResult{
		State:    params.Get("state"),
		UserInfo: info,
	}, nil
}

// Logout ends the current session. In third-party mode the stored refresh
// token is revoked first; without Force a revocation failure propagates and
// the local session is kept. In first-party mode the local session is
// cleared and the user agent is sent to the provider's end-session
// endpoint. Logging out twice is not an error.
func (c *Container) Logout(ctx context.Context, options LogoutOptions) error {
	if !c.isFirstParty {
		refreshToken, ok, err := c.storage.GetRefreshToken(ctx, c.name)
		if err != nil {
			return errors.Wrap(err, "[Logout] reading refresh token")
		}
		if ok {
			if err := c.apiClient.RevokeToken(ctx, refreshToken); err != nil {
				if !options.Force {
					return errors.Wrap(err, "[Logout] revoking refresh token")
				}
				c.logger.Warn().Err(err).Msg("revocation failed, clearing session anyway")
			}
		}
		if err := c.clearSession(ctx); err != nil {
			return errors.Wrap(err, "[Logout] clearing session")
		}
		c.updateSessionState(SessionStateNoSession, SessionStateChangeReasonLogout)
		return nil
	}

	config, err := c.apiClient.FetchOIDCConfiguration(ctx)
	if err != nil {
		return errors.Wrap(err, "[Logout] fetching configuration")
	}
	query := url.Values{}
	if options.RedirectURI != "" {
		query.Set("post_logout_redirect_uri", options.RedirectURI)
	}
	endSessionURL := config.EndSessionEndpoint + "?" + query.Encode()

	if err := c.clearSession(ctx); err != nil {
		return errors.Wrap(err, "[Logout] clearing session")
	}
	c.updateSessionState(SessionStateNoSession, SessionStateChangeReasonLogout)

	if c.opener != nil {
		if err := c.opener.OpenURL(ctx, endSessionURL); err != nil {
			return errors.Wrap(err, "[Logout] opening end session URL")
		}
	}
	return nil
}

// redirectParams extracts the authorization response parameters from a
// redirect URL, falling back to the fragment when the provider used
// fragment response mode.
func redirectParams(u *url.URL) url.Values {
	params := u.Query()
	if len(params) == 0 && u.Fragment != "" {
		if fragmentParams, err := url.ParseQuery(u.Fragment); err == nil {
			return fragmentParams
		}
	}
	return params
}

// stripURL returns the redirect URL without query or fragment, the exact
// redirect_uri value the token endpoint expects back.
func stripURL(u *url.URL) string {
	stripped := *u
	stripped.RawQuery = ""
	stripped.Fragment = ""
	return stripped.String()
}

package container

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/pkg/errors"
)

// Page is a provider-hosted page the SDK can open with the current session.
type Page string

const (
	PageSettings   Page = "/settings"
	PageIdentities Page = "/settings/identities"
)

const loginHintAppSessionTokenFormat = "https://authd.io/login_hint?type=app_session_token&app_session_token="

// OpenURL opens the given URL in the user agent, authenticated as the
// current user. The stored refresh token is exchanged for an app session
// token that copies the session into the user agent through a silent
// response_type=none authorization.
func (c *Container) OpenURL(ctx context.Context, rawURL string) error {
	if c.opener == nil {
		return oauthmodel.ErrMissingURLOpener
	}

	refreshToken, ok, err := c.storage.GetRefreshToken(ctx, c.name)
	if err != nil {
		return errors.Wrap(err, "[OpenURL] reading refresh token")
	}
	if !ok {
		return oauthmodel.ErrRefreshTokenNotFound
	}

	sessionToken, err := c.apiClient.AppSessionToken(ctx, refreshToken)
	if err != nil {
		return errors.Wrap(err, "[OpenURL] obtaining app session token")
	}

	targetURL, err := c.buildAuthorizationURL(ctx, AuthorizeOptions{
		RedirectURI: rawURL,
		Prompt:      "none",
		LoginHint:   loginHintAppSessionTokenFormat + url.QueryEscape(sessionToken.AppSessionToken),
	}, "none")
	if err != nil {
		return err
	}
	return c.opener.OpenURL(ctx, targetURL)
}

// Open opens a provider-hosted page, e.g. the settings screen.
func (c *Container) Open(ctx context.Context, page Page) error {
	endpoint := c.apiClient.Endpoint()
	return c.OpenURL(ctx, strings.TrimSuffix(endpoint, "/")+string(page))
}

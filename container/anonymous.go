package container

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-auth-client/anonymous"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/pkg/errors"
)

const (
	challengePurposeAnonymous = "anonymous_request"
	loginHintAnonymousFormat  = "https://authd.io/login_hint?type=anonymous&jwt="
)

// AuthenticateAnonymously signs the user in without credentials by proving
// possession of a per-install key: it obtains a one-time challenge from the
// provider, signs a short-lived JWT assertion over it, and exchanges the
// assertion through the anonymous grant. The key ID is persisted so later
// calls reuse the same identity.
func (c *Container) AuthenticateAnonymously(ctx context.Context) (*AuthorizeResult, error) {
	if c.clientID == "" {
		return nil, oauthmodel.ErrMissingClientID
	}
	if c.keys == nil {
		return nil, oauthmodel.ErrMissingKeyProvider
	}

	challenge, err := c.apiClient.OAuthChallenge(ctx, challengePurposeAnonymous)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] obtaining challenge")
	}

	keyID, _, err := c.storage.GetAnonymousKeyID(ctx, c.name)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] reading key id")
	}
	key, err := c.keys.GetOrCreate(ctx, keyID)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] provisioning key")
	}

	assertion, err := anonymous.SignRequest(key, challenge.Token, anonymous.ActionAuth, c.nowFunc())
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] signing assertion")
	}

	tokenResponse, err := c.apiClient.RequestAnonymousToken(ctx, c.clientID, assertion)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] token request")
	}

	info, err := c.apiClient.FetchUserInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] fetching userinfo")
	}

	if err := c.persistTokenResponse(ctx, tokenResponse); err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] persisting tokens")
	}
	if err := c.storage.SetAnonymousKeyID(ctx, c.name, key.KID); err != nil {
		return nil, errors.Wrap(err, "[AuthenticateAnonymously] persisting key id")
	}
	c.updateSessionState(SessionStateLoggedIn, SessionStateChangeReasonAuthorized)

	return &AuthorizeResult{UserInfo: info}, nil
}

// PromoteAnonymousUser converts the current anonymous identity into a full
// account: it signs a promote assertion with the stored anonymous key,
// runs the normal interactive authorization flow with the assertion as a
// login hint, and on success discards the anonymous key ID, since the
// identity has been merged into the full account.
func (c *Container) PromoteAnonymousUser(ctx context.Context, options PromoteOptions) (*AuthorizeResult, error) {
	if c.keys == nil {
		return nil, oauthmodel.ErrMissingKeyProvider
	}
	if c.opener == nil {
		return nil, oauthmodel.ErrMissingURLOpener
	}

	keyID, ok, err := c.storage.GetAnonymousKeyID(ctx, c.name)
	if err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] reading key id")
	}
	if !ok {
		return nil, oauthmodel.ErrAnonymousNotFound
	}
	key, err := c.keys.GetOrCreate(ctx, keyID)
	if err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] loading key")
	}

	challenge, err := c.apiClient.OAuthChallenge(ctx, challengePurposeAnonymous)
	if err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] obtaining challenge")
	}

	assertion, err := anonymous.SignRequest(key, challenge.Token, anonymous.ActionPromote, c.nowFunc())
	if err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] signing assertion")
	}

	authorizeURL, err := c.AuthorizeEndpoint(ctx, AuthorizeOptions{
		RedirectURI: options.RedirectURI,
		State:       options.State,
		UILocales:   options.UILocales,
		Prompt:      "login",
		LoginHint:   loginHintAnonymousFormat + url.QueryEscape(assertion),
	})
	if err != nil {
		return nil, err
	}
	redirectURL, err := c.opener.OpenAuthorizeURL(ctx, authorizeURL, options.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] opening authorization URL")
	}

	result, err := c.FinishAuthorization(ctx, redirectURL)
	if err != nil {
		return nil, err
	}

	if err := c.storage.DelAnonymousKeyID(ctx, c.name); err != nil {
		return nil, errors.Wrap(err, "[PromoteAnonymousUser] deleting key id")
	}
	return result, nil
}

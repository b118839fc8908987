package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/userinfo"
	"github.com/pkg/errors"
)

const (
	challengePath       = "/oauth2/challenge"
	appSessionTokenPath = "/oauth2/app_session_token"
)

// FetchUserInfo fetches the OIDC userinfo document. accessToken may be
// empty for first-party deployments, where the provider session cookie on
// the underlying HTTP client authenticates the call instead.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*userinfo.UserInfo, error) {
	config, err := c.FetchOIDCConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.UserinfoEndpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[FetchUserInfo] building request")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	raw := map[string]any{}
	if err := c.doJSON(req, &raw); err != nil {
		return nil, errors.Wrap(err, "[FetchUserInfo] userinfo request")
	}
	return userinfo.Decode(raw)
}

// RevokeToken revokes a refresh token at the provider's revocation endpoint.
func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	config, err := c.FetchOIDCConfiguration(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.RevocationEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[RevokeToken] building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := c.doJSON(req, nil); err != nil {
		return errors.Wrap(err, "[RevokeToken] revocation request")
	}
	return nil
}

// OAuthChallenge obtains a one-time challenge token from the provider.
// Anonymous-grant assertions must embed the token to be accepted.
func (c *Client) OAuthChallenge(ctx context.Context, purpose string) (*oauthmodel.ChallengeResponse, error) {
	payload, err := json.Marshal(map[string]string{"purpose": purpose})
	if err != nil {
		return nil, errors.Wrap(err, "[OAuthChallenge] encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+challengePath,
		bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[OAuthChallenge] building request")
	}
	req.Header.Set("Content-Type", "application/json")

	var challenge oauthmodel.ChallengeResponse
	if err := c.doJSON(req, &challenge); err != nil {
		return nil, errors.Wrap(err, "[OAuthChallenge] challenge request")
	}
	return &challenge, nil
}

// AppSessionToken exchanges a refresh token for a short-lived token that
// carries the session into a user-agent.
func (c *Client) AppSessionToken(ctx context.Context, refreshToken string) (*oauthmodel.AppSessionTokenResponse, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[AppSessionToken] encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+appSessionTokenPath,
		bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[AppSessionToken] building request")
	}
	req.Header.Set("Content-Type", "application/json")

	var token oauthmodel.AppSessionTokenResponse
	if err := c.doJSON(req, &token); err != nil {
		return nil, errors.Wrap(err, "[AppSessionToken] app session token request")
	}
	return &token, nil
}

// doJSON executes a request, surfaces RFC 6749 error bodies as
// *oauthmodel.OAuthError, and decodes a successful body into out when out
// is non-nil.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeOAuthError(body, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

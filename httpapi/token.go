package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

func (c *Client) oauth2Config(tokenEndpoint, clientID, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenEndpoint,
			// Public client: client_id travels in the request body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) oauth2Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode performs the authorization_code grant, binding the exchange
// to the PKCE verifier that produced the authorization request's challenge.
func (c *Client) ExchangeCode(ctx context.Context, clientID, code, redirectURI, codeVerifier string) (*oauthmodel.TokenResponse, error) {
	config, err := c.FetchOIDCConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	conf := c.oauth2Config(config.TokenEndpoint, clientID, redirectURI)
	token, err := conf.Exchange(c.oauth2Context(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, translateTokenError(err)
	}
	return tokenResponseFromOAuth2(token), nil
}

// RefreshToken performs the refresh_token grant. Provider rejections come
// back as *oauthmodel.OAuthError (notably invalid_grant); transport errors
// pass through unchanged so the caller can retry without losing the session.
func (c *Client) RefreshToken(ctx context.Context, clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
	config, err := c.FetchOIDCConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	conf := c.oauth2Config(config.TokenEndpoint, clientID, "")
	source := conf.TokenSource(c.oauth2Context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, translateTokenError(err)
	}

	response := tokenResponseFromOAuth2(token)
	// x/oauth2 echoes the input refresh token when the provider does not
	// rotate it; only report a rotation when one actually happened.
	if response.RefreshToken == refreshToken {
		response.RefreshToken = ""
	}
	return response, nil
}

// RequestAnonymousToken performs the anonymous-request grant. x/oauth2 has
// no support for custom grant types, so this request is a plain form POST.
func (c *Client) RequestAnonymousToken(ctx context.Context, clientID, jwt string) (*oauthmodel.TokenResponse, error) {
	config, err := c.FetchOIDCConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	form := oauthmodel.TokenRequest{
		GrantType: oauthmodel.AnonymousRequestGrant,
		ClientID:  clientID,
		JWT:       jwt,
	}.Values()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.TokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "[RequestAnonymousToken] building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[RequestAnonymousToken] token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[RequestAnonymousToken] reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeOAuthError(body, resp.StatusCode)
	}

	var tokenResponse oauthmodel.TokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return nil, errors.Wrap(err, "[RequestAnonymousToken] decoding token response")
	}
	return &tokenResponse, nil
}

func tokenResponseFromOAuth2(token *oauth2.Token) *oauthmodel.TokenResponse {
	expiresIn := int(token.ExpiresIn)
	if expiresIn == 0 && !token.Expiry.IsZero() {
		expiresIn = int(time.Until(token.Expiry).Seconds())
	}
	response := &oauthmodel.TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		response.IDToken = idToken
	}
	return response
}

// translateTokenError converts structured provider rejections into
// *oauthmodel.OAuthError and leaves everything else (DNS failures,
// timeouts, malformed bodies) untouched.
func translateTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if stderrors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
		return &oauthmodel.OAuthError{
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
			URI:         retrieveErr.ErrorURI,
		}
	}
	return err
}

// decodeOAuthError interprets an error response body as an RFC 6749 error
// object, falling back to a generic failure for non-OAuth bodies.
func decodeOAuthError(body []byte, statusCode int) error {
	var oauthErr oauthmodel.OAuthError
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Code != "" {
		return &oauthErr
	}
	return errors.Errorf("provider returned status %d", statusCode)
}

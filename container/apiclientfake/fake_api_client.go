// Package apiclientfake provides an in-memory API client double for
// exercising the session engine without a provider.
package apiclientfake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/container"
	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/jrsteele09/go-auth-client/userinfo"
)

var _ container.APIClient = (*FakeAPIClient)(nil)

// ExchangeCall records one ExchangeCode invocation.
type ExchangeCall struct {
	ClientID     string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// FakeAPIClient implements container.APIClient. Behavior is overridden per
// test through the *Func fields; calls and the access-token cache state are
// recorded for assertions.
type FakeAPIClient struct {
	EndpointURL   string
	Configuration *oauthmodel.OIDCConfiguration

	RefreshFunc         func(clientID, refreshToken string) (*oauthmodel.TokenResponse, error)
	ExchangeFunc        func(call ExchangeCall) (*oauthmodel.TokenResponse, error)
	AnonymousTokenFunc  func(clientID, jwt string) (*oauthmodel.TokenResponse, error)
	UserInfoFunc        func(accessToken string) (*userinfo.UserInfo, error)
	RevokeFunc          func(refreshToken string) error
	ChallengeFunc       func(purpose string) (*oauthmodel.ChallengeResponse, error)
	AppSessionTokenFunc func(refreshToken string) (*oauthmodel.AppSessionTokenResponse, error)

	mu              sync.Mutex
	RefreshCalls    []string
	ExchangeCalls   []ExchangeCall
	AnonymousJWTs   []string
	UserInfoTokens  []string
	RevokedTokens   []string
	accessToken     string
	expiresIn       int
	refreshDisabled bool
}

// NewFakeAPIClient creates a fake with a static discovery document.
func NewFakeAPIClient() *FakeAPIClient {
	return &FakeAPIClient{
		EndpointURL: "https://accounts.example.com",
		Configuration: &oauthmodel.OIDCConfiguration{
			AuthorizationEndpoint: "https://accounts.example.com/oauth2/authorize",
			TokenEndpoint:         "https://accounts.example.com/oauth2/token",
			UserinfoEndpoint:      "https://accounts.example.com/oauth2/userinfo",
			RevocationEndpoint:    "https://accounts.example.com/oauth2/revoke",
			EndSessionEndpoint:    "https://accounts.example.com/oauth2/end_session",
		},
	}
}

// DefaultTokenResponse is what the token fakes return unless overridden.
func DefaultTokenResponse() *oauthmodel.TokenResponse {
	return &oauthmodel.TokenResponse{
		AccessToken:  "fake-access-token",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: "fake-refresh-token",
	}
}

// DefaultUserInfo is what the userinfo fake returns unless overridden.
func DefaultUserInfo() *userinfo.UserInfo {
	return &userinfo.UserInfo{
		Sub:              "fake-sub",
		Roles:            []string{},
		CustomAttributes: map[string]any{},
		Raw:              map[string]any{"sub": "fake-sub"},
	}
}

func (f *FakeAPIClient) Endpoint() string {
	return f.EndpointURL
}

func (f *FakeAPIClient) FetchOIDCConfiguration(context.Context) (*oauthmodel.OIDCConfiguration, error) {
	return f.Configuration, nil
}

func (f *FakeAPIClient) ExchangeCode(_ context.Context, clientID, code, redirectURI, codeVerifier string) (*oauthmodel.TokenResponse, error) {
	call := ExchangeCall{
		ClientID:     clientID,
		Code:         code,
		RedirectURI:  redirectURI,
		CodeVerifier: codeVerifier,
	}
	f.mu.Lock()
	f.ExchangeCalls = append(f.ExchangeCalls, call)
	f.mu.Unlock()

	if f.ExchangeFunc != nil {
		return f.ExchangeFunc(call)
	}
	return DefaultTokenResponse(), nil
}

func (f *FakeAPIClient) RefreshToken(_ context.Context, clientID, refreshToken string) (*oauthmodel.TokenResponse, error) {
	f.mu.Lock()
	f.RefreshCalls = append(f.RefreshCalls, refreshToken)
	f.mu.Unlock()

	if f.RefreshFunc != nil {
		return f.RefreshFunc(clientID, refreshToken)
	}
	return DefaultTokenResponse(), nil
}

func (f *FakeAPIClient) RequestAnonymousToken(_ context.Context, clientID, jwt string) (*oauthmodel.TokenResponse, error) {
	f.mu.Lock()
	f.AnonymousJWTs = append(f.AnonymousJWTs, jwt)
	f.mu.Unlock()

	if f.AnonymousTokenFunc != nil {
		return f.AnonymousTokenFunc(clientID, jwt)
	}
	return DefaultTokenResponse(), nil
}

func (f *FakeAPIClient) FetchUserInfo(_ context.Context, accessToken string) (*userinfo.UserInfo, error) {
	f.mu.Lock()
	f.UserInfoTokens = append(f.UserInfoTokens, accessToken)
	f.mu.Unlock()

	if f.UserInfoFunc != nil {
		return f.UserInfoFunc(accessToken)
	}
	return DefaultUserInfo(), nil
}

func (f *FakeAPIClient) RevokeToken(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	f.RevokedTokens = append(f.RevokedTokens, refreshToken)
	f.mu.Unlock()

	if f.RevokeFunc != nil {
		return f.RevokeFunc(refreshToken)
	}
	return nil
}

func (f *FakeAPIClient) OAuthChallenge(_ context.Context, purpose string) (*oauthmodel.ChallengeResponse, error) {
	if f.ChallengeFunc != nil {
		return f.ChallengeFunc(purpose)
	}
	return &oauthmodel.ChallengeResponse{
		Token:    "fake-challenge",
		ExpireAt: time.Now().Add(time.Minute).UTC().Format(time.RFC3339),
	}, nil
}

func (f *FakeAPIClient) AppSessionToken(_ context.Context, refreshToken string) (*oauthmodel.AppSessionTokenResponse, error) {
	if f.AppSessionTokenFunc != nil {
		return f.AppSessionTokenFunc(refreshToken)
	}
	return &oauthmodel.AppSessionTokenResponse{
		AppSessionToken: "fake-app-session-token",
		ExpireAt:        time.Now().Add(time.Minute).UTC().Format(time.RFC3339),
	}, nil
}

func (f *FakeAPIClient) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessToken
}

func (f *FakeAPIClient) SetAccessTokenAndExpiresIn(accessToken string, expiresIn int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessToken = accessToken
	f.expiresIn = expiresIn
	f.refreshDisabled = false
}

func (f *FakeAPIClient) ShouldRefresh() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.refreshDisabled && f.accessToken == ""
}

func (f *FakeAPIClient) SetShouldNotRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshDisabled = true
}

func (f *FakeAPIClient) ClearAccessToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessToken = ""
}

// RefreshDisabled reports whether SetShouldNotRefresh has been called since
// the last token update.
func (f *FakeAPIClient) RefreshDisabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshDisabled
}

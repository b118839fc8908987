package oauthmodel_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestTokenRequestValues(t *testing.T) {
	t.Run("authorization_code grant", func(t *testing.T) {
		form := oauthmodel.TokenRequest{
			GrantType:    oauthmodel.AuthorizationCodeGrant,
			ClientID:     "client-1",
			Code:         "code-1",
			RedirectURI:  "https://myapp.example.com/callback",
			CodeVerifier: "verifier-1",
			RefreshToken: "must-not-leak",
			JWT:          "must-not-leak",
		}.Values()

		require.Equal(t, "authorization_code", form.Get("grant_type"))
		require.Equal(t, "client-1", form.Get("client_id"))
		require.Equal(t, "code-1", form.Get("code"))
		require.Equal(t, "https://myapp.example.com/callback", form.Get("redirect_uri"))
		require.Equal(t, "verifier-1", form.Get("code_verifier"))

		// Parameters of the other grants never leak into the body.
		require.False(t, form.Has("refresh_token"))
		require.False(t, form.Has("jwt"))
	})

	t.Run("authorization_code grant without verifier", func(t *testing.T) {
		form := oauthmodel.TokenRequest{
			GrantType:   oauthmodel.AuthorizationCodeGrant,
			ClientID:    "client-1",
			Code:        "code-1",
			RedirectURI: "https://myapp.example.com/callback",
		}.Values()

		require.False(t, form.Has("code_verifier"))
	})

	t.Run("refresh_token grant", func(t *testing.T) {
		form := oauthmodel.TokenRequest{
			GrantType:    oauthmodel.RefreshTokenGrant,
			ClientID:     "client-1",
			RefreshToken: "rt-1",
		}.Values()

		require.Equal(t, "refresh_token", form.Get("grant_type"))
		require.Equal(t, "rt-1", form.Get("refresh_token"))
		require.False(t, form.Has("code"))
	})

	t.Run("anonymous-request grant", func(t *testing.T) {
		form := oauthmodel.TokenRequest{
			GrantType: oauthmodel.AnonymousRequestGrant,
			ClientID:  "client-1",
			JWT:       "signed-jwt",
		}.Values()

		require.Equal(t, string(oauthmodel.AnonymousRequestGrant), form.Get("grant_type"))
		require.Equal(t, "signed-jwt", form.Get("jwt"))
		require.False(t, form.Has("refresh_token"))
	})
}

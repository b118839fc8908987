package anonymous

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Action states what an assertion authorizes.
type Action string

const (
	// ActionAuth authenticates the anonymous user.
	ActionAuth Action = "auth"
	// ActionPromote converts the anonymous identity into a full account.
	ActionPromote Action = "promote"
)

// RequestTokenType is the JWT "typ" header the provider expects on
// anonymous-request assertions.
const RequestTokenType = "vnd.authd.anonymous-request"

// assertionLifetime bounds replay of a captured assertion; the embedded
// one-time challenge already prevents reuse against the issuing provider.
const assertionLifetime = 60 * time.Second

// SignRequest mints the signed assertion for the anonymous-request grant:
// an RS256 JWT over {iat, exp = iat+60s, challenge, action} whose header
// carries the request token type and the public JWK of the signing key.
func SignRequest(key *Key, challenge string, action Action, now time.Time) (string, error) {
	if key == nil {
		return "", errors.New("[SignRequest] key is required")
	}

	claims := jwt.MapClaims{
		"iat":       now.Unix(),
		"exp":       now.Add(assertionLifetime).Unix(),
		"challenge": challenge,
		"action":    string(action),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["typ"] = RequestTokenType
	for name, value := range key.PublicJWK() {
		token.Header[name] = value
	}

	signed, err := token.SignedString(key.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "[SignRequest] signing assertion")
	}
	return signed, nil
}

// Package anonymous implements the anonymous-user grant support: per-install
// asymmetric keys and the short-lived JWT assertions that prove possession
// of them.
package anonymous

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const rsaKeyBits = 2048

// Key is a device-bound RSA key pair identified by an opaque key ID. The
// key ID is the only part of it the session engine ever persists; the key
// material itself stays with the KeyProvider.
type Key struct {
	KID        string
	PrivateKey *rsa.PrivateKey
}

// PublicJWK returns the public half of the key as a JSON Web Key map. The
// JWK is embedded in the assertion header so the provider can verify the
// signature on first contact.
func (k *Key) PublicJWK() map[string]any {
	pub := &k.PrivateKey.PublicKey
	return map[string]any{
		"kid": k.KID,
		"kty": "RSA",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// KeyProvider provisions and looks up anonymous-user keys. Production
// implementations back it with the platform keystore; key material must
// never leave the device.
type KeyProvider interface {
	// GetOrCreate returns the key identified by kid, or provisions a fresh
	// key when kid is empty.
	GetOrCreate(ctx context.Context, kid string) (*Key, error)
}

// InMemoryKeyProvider keeps generated keys in process memory. Suitable for
// tests and short-lived sessions only.
type InMemoryKeyProvider struct {
	keys map[string]*Key
}

var _ KeyProvider = (*InMemoryKeyProvider)(nil)

// NewInMemoryKeyProvider creates an empty in-memory key provider.
func NewInMemoryKeyProvider() *InMemoryKeyProvider {
	return &InMemoryKeyProvider{keys: make(map[string]*Key)}
}

func (p *InMemoryKeyProvider) GetOrCreate(_ context.Context, kid string) (*Key, error) {
	if kid != "" {
		key, ok := p.keys[kid]
		if !ok {
			return nil, errors.Errorf("[InMemoryKeyProvider] unknown key id %q", kid)
		}
		return key, nil
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, errors.Wrap(err, "[InMemoryKeyProvider] generating key pair")
	}
	key := &Key{
		KID:        uuid.New().String(),
		PrivateKey: privateKey,
	}
	p.keys[key.KID] = key
	return key, nil
}

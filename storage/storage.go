// Package storage defines the credential persistence contract consumed by
// the session engine: three string-valued keys (refresh token, OIDC code
// verifier, anonymous key ID), each scoped to a container namespace.
package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Storage is the credential store contract. Each call is independently
// atomic from the engine's point of view; the engine issues calls
// sequentially and never assumes cross-key transactions. Getters report
// absence through the ok return, never through the error.
type Storage interface {
	GetRefreshToken(ctx context.Context, namespace string) (value string, ok bool, err error)
	SetRefreshToken(ctx context.Context, namespace string, refreshToken string) error
	DelRefreshToken(ctx context.Context, namespace string) error

	GetOIDCCodeVerifier(ctx context.Context, namespace string) (value string, ok bool, err error)
	SetOIDCCodeVerifier(ctx context.Context, namespace string, verifier string) error
	DelOIDCCodeVerifier(ctx context.Context, namespace string) error

	GetAnonymousKeyID(ctx context.Context, namespace string) (value string, ok bool, err error)
	SetAnonymousKeyID(ctx context.Context, namespace string, keyID string) error
	DelAnonymousKeyID(ctx context.Context, namespace string) error
}

const (
	keyRefreshToken     = "refresh_token"
	keyOIDCCodeVerifier = "oidc_code_verifier"
	keyAnonymousKeyID   = "anonymous_key_id"
)

// ContainerStorage implements Storage on top of a flat Driver by prefixing
// every key with the container namespace, keeping multiple containers
// (multi-account scenarios) isolated within one driver.
type ContainerStorage struct {
	driver Driver
}

var _ Storage = (*ContainerStorage)(nil)

// NewContainerStorage wraps a platform Driver in the namespaced contract.
func NewContainerStorage(driver Driver) *ContainerStorage {
	return &ContainerStorage{driver: driver}
}

func scopedKey(namespace, key string) string {
	return fmt.Sprintf("%s_%s", namespace, key)
}

func (s *ContainerStorage) get(ctx context.Context, namespace, key string) (string, bool, error) {
	value, err := s.driver.Get(ctx, scopedKey(namespace, key))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[ContainerStorage] getting %s", key)
	}
	return value, true, nil
}

func (s *ContainerStorage) GetRefreshToken(ctx context.Context, namespace string) (string, bool, error) {
	return s.get(ctx, namespace, keyRefreshToken)
}

func (s *ContainerStorage) SetRefreshToken(ctx context.Context, namespace, refreshToken string) error {
	return s.driver.Set(ctx, scopedKey(namespace, keyRefreshToken), refreshToken)
}

func (s *ContainerStorage) DelRefreshToken(ctx context.Context, namespace string) error {
	return s.driver.Del(ctx, scopedKey(namespace, keyRefreshToken))
}

func (s *ContainerStorage) GetOIDCCodeVerifier(ctx context.Context, namespace string) (string, bool, error) {
	return s.get(ctx, namespace, keyOIDCCodeVerifier)
}

func (s *ContainerStorage) SetOIDCCodeVerifier(ctx context.Context, namespace, verifier string) error {
	return s.driver.Set(ctx, scopedKey(namespace, keyOIDCCodeVerifier), verifier)
}

func (s *ContainerStorage) DelOIDCCodeVerifier(ctx context.Context, namespace string) error {
	return s.driver.Del(ctx, scopedKey(namespace, keyOIDCCodeVerifier))
}

func (s *ContainerStorage) GetAnonymousKeyID(ctx context.Context, namespace string) (string, bool, error) {
	return s.get(ctx, namespace, keyAnonymousKeyID)
}

func (s *ContainerStorage) SetAnonymousKeyID(ctx context.Context, namespace, keyID string) error {
	return s.driver.Set(ctx, scopedKey(namespace, keyAnonymousKeyID), keyID)
}

func (s *ContainerStorage) DelAnonymousKeyID(ctx context.Context, namespace string) error {
	return s.driver.Del(ctx, scopedKey(namespace, keyAnonymousKeyID))
}

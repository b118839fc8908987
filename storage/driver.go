package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Driver.Get when a key has never been written
// or has been deleted. Absence is an expected condition, checked with
// errors.Is; every other error from a driver is a real storage failure.
var ErrNotFound = errors.New("storage: key not found")

// Driver is the platform persistence contract: a flat string key-value
// store. Implementations live in the platform layer (keychain, browser
// storage, a file on disk) and are expected to be safe for concurrent use.
type Driver interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Del(ctx context.Context, key string) error
}

package storage

import (
	"context"
	"sync"
)

// InMemoryDriver is an in-memory implementation of Driver. Credentials kept
// here do not survive a restart; it exists for tests, demos and ephemeral
// sessions.
type InMemoryDriver struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Driver = (*InMemoryDriver)(nil)

// NewInMemoryDriver creates an empty in-memory driver.
func NewInMemoryDriver() *InMemoryDriver {
	return &InMemoryDriver{values: make(map[string]string)}
}

func (d *InMemoryDriver) Get(_ context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, ok := d.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (d *InMemoryDriver) Set(_ context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values[key] = value
	return nil
}

func (d *InMemoryDriver) Del(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Deleting a key that was never written is not an error.
	delete(d.values, key)
	return nil
}

// Package storage defines the persisted key/value capability the session
// store is built on. Backends live in the sub-packages.
package storage

import (
	"context"
	"errors"
)

// KV is an asynchronous-safe string key/value store. Single-key operations
// are atomic; there are no transactions.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys in a single call. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// Close releases the backend's resources when it holds any.
func Close(kv KV) error {
	if c, ok := kv.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

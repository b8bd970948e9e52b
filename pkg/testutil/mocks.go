// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaia-invest/kaia-core/internal/storage"
)

// ErrInjected is returned by FailingKV.
var ErrInjected = errors.New("testutil: injected storage failure")

// FailingKV fails every operation it is configured to fail and otherwise
// behaves like an in-memory store.
type FailingKV struct {
	mu         sync.Mutex
	items      map[string]string
	FailGet    bool
	FailSet    bool
	FailRemove bool

	gets    atomic.Int64
	sets    atomic.Int64
	removes atomic.Int64
}

var _ storage.KV = (*FailingKV)(nil)

// NewFailingKV creates a store that fails nothing until told to.
func NewFailingKV() *FailingKV {
	return &FailingKV{items: make(map[string]string)}
}

func (f *FailingKV) Get(_ context.Context, key string) (string, bool, error) {
	f.gets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet {
		return "", false, ErrInjected
	}
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *FailingKV) Set(_ context.Context, key, value string) error {
	f.sets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSet {
		return ErrInjected
	}
	f.items[key] = value
	return nil
}

func (f *FailingKV) Remove(_ context.Context, keys ...string) error {
	f.removes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRemove {
		return ErrInjected
	}
	for _, k := range keys {
		delete(f.items, k)
	}
	return nil
}

// Gets returns how many times Get was called.
func (f *FailingKV) Gets() int64 { return f.gets.Load() }

// Sets returns how many times Set was called.
func (f *FailingKV) Sets() int64 { return f.sets.Load() }

// Removes returns how many times Remove was called.
func (f *FailingKV) Removes() int64 { return f.removes.Load() }

// RunKVContract checks the behaviour every storage.KV backend must share.
// kv must start empty.
func RunKVContract(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "jwt_token")
	require.NoError(t, err)
	require.False(t, ok, "fresh store must be empty")

	require.NoError(t, kv.Set(ctx, "jwt_token", "tok-1"))
	require.NoError(t, kv.Set(ctx, "payload", `{"id":1}`))

	v, ok, err := kv.Get(ctx, "jwt_token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok-1", v)

	require.NoError(t, kv.Set(ctx, "jwt_token", "tok-2"))
	v, _, err = kv.Get(ctx, "jwt_token")
	require.NoError(t, err)
	require.Equal(t, "tok-2", v)

	require.NoError(t, kv.Set(ctx, "empty", ""))
	v, ok, err = kv.Get(ctx, "empty")
	require.NoError(t, err)
	require.True(t, ok, "empty values are still present")
	require.Equal(t, "", v)

	require.NoError(t, kv.Remove(ctx, "jwt_token", "payload", "never-set"))
	for _, k := range []string{"jwt_token", "payload"} {
		_, ok, err = kv.Get(ctx, k)
		require.NoError(t, err)
		require.False(t, ok, "%s should be removed", k)
	}

	require.NoError(t, kv.Remove(ctx))
	require.NoError(t, kv.Remove(ctx, "empty"))
}

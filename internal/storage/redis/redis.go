// Package redis stores session keys in Redis so several CLI processes on
// different hosts can share a login.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/go-redis/redis/v8"

	"github.com/kaia-invest/kaia-core/internal/storage"
)

// Config configures the client.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key.
	Prefix string
}

// Store implements storage.KV on a Redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ storage.KV = (*Store)(nil)

// New dials Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	addr := strings.ReplaceAll(strings.TrimSpace(cfg.Addr), " ", "")
	if addr == "" {
		return nil, errors.New("redis storage: addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis storage: ping %s: %w", addr, err)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis storage: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis storage: set %s: %w", key, err)
	}
	return nil
}

// Remove issues a single DEL so all keys disappear together.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis storage: del: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

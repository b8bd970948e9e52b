// Package postgres stores session keys in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kaia-invest/kaia-core/internal/storage"
)

// Table is the backing table name.
const Table = "kaia_session_kv"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kaia_session_kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS kaia_session_kv_updated_at_idx ON kaia_session_kv (updated_at)`,
}

// Store implements storage.KV backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.KV = (*Store)(nil)

// Open connects with lib/pq, applies the schema and returns a store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres storage: connect: %w", err)
	}
	if err := Apply(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Apply creates the table and index when missing.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres storage: schema step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kaia_session_kv WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres storage: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kaia_session_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("postgres storage: set %s: %w", key, err)
	}
	return nil
}

// Remove deletes every key in one statement.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kaia_session_kv WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("postgres storage: remove: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

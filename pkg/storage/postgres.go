package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPostgresTable = "featureflow_kv"

// PostgresStorage implements Storage on top of a pgx connection pool,
// persisting values in a single key-value table.
type PostgresStorage struct {
	pool  *pgxpool.Pool
	table string
}

// PostgresOption configures a PostgresStorage.
type PostgresOption func(*PostgresStorage)

// WithPostgresTable overrides the backing table name.
func WithPostgresTable(table string) PostgresOption {
	return func(s *PostgresStorage) {
		if table != "" {
			s.table = table
		}
	}
}

// NewPostgresStorage creates a Postgres-backed storage and ensures the
// backing table exists. The caller retains ownership of the pool.
func NewPostgresStorage(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrNilClient
	}

	s := &PostgresStorage{pool: pool, table: defaultPostgresTable}
	for _, opt := range opts {
		opt(s)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("storage: create table %q: %w", s.table, err)
	}

	return s, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *PostgresStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.table)
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, overwriting any existing value.
func (s *PostgresStorage) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, s.table)
	_, err := s.pool.Exec(ctx, query, key, value)
	return err
}

// Remove deletes key. Removing an absent key is not an error.
func (s *PostgresStorage) Remove(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.table)
	_, err := s.pool.Exec(ctx, query, key)
	return err
}

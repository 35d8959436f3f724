// Package postgres implements store.Store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/vesting/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

const createTable = `
CREATE TABLE IF NOT EXISTS vesting_kv (
    key   TEXT PRIMARY KEY,
    seq   BIGSERIAL NOT NULL,
    value BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vesting_kv_seq ON vesting_kv (seq);
`

// Store keeps every record in one table; seq is assigned on first insert
// and survives upserts, which gives Scan its insertion order.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The Store closes it on Close.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open parses dsn and connects a pool with at most maxConns connections.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("vesting/postgres: parse dsn: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("vesting/postgres: connect: %w", err)
	}
	return New(pool), nil
}

// Migrate creates the record table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("vesting/postgres: migration failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM vesting_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vesting/postgres: get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Scan(ctx context.Context, prefix string, offset, limit int) ([]store.Entry, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
SELECT key, value FROM vesting_kv
WHERE left(key, length($1)) = $1
ORDER BY seq
OFFSET $2 LIMIT $3`, prefix, offset, lim)
	if err != nil {
		return nil, fmt.Errorf("vesting/postgres: scan %s: %w", prefix, err)
	}
	defer rows.Close()

	result := []store.Entry{}
	for rows.Next() {
		var e store.Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("vesting/postgres: scan %s: %w", prefix, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) Commit(ctx context.Context, b *store.Batch) (err error) {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vesting/postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, op := range b.Ops() {
		if op.Delete {
			_, err = tx.Exec(ctx, `DELETE FROM vesting_kv WHERE key = $1`, op.Key)
		} else {
			_, err = tx.Exec(ctx, `
INSERT INTO vesting_kv (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, op.Key, op.Value)
		}
		if err != nil {
			return fmt.Errorf("vesting/postgres: apply %s: %w", op.Key, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("vesting/postgres: commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

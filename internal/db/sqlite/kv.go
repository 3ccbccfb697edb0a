package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

// Get retrieves a value by key. Expired entries read as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if expiresAt > 0 && time.Now().UnixNano() >= expiresAt {
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}

// Set stores a value without expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(ctx, key, value, time.Now().Add(ttl).UnixNano())
}

func (s *Store) put(ctx context.Context, key string, value []byte, expiresAt int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

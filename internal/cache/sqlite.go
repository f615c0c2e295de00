// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

const (
	// DefaultDBName is the database file created inside the cache directory.
	DefaultDBName = "castor-cache.db"

	sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);`
)

// ErrEmptyDSN is returned when NewSQLite is called without a DSN.
var ErrEmptyDSN = errors.New("cache: sqlite dsn is required")

type (
	// SQLiteConfig configures the SQLite-backed store.
	SQLiteConfig struct {
		// DSN is a file path or any DSN accepted by modernc.org/sqlite.
		DSN string
	}

	// SQLite persists entries in a single table keyed by cache key.
	SQLite struct {
		db    *sql.DB
		group singleflight.Group
		opts  options
	}
)

var _ Store = (*SQLite)(nil)

// DefaultSQLitePath returns the database path under the user cache directory.
func DefaultSQLitePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "castor", DefaultDBName), nil
}

// NewSQLite opens (or creates) the database at cfg.DSN.
func NewSQLite(cfg SQLiteConfig, opts ...Option) (*SQLite, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrEmptyDSN
	}
	if !strings.HasPrefix(cfg.DSN, "file:") && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("cache: create directory for %s: %w", cfg.DSN, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("cache: sqlite open: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: sqlite set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: sqlite create schema: %w", err)
	}

	return &SQLite{db: db, opts: newOptions(opts)}, nil
}

// GetOrCompute implements Store.
func (s *SQLite) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if v, ok, err := s.get(ctx, key); err != nil || ok {
		return v, err
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok, err := s.get(ctx, key); err != nil || ok {
			return v, err
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		expires := s.opts.now().Add(ttl).UnixNano()
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
			key, v, expires); err != nil {
			return nil, fmt.Errorf("cache: sqlite store %s: %w", key, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]byte)), nil
}

func (s *SQLite) get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value   []byte
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: sqlite load %s: %w", key, err)
	}
	if s.opts.now().UnixNano() >= expires {
		return nil, false, nil
	}
	return value, true, nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: sqlite delete %s: %w", key, err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache: sqlite clear: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}

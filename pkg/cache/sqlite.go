package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mhoffm/paperdash/pkg/observability"
)

// SQLiteCache stores cache entries in a single SQLite table. Unlike
// FileCache it keeps everything in one file, which makes it easy to ship
// the whole cache state to another host or wipe it with a single delete.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) a SQLite-backed cache at path.
// The parent directory is created if needed.
func NewSQLiteCache(path string) (Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache table: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Get retrieves a value, treating expired rows as misses and deleting them.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var expiresAt int64
	row := c.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM cache WHERE key = ?`, Hash([]byte(key)))
	if err := row.Scan(&data, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
			return nil, false, nil
		}
		return nil, false, err
	}

	if expiresAt != 0 && time.Now().Unix() > expiresAt {
		_ = c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, keyType(key))
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType(key))
	return data, true, nil
}

// Set stores a value, replacing any existing entry for the key.
func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (key, data, expires_at) VALUES (?, ?, ?)`,
		Hash([]byte(key)), data, expiresAt)
	if err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// Delete removes a value.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, Hash([]byte(key)))
	return err
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Ensure SQLiteCache implements Cache.
var _ Cache = (*SQLiteCache)(nil)

package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a durable cache backed by a single sqlite table. It survives
// restarts and is shared across verification runs. database/sql serializes
// access, so it is safe for concurrent retrieval workers.
type SQLite struct {
	db         *sql.DB
	defaultTTL time.Duration
}

// NewSQLite opens (or creates) the cache database at path.
func NewSQLite(path string, defaultTTL time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLite{db: db, defaultTTL: defaultTTL}, nil
}

// Get retrieves a value, deleting the row if it has expired.
func (s *SQLite) Get(key string) ([]byte, bool) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRow(
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		return nil, false
	}

	if time.Now().Unix() >= expiresAt {
		_, _ = s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false
	}

	return value, true
}

// Set stores a value; ttl 0 uses the default.
func (s *SQLite) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	_, err := s.db.Exec(
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Delete removes a value.
func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// Clear removes all entries.
func (s *SQLite) Clear() error {
	_, err := s.db.Exec(`DELETE FROM cache_entries`)
	return err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

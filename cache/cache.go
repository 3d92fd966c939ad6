// Package cache is a content-addressed store of compiled program images,
// keyed by source bytes and machine fingerprint, backed by SQLite.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores compiled program images in a SQLite database.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path, creating
// parent directories as needed.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		key TEXT PRIMARY KEY,
		image BLOB NOT NULL,
		created_at TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached image for key, reporting whether it was present.
func (c *Cache) Get(key [32]byte) ([]byte, bool, error) {
	var image []byte
	err := c.db.QueryRow("SELECT image FROM programs WHERE key = ?", keyString(key)).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}
	return image, true, nil
}

// Put stores an image under key, replacing any previous entry.
func (c *Cache) Put(key [32]byte, image []byte) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO programs (key, image, created_at) VALUES (?, ?, ?)",
		keyString(key), image, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Key derives the cache key for a compile: SHA-256 over the machine
// fingerprint followed by the source bytes. A change to either the source
// or the registered operation set misses the cache.
func Key(source []byte, fingerprint [32]byte) [32]byte {
	h := sha256.New()
	h.Write(fingerprint[:])
	h.Write(source)

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

func keyString(key [32]byte) string {
	return fmt.Sprintf("%x", key)
}

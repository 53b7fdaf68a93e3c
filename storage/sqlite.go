// Package storage persists localStorage items in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrisuehlinger/vibedom/dom"
)

// QuotaBytes bounds the total size of keys and values in one store.
const QuotaBytes = 5 << 20

// ErrQuotaExceeded is returned by SetItem when the write would pass QuotaBytes.
var ErrQuotaExceeded = &dom.DOMError{Name: "QuotaExceededError", Message: "the quota has been exceeded"}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	key   TEXT NOT NULL UNIQUE,
	value TEXT NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// SQLiteStore is a dom.Storage kept in one SQLite file. Keys are ordered by
// first insertion, so Key(i) is stable while items are only updated.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ dom.Storage = (*SQLiteStore)(nil)

// Open opens or creates the store at path. The parent directory is created
// when missing.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage schema: %w", err)
	}
	logger = logger.Named("storage").With(zap.String("path", path))
	logger.Debug("opened")
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Opener adapts Open to dom.StorageOpener.
func Opener(logger *zap.Logger) dom.StorageOpener {
	return func(path string) (dom.Storage, error) {
		s, err := Open(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// GetItem returns the value stored under key.
func (s *SQLiteStore) GetItem(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM items WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return v, true, nil
}

// SetItem stores value under key, keeping the key's original position.
func (s *SQLiteStore) SetItem(key, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	defer tx.Rollback()

	var used, current int64
	err = tx.QueryRow(`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM items`).Scan(&used)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	err = tx.QueryRow(`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM items WHERE key = ?`, key).Scan(&current)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	if used-current+int64(len([]rune(key))+len([]rune(value))) > QuotaBytes {
		return ErrQuotaExceeded
	}
	_, err = tx.Exec(`INSERT INTO items (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Missing keys are ignored.
func (s *SQLiteStore) RemoveItem(key string) error {
	if _, err := s.db.Exec(`DELETE FROM items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %q: %w", key, err)
	}
	return nil
}

// Clear deletes every item.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// Len returns the number of items.
func (s *SQLiteStore) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Key returns the i-th key in insertion order.
func (s *SQLiteStore) Key(i int) (string, bool, error) {
	if i < 0 {
		return "", false, nil
	}
	var k string
	err := s.db.QueryRow(`SELECT key FROM items ORDER BY seq LIMIT 1 OFFSET ?`, i).Scan(&k)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("key %d: %w", i, err)
	}
	return k, true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.logger.Debug("closed")
	return s.db.Close()
}

package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache is a persistent device-local cache backed by SQLite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database.
// If dbPath is empty, defaults to "./data/eira.db"
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dbPath == "" {
		dbPath = "./data/eira.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	c := &SQLiteCache{db: db}

	if err := c.initSchema(); err != nil {
		return nil, err
	}

	return c, nil
}

// initSchema creates the kv table if it doesn't exist.
func (c *SQLiteCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the value for key, or ErrNotFound.
func (c *SQLiteCache) Get(key string) (string, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (c *SQLiteCache) Set(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// Remove deletes the value for key.
func (c *SQLiteCache) Remove(key string) error {
	_, err := c.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

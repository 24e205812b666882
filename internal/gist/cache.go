package gist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores fetched gists between builds.
type Cache interface {
	Get(ctx context.Context, id string) (*Gist, bool, error)
	Put(ctx context.Context, g *Gist) error
}

// SQLiteCache is a Cache backed by a SQLite file. Entries older than the TTL
// are treated as misses.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

// OpenCache opens (creating if needed) the cache database at path.
// Use ":memory:" for a throwaway cache.
func OpenCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &SQLiteCache{db: db, ttl: ttl, now: time.Now}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) initialize() error {
	_, err := c.db.Exec(`
	CREATE TABLE IF NOT EXISTS gists (
		id TEXT PRIMARY KEY,
		fetched_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`)
	return err
}

// Get returns a fresh cached gist.
func (c *SQLiteCache) Get(ctx context.Context, id string) (*Gist, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var fetched int64
	var payload []byte
	err := c.db.QueryRowContext(ctx, "SELECT fetched_at, payload FROM gists WHERE id = ?", id).Scan(&fetched, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query gist cache: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(fetched, 0)) > c.ttl {
		return nil, false, nil
	}
	var g Gist
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, false, nil
	}
	return &g, true, nil
}

// Put stores or refreshes a gist.
func (c *SQLiteCache) Put(ctx context.Context, g *Gist) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal gist: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT INTO gists (id, fetched_at, payload) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload",
		g.ID, c.now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert gist: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM gists WHERE fetched_at < ?", c.now().Add(-c.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("prune gist cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

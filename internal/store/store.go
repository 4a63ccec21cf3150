// Package store provides a SQLite-backed cache of extracted signatures, so
// an unchanged file does not need to be parsed again.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

// schemaVersion is bumped whenever the extractor changes what it emits, so
// entries written by an older build are never reused.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS signatures (
	path     TEXT PRIMARY KEY,
	sum      INTEGER NOT NULL,
	version  INTEGER NOT NULL,
	tail     BLOB NOT NULL,
	records  TEXT NOT NULL,
	created  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signatures_created ON signatures(created);
`

// Offset locates a span inside a file's buffer.
type Offset struct {
	Off int `json:"o"`
	Len int `json:"n"`
}

// Record is one cached candidate, expressed as offsets into the buffer.
type Record struct {
	Line       int      `json:"line"`
	Definition Offset   `json:"def"`
	Return     Offset   `json:"ret"`
	Params     []Offset `json:"params,omitempty"`
}

// Entry is everything needed to rebuild a file's candidates: the bytes the
// extractor appended after the source, and the candidate offsets.
type Entry struct {
	Tail    []byte
	Records []Record
}

// Sum is the content checksum entries are keyed by.
func Sum(src []byte) uint64 {
	return xxhash.Sum64(src)
}

// Cache is a SQLite-backed signature cache.
type Cache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
}

// Open creates or opens a cache database at the given path.
// Entries older than ttl are purged on open.
func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// SQLite pragmas for performance.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	c := &Cache{db: db, ttl: ttl}
	c.purgeStale()
	return c, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the entry stored for path if it was written for content with
// the same checksum. Safe to call on a nil receiver (returns miss).
func (c *Cache) Get(path string, sum uint64) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		tail    []byte
		records string
	)
	err := c.db.QueryRow(
		"SELECT tail, records FROM signatures WHERE path = ? AND sum = ? AND version = ?",
		path, int64(sum), schemaVersion,
	).Scan(&tail, &records)
	if err != nil {
		return Entry{}, false
	}

	e := Entry{Tail: tail}
	if err := json.Unmarshal([]byte(records), &e.Records); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("corrupt cache entry")
		return Entry{}, false
	}
	return e, true
}

// Put stores the entry for path, replacing any older one. No-op on nil receiver.
func (c *Cache) Put(path string, sum uint64, e Entry) {
	if c == nil {
		return
	}
	records, err := json.Marshal(e.Records)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to encode cache entry")
		return
	}
	tail := e.Tail
	if tail == nil {
		tail = []byte{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO signatures (path, sum, version, tail, records, created) VALUES (?, ?, ?, ?, ?, ?)",
		path, int64(sum), schemaVersion, tail, string(records), time.Now().Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to cache signatures")
	}
}

// purgeStale removes entries older than the TTL.
func (c *Cache) purgeStale() {
	if c.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec("DELETE FROM signatures WHERE created <= ?", cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("failed to purge stale cache")
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug().Int64("deleted", n).Msg("purged stale cache entries")
	}
}

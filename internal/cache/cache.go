// Package cache stores decoded texture levels in SQLite so repeated decodes
// of the same PVR file skip software decompression. Entries are keyed by a
// BLAKE2b hash of the source file and stored zstd compressed.
package cache

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS levels (
	key     TEXT    NOT NULL,
	face    INTEGER NOT NULL,
	level   INTEGER NOT NULL,
	width   INTEGER NOT NULL,
	height  INTEGER NOT NULL,
	data    BLOB    NOT NULL,
	PRIMARY KEY (key, face, level)
);`

// Key identifies a source file by content.
type Key string

// KeyOf hashes data. It panics on empty input.
func KeyOf(data []byte) Key {
	if len(data) == 0 {
		panic("cache: key of empty data")
	}
	sum := blake2b.Sum256(data)
	return Key(hex.EncodeToString(sum[:]))
}

// Level is one decoded RGBA8888 image.
type Level struct {
	Face, Level   int
	Width, Height int
	Pix           []byte
}

// Cache is a SQLite-backed level store. It is safe for concurrent use.
type Cache struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the cache database at path. ":memory:" gives a
// private in-memory cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder init: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder init: %w", err)
	}

	return &Cache{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database and codecs.
func (c *Cache) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}

// Put stores levels under key, replacing any previous entry for the same
// face and level.
func (c *Cache) Put(key Key, levels []Level) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO levels (key, face, level, width, height, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range levels {
		packed := c.enc.EncodeAll(l.Pix, nil)
		if _, err := stmt.Exec(string(key), l.Face, l.Level, l.Width, l.Height, packed); err != nil {
			return fmt.Errorf("insert level %d/%d: %w", l.Face, l.Level, err)
		}
	}
	return tx.Commit()
}

// Get returns the level stored under key, or ok false if there is none.
func (c *Cache) Get(key Key, face, level int) (Level, bool, error) {
	l := Level{Face: face, Level: level}
	var packed []byte
	err := c.db.QueryRow(`SELECT width, height, data FROM levels WHERE key = ? AND face = ? AND level = ?`,
		string(key), face, level).Scan(&l.Width, &l.Height, &packed)
	if errors.Is(err, sql.ErrNoRows) {
		return l, false, nil
	}
	if err != nil {
		return l, false, fmt.Errorf("query level: %w", err)
	}

	l.Pix, err = c.dec.DecodeAll(packed, nil)
	if err != nil {
		// A corrupt row is a miss; the caller decodes again and overwrites it.
		log.Printf("Cache: dropping corrupt entry %s %d/%d: %v", key, face, level, err)
		return l, false, nil
	}
	if len(l.Pix) != l.Width*l.Height*4 {
		log.Printf("Cache: dropping entry %s %d/%d: %d bytes for %dx%d", key, face, level, len(l.Pix), l.Width, l.Height)
		return l, false, nil
	}
	return l, true, nil
}

// Delete removes every level stored under key.
func (c *Cache) Delete(key Key) error {
	if _, err := c.db.Exec(`DELETE FROM levels WHERE key = ?`, string(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Stats reports the number of distinct keys and stored levels.
func (c *Cache) Stats() (keys, levels int, err error) {
	err = c.db.QueryRow(`SELECT COUNT(DISTINCT key), COUNT(*) FROM levels`).Scan(&keys, &levels)
	if err != nil {
		return 0, 0, fmt.Errorf("cache stats: %w", err)
	}
	return keys, levels, nil
}

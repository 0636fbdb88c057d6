package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`
	sqliteGet    = `SELECT value FROM kv WHERE key = ?`
	sqliteUpsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLite keeps every key in one table and commits SetMany in a single
// transaction.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, &Error{Backend: "sqlite", Op: "open", Err: fmt.Errorf("creating database directory: %w", err)}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &Error{Backend: "sqlite", Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &Error{Backend: "sqlite", Op: "open", Err: fmt.Errorf("ping: %w", err)}
	}
	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and ensures the kv table exists.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, &Error{Backend: "sqlite", Op: "migrate", Err: err}
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Get reads one value.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey("sqlite", "get", key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, sqliteGet, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Backend: "sqlite", Op: "get", Key: key, Err: err}
	}
	return value, nil
}

// SetMany upserts all entries; either all of them land or none do.
func (s *SQLite) SetMany(ctx context.Context, entries map[string][]byte) (err error) {
	keys := sortedKeys(entries)
	for _, key := range keys {
		if err := checkKey("sqlite", "set", key); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Backend: "sqlite", Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stamp := s.now().UnixMilli()
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, key, entries[key], stamp); err != nil {
			return &Error{Backend: "sqlite", Op: "set", Key: key, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Backend: "sqlite", Op: "commit", Err: err}
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

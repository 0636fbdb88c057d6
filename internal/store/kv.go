// Package store persists the ledger's collections in a key-value store.
// Every collection is one key holding a JSON document, always read and
// written whole.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Collection keys.
const (
	KeyAccounts    = "accounts"
	KeyCandidates  = "transactions"
	KeyHistory     = "recentTransactions"
	KeySuggestions = "suggestions"
)

// KV is a durable mapping from string keys to byte values.
type KV interface {
	// Get returns the value stored under key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetMany writes all entries. Backends that can do so write them atomically.
	SetMany(ctx context.Context, entries map[string][]byte) error
	Close() error
}

// Error reports a failed persistence operation.
type Error struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Backend, e.Err)
	}
	return fmt.Sprintf("storage %s %q (%s): %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageFailure reports whether err came from the persistence layer.
func IsStorageFailure(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkKey(backend, op, key string) error {
	if !keyPattern.MatchString(key) {
		return &Error{Backend: backend, Op: op, Key: key, Err: errors.New("invalid key")}
	}
	return nil
}

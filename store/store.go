// Package store defines the durable keyed storage the vault persists into.
//
// Keys are slash-separated ("schedule/alice"); the segment before the first
// slash names a collection. Backends must keep entries of a collection in
// insertion order: overwriting a key keeps its position, deleting and
// re-inserting moves it to the end.
package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("store: not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
	// ErrConflict is returned when a concurrent writer invalidated a commit.
	ErrConflict = errors.New("store: commit conflict")
)

// Entry is a key with its stored value.
type Entry struct {
	Key   string
	Value []byte
}

// Reader is the read side of a Store.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Scan returns entries whose key starts with prefix, in insertion order,
	// skipping offset entries and returning at most limit (0 means no limit).
	Scan(ctx context.Context, prefix string, offset, limit int) ([]Entry, error)
}

// Store is the unified storage interface. Commit applies every operation of
// the batch or none of them.
type Store interface {
	Reader
	Commit(ctx context.Context, b *Batch) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Collection returns the collection segment of key.
func Collection(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}

// Page applies offset and limit to n items and returns the slice bounds.
func Page(n, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end = n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

package store

import (
	"context"
)

// Tx buffers the writes of one vault call on top of a Store. Reads observe
// the buffered writes; nothing reaches the Store until Commit. Dropping a Tx
// without committing discards its writes.
type Tx struct {
	base    Store
	pending map[string]Op
	batch   Batch
}

// Begin starts a new overlay on base.
func Begin(base Store) *Tx {
	return &Tx{base: base, pending: make(map[string]Op)}
}

// Get returns the buffered value for key, falling back to the Store.
func (t *Tx) Get(ctx context.Context, key string) ([]byte, error) {
	if op, ok := t.pending[key]; ok {
		if op.Delete {
			return nil, ErrNotFound
		}
		return op.Value, nil
	}
	return t.base.Get(ctx, key)
}

// Scan reads committed state only. Calls that scan do so before buffering
// writes to the scanned collection.
func (t *Tx) Scan(ctx context.Context, prefix string, offset, limit int) ([]Entry, error) {
	return t.base.Scan(ctx, prefix, offset, limit)
}

func (t *Tx) Put(key string, value []byte) {
	t.pending[key] = Op{Key: key, Value: value}
	t.batch.Put(key, value)
}

func (t *Tx) Delete(key string) {
	t.pending[key] = Op{Key: key, Delete: true}
	t.batch.Delete(key)
}

// Dirty reports whether any write is buffered.
func (t *Tx) Dirty() bool { return t.batch.Len() > 0 }

// Commit applies the buffered writes atomically.
func (t *Tx) Commit(ctx context.Context) error {
	if !t.Dirty() {
		return nil
	}
	return t.base.Commit(ctx, &t.batch)
}

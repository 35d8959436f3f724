// Package memory provides an in-process Store for tests and single-node
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/xraph/vesting/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type entry struct {
	value []byte
	seq   uint64
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
	closed  bool
}

func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(e.value), nil
}

func (s *Store) Scan(_ context.Context, prefix string, offset, limit int) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	type keyed struct {
		key string
		*entry
	}
	var matched []keyed
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, keyed{k, e})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	start, end := store.Page(len(matched), offset, limit)
	result := make([]store.Entry, 0, end-start)
	for _, m := range matched[start:end] {
		result = append(result, store.Entry{Key: m.key, Value: clone(m.value)})
	}
	return result, nil
}

func (s *Store) Commit(_ context.Context, b *store.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	for _, op := range b.Ops() {
		if op.Delete {
			delete(s.entries, op.Key)
			continue
		}
		if e, ok := s.entries[op.Key]; ok {
			e.value = clone(op.Value)
			continue
		}
		s.nextSeq++
		s.entries[op.Key] = &entry{value: clone(op.Value), seq: s.nextSeq}
	}
	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

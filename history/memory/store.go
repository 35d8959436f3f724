// Package memory is an in-process history store for tests and development.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/id"
)

// compile-time interface check
var _ history.Store = (*Store)(nil)

// Store keeps events in append order.
type Store struct {
	mu     sync.RWMutex
	events []*history.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, e *history.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.events = append(s.events, &c)
	return nil
}

func (s *Store) Get(_ context.Context, eventID id.EventID) (*history.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID.String() == eventID.String() {
			c := *e
			return &c, nil
		}
	}
	return nil, history.ErrNotFound
}

// List walks events newest first.
func (s *Store) List(_ context.Context, opts history.ListOpts) ([]*history.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*history.Event
	skipped := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !opts.Matches(e) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		c := *e
		result = append(result, &c)
		if opts.Limit > 0 && len(result) == opts.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

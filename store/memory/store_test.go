package memory_test

import (
	"context"
	"testing"

	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestClosedStoreRejectsCalls(t *testing.T) {
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Get(context.Background(), "k"); err != store.ErrClosed {
		t.Errorf("Get after close = %v, want ErrClosed", err)
	}
	if err := s.Commit(context.Background(), &store.Batch{}); err != store.ErrClosed {
		t.Errorf("Commit after close = %v, want ErrClosed", err)
	}
}

// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting/store"
)

// Run exercises a fresh, empty Store produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "schedule/nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("CommitAndGet", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var b store.Batch
		b.Put("meta/pool", []byte("p1"))
		b.Put("schedule/alice", []byte("a1"))
		require.NoError(t, s.Commit(ctx, &b))

		got, err := s.Get(ctx, "schedule/alice")
		require.NoError(t, err)
		assert.Equal(t, []byte("a1"), got)
	})

	t.Run("ScanInsertionOrder", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, k := range []string{"charlie", "alice", "bob"} {
			var b store.Batch
			b.Put("schedule/"+k, []byte(k))
			require.NoError(t, s.Commit(ctx, &b))
		}
		var other store.Batch
		other.Put("claim/x", []byte("x"))
		require.NoError(t, s.Commit(ctx, &other))

		// Overwrite keeps position.
		var upd store.Batch
		upd.Put("schedule/charlie", []byte("charlie2"))
		require.NoError(t, s.Commit(ctx, &upd))

		entries, err := s.Scan(ctx, "schedule/", 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "schedule/charlie", entries[0].Key)
		assert.Equal(t, []byte("charlie2"), entries[0].Value)
		assert.Equal(t, "schedule/alice", entries[1].Key)
		assert.Equal(t, "schedule/bob", entries[2].Key)

		page, err := s.Scan(ctx, "schedule/", 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "schedule/alice", page[0].Key)

		past, err := s.Scan(ctx, "schedule/", 10, 5)
		require.NoError(t, err)
		assert.Empty(t, past)
	})

	t.Run("DeleteAndReinsertMovesToEnd", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var b store.Batch
		b.Put("schedule/a", []byte("1"))
		b.Put("schedule/b", []byte("2"))
		require.NoError(t, s.Commit(ctx, &b))

		var del store.Batch
		del.Delete("schedule/a")
		require.NoError(t, s.Commit(ctx, &del))
		_, err := s.Get(ctx, "schedule/a")
		assert.ErrorIs(t, err, store.ErrNotFound)

		var again store.Batch
		again.Put("schedule/a", []byte("3"))
		require.NoError(t, s.Commit(ctx, &again))

		entries, err := s.Scan(ctx, "schedule/", 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "schedule/b", entries[0].Key)
		assert.Equal(t, "schedule/a", entries[1].Key)
	})

	t.Run("TxOverlay", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var seed store.Batch
		seed.Put("schedule/a", []byte("old"))
		require.NoError(t, s.Commit(ctx, &seed))

		tx := store.Begin(s)
		tx.Put("schedule/a", []byte("new"))
		tx.Delete("schedule/b")

		got, err := tx.Get(ctx, "schedule/a")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)

		committed, err := s.Get(ctx, "schedule/a")
		require.NoError(t, err)
		assert.Equal(t, []byte("old"), committed, "overlay leaked before commit")

		require.NoError(t, tx.Commit(ctx))
		committed, err = s.Get(ctx, "schedule/a")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), committed)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}

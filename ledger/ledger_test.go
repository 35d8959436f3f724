package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/ledger"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/record"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/types"
)

func commit(t *testing.T, s store.Store, fn func(l *ledger.Ledger)) {
	t.Helper()
	tx := store.Begin(s)
	fn(ledger.New(tx))
	require.NoError(t, tx.Commit(context.Background()))
}

func sched(name string) *schedule.Schedule {
	return &schedule.Schedule{Beneficiary: name, PeriodLength: 10, PeriodCount: 2, AmountPerPeriod: types.NewAmount(5)}
}

func TestScheduleCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	commit(t, s, func(l *ledger.Ledger) {
		require.NoError(t, l.Upsert(sched("carol")))
		require.NoError(t, l.Upsert(sched("alice")))
		require.NoError(t, l.Upsert(sched("bob")))
	})

	l := ledger.New(store.Begin(s))
	got, ok, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), got.PeriodCount)

	_, ok, err = l.Get(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := l.List(ctx, schedule.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"carol", "alice", "bob"}, []string{all[0].Beneficiary, all[1].Beneficiary, all[2].Beneficiary})

	page, err := l.List(ctx, schedule.ListOpts{Offset: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Beneficiary)

	commit(t, s, func(l *ledger.Ledger) {
		removed, err := l.Remove(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, removed)
		missing, err := l.Remove(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	all, err = ledger.New(store.Begin(s)).List(ctx, schedule.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUncommittedWritesAreDiscarded(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tx := store.Begin(s)
	l := ledger.New(tx)
	require.NoError(t, l.Upsert(sched("alice")))
	_, ok, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "overlay read should see its own write")

	_, ok, err = ledger.New(store.Begin(s)).Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolAndClaims(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := ledger.New(store.Begin(s)).Pool(ctx)
	assert.ErrorIs(t, err, ledger.ErrPoolMissing)

	c := claim.New(claim.KindClaim, "alice", types.NewAmount(10), 2, 100)
	commit(t, s, func(l *ledger.Ledger) {
		require.NoError(t, l.SavePool(&pool.Pool{Administrator: "admin", Mode: pool.ModePerAccount}))
		require.NoError(t, l.PutClaim(c))
	})

	l := ledger.New(store.Begin(s))
	p, err := l.Pool(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Administrator)

	got, ok, err := l.Claim(ctx, c.ID.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Beneficiary)

	claims, err := l.Claims(ctx, claim.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, claims, 1)

	commit(t, s, func(l *ledger.Ledger) { l.DeleteClaim(c.ID.String()) })
	_, ok, err = ledger.New(store.Begin(s)).Claim(ctx, c.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpgradeAllRewritesLegacySchedules(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	payload, err := msgpack.Marshal(map[string]any{
		"account_id":        "legacy",
		"start_timestamp":   0,
		"release_interval":  10,
		"release_rounds":    4,
		"last_claim_round":  1,
		"release_per_round": "7",
	})
	require.NoError(t, err)
	legacy, err := msgpack.Marshal(map[string]any{
		"kind":    "schedule",
		"version": 1,
		"payload": msgpack.RawMessage(payload),
	})
	require.NoError(t, err)

	var b store.Batch
	b.Put(record.ScheduleKey("legacy"), legacy)
	require.NoError(t, s.Commit(ctx, &b))
	commit(t, s, func(l *ledger.Ledger) { require.NoError(t, l.Upsert(sched("modern"))) })

	tx := store.Begin(s)
	n, err := ledger.New(tx).UpgradeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, tx.Commit(ctx))

	raw, err := s.Get(ctx, record.ScheduleKey("legacy"))
	require.NoError(t, err)
	current, err := record.Current(raw)
	require.NoError(t, err)
	assert.True(t, current)

	got, ok, err := ledger.New(store.Begin(s)).Get(ctx, "legacy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), got.PeriodsClaimed)
	assert.True(t, got.ClaimedAmount.Equal(types.NewAmount(7)))
}

package vesting_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/transfer"
	"github.com/xraph/vesting/types"
)

const (
	admin   = "admin.example"
	tokenID = "token.example"
	self    = "vault.example"
	alice   = "alice.example"
	bob     = "bob.example"
)

// fakeTransfers records requests and leaves outcomes to the test.
type fakeTransfers struct {
	mu   sync.Mutex
	reqs []transfer.Request
	fail error
}

func (f *fakeTransfers) RequestTransfer(_ context.Context, req transfer.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.reqs = append(f.reqs, req)
	return nil
}

func (f *fakeTransfers) requests() []transfer.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transfer.Request, len(f.reqs))
	copy(out, f.reqs)
	return out
}

// recorder is a plugin capturing the events it sees.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnScheduleSet(_ context.Context, previous, _ *schedule.Schedule) error {
	if previous != nil {
		r.add("schedule_replaced")
	} else {
		r.add("schedule_created")
	}
	return nil
}

func (r *recorder) OnDepositCredited(context.Context, string, types.Amount) error {
	r.add("deposit")
	return nil
}

func (r *recorder) OnClaimRequested(context.Context, *claim.Claim) error {
	r.add("claim_requested")
	return nil
}

func (r *recorder) OnClaimSettled(context.Context, *claim.Claim) error {
	r.add("claim_settled")
	return nil
}

func (r *recorder) OnClaimRolledBack(context.Context, *claim.Claim) error {
	r.add("claim_rolled_back")
	return nil
}

func (r *recorder) OnCallRejected(_ context.Context, op, _ string, _ error) error {
	r.add("rejected:" + op)
	return nil
}

func env(caller string, now uint64) vesting.Env {
	return vesting.Env{Caller: caller, Now: types.Timestamp(now)}
}

func amt(v uint64) types.Amount { return types.NewAmount(v) }

// maxAmount is 2^128 - 1, the largest storable amount.
var maxAmount = types.MustParseAmount("340282366920938463463374607431768211455")

func newVault(t *testing.T, opts ...vesting.Option) (*vesting.Vault, *fakeTransfers) {
	t.Helper()
	ft := &fakeTransfers{}
	v := vesting.New(memory.New(), ft, append([]vesting.Option{vesting.WithSelf(self)}, opts...)...)
	require.NoError(t, v.Start(context.Background()))
	t.Cleanup(func() { _ = v.Stop() })
	return v, ft
}

// aliceParams is a four period schedule of 100 per period starting at 100.
func aliceParams() schedule.Params {
	return schedule.Params{
		Beneficiary:     alice,
		StartTime:       100,
		PeriodLength:    100,
		PeriodCount:     4,
		AmountPerPeriod: amt(100),
	}
}

// setupPerAccount initializes a per-account vault with alice fully funded.
func setupPerAccount(t *testing.T, opts ...vesting.Option) (*vesting.Vault, *fakeTransfers) {
	t.Helper()
	ctx := context.Background()
	v, ft := newVault(t, opts...)

	require.NoError(t, v.Init(ctx, env(admin, 0), vesting.InitParams{
		Administrator: admin,
		Token:         tokenID,
		Mode:          pool.ModePerAccount,
		Schedules:     []schedule.Params{aliceParams()},
	}))
	require.NoError(t, v.DepositNotification(ctx, env(tokenID, 0), admin, amt(400), alice))
	return v, ft
}

// setupPoolWide initializes a pool-wide vault funded with 10000 released in
// ten rounds of 100 seconds, and gives bob 500 per 100 seconds for ten periods.
func setupPoolWide(t *testing.T, opts ...vesting.Option) (*vesting.Vault, *fakeTransfers) {
	t.Helper()
	ctx := context.Background()
	v, ft := newVault(t, opts...)

	require.NoError(t, v.Init(ctx, env(admin, 0), vesting.InitParams{
		Administrator:  admin,
		Token:          tokenID,
		Mode:           pool.ModePoolWide,
		InitialFunding: amt(10000),
		Release:        &pool.Release{StartTime: 0, Interval: 100, Rounds: 10},
		Schedules: []schedule.Params{{
			Beneficiary:     bob,
			StartTime:       0,
			PeriodLength:    100,
			PeriodCount:     10,
			AmountPerPeriod: amt(500),
		}},
	}))
	return v, ft
}

func outcome(req transfer.Request, success bool) transfer.Outcome {
	out := transfer.Outcome{Continuation: req.Continuation, Success: success}
	if !success {
		out.Reason = "receiver rejected"
	}
	return out
}

func requireAmount(t *testing.T, want uint64, got types.Amount, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, amt(want).Equal(got), "want %d, got %s %v", want, got, msgAndArgs)
}

package observability_test

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/observability"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

type fakeFactory struct {
	mu     sync.Mutex
	counts map[string]float64
	obs    map[string][]float64
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{counts: map[string]float64{}, obs: map[string][]float64{}}
}

type fakeCounter struct {
	f    *fakeFactory
	name string
}

func (c fakeCounter) Inc() { c.Add(1) }

func (c fakeCounter) Add(v float64) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.counts[c.name] += v
}

type fakeHistogram struct {
	f    *fakeFactory
	name string
}

func (h fakeHistogram) Observe(v float64) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	h.f.obs[h.name] = append(h.f.obs[h.name], v)
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	return fakeCounter{f: f, name: name}
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	return fakeHistogram{f: f, name: name}
}

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)

	s := &schedule.Schedule{Beneficiary: "alice"}
	_ = m.OnScheduleSet(ctx, nil, s)
	_ = m.OnScheduleSet(ctx, s, s)
	_ = m.OnDepositCredited(ctx, "alice", types.NewAmount(400))

	c := claim.New(claim.KindClaim, "alice", types.NewAmount(200), 2, 10)
	_ = m.OnClaimRequested(ctx, c)
	_ = m.OnClaimRolledBack(ctx, c)

	p := claim.New(claim.KindPayment, "bob", types.NewAmount(50), 0, 10)
	_ = m.OnClaimRequested(ctx, p)
	_ = m.OnClaimSettled(ctx, p)
	_ = m.OnCallRejected(ctx, "claim", "mallory", nil)

	tests := []struct {
		name string
		want float64
	}{
		{"vesting.schedule.created", 1},
		{"vesting.schedule.replaced", 1},
		{"vesting.deposit.credited", 1},
		{"vesting.claim.requested", 1},
		{"vesting.claim.rolled_back", 1},
		{"vesting.claim.settled", 0},
		{"vesting.payment.requested", 1},
		{"vesting.payment.settled", 1},
		{"vesting.call.rejected", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.counts[tt.name]; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := f.obs["vesting.claim.amount"]; len(got) != 1 || got[0] != 200 {
		t.Errorf("expected claim amount 200, got %v", got)
	}
	if got := f.obs["vesting.claim.periods"]; len(got) != 1 || got[0] != 2 {
		t.Errorf("expected claim periods 2, got %v", got)
	}
	if got := f.obs["vesting.payment.amount"]; len(got) != 1 || got[0] != 50 {
		t.Errorf("expected payment amount 50, got %v", got)
	}
}

func TestOTelFactory(t *testing.T) {
	f := observability.NewOTelFactory(noop.NewMeterProvider().Meter("test"))

	c1 := f.Counter("vesting.claim.requested")
	c2 := f.Counter("vesting.claim.requested")
	if c1 != c2 {
		t.Error("expected the same counter for the same name")
	}
	c1.Inc()
	c1.Add(2)
	f.Histogram("vesting.claim.amount").Observe(10)

	m := observability.NewMetricsExtension(observability.NewOTelFactoryFromProvider(nil))
	if err := m.OnDepositCredited(context.Background(), "alice", types.MustParseAmount("340282366920938463463374607431768211455")); err != nil {
		t.Fatal(err)
	}
}

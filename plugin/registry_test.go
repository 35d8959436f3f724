package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

type counting struct {
	name string
	mu   sync.Mutex
	hits map[string]int
	err  error
}

func newCounting(name string) *counting {
	return &counting{name: name, hits: map[string]int{}}
}

func (c *counting) Name() string { return c.name }

func (c *counting) hit(hook string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[hook]++
	return c.err
}

func (c *counting) count(hook string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[hook]
}

func (c *counting) OnScheduleSet(context.Context, *schedule.Schedule, *schedule.Schedule) error {
	return c.hit("OnScheduleSet")
}

func (c *counting) OnClaimSettled(context.Context, *claim.Claim) error {
	return c.hit("OnClaimSettled")
}

// slow only implements the deposit hook and never finishes in time.
type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnDepositCredited(ctx context.Context, _ string, _ types.Amount) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func quietRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	r := quietRegistry()

	if err := r.Register(newCounting("a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newCounting("a")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := r.Register(slow{}); err != nil {
		t.Fatal(err)
	}

	if r.Count() != 2 {
		t.Errorf("expected 2 plugins, got %d", r.Count())
	}
	if r.Get("slow") == nil {
		t.Error("expected to find slow")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown plugin")
	}
	if len(r.onScheduleSet) != 1 || len(r.onDepositCredited) != 1 || len(r.onClaimRequested) != 0 {
		t.Error("hook caches do not match implemented interfaces")
	}
}

func TestEmitOnlyReachesImplementers(t *testing.T) {
	r := quietRegistry()
	a, b := newCounting("a"), newCounting("b")
	b.err = errors.New("hook failed")
	_ = r.Register(a)
	_ = r.Register(b)

	ctx := context.Background()
	r.EmitScheduleSet(ctx, nil, &schedule.Schedule{Beneficiary: "alice"})
	r.EmitClaimSettled(ctx, &claim.Claim{})
	r.EmitClaimRolledBack(ctx, &claim.Claim{})

	// A failing plugin does not stop the others.
	for _, c := range []*counting{a, b} {
		if c.count("OnScheduleSet") != 1 || c.count("OnClaimSettled") != 1 {
			t.Errorf("%s: unexpected hits %v", c.name, c.hits)
		}
	}
}

func TestEmitTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(10 * time.Millisecond)
	_ = r.Register(slow{})

	start := time.Now()
	r.EmitDepositCredited(context.Background(), "alice", types.NewAmount(1))
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected emit to give up after the timeout, took %v", elapsed)
	}
}

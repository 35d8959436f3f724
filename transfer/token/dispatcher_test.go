package token

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/vesting/transfer"
	"github.com/xraph/vesting/types"
)

type outcomes struct {
	mu  sync.Mutex
	out []transfer.Outcome
}

func (o *outcomes) reconcile(_ context.Context, out transfer.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.out = append(o.out, out)
	return nil
}

func request(id, recipient string, amount uint64) transfer.Request {
	return transfer.Request{
		Recipient: recipient,
		Amount:    types.NewAmount(amount),
		Continuation: transfer.Continuation{
			ClaimID:     id,
			Beneficiary: recipient,
			Amount:      types.NewAmount(amount),
		},
	}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	tok := New("token.example")
	tok.Mint("vault", types.NewAmount(100))
	tok.Register("alice")

	var got outcomes
	d := NewDispatcher(tok, "vault")
	d.Bind(got.reconcile)

	if err := d.RequestTransfer(ctx, request("c0", "alice", 1)); !errors.Is(err, transfer.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable before Start, got %v", err)
	}

	d.Start(ctx)
	for _, req := range []transfer.Request{
		request("c1", "alice", 70),
		request("c2", "bob", 10),
		request("c3", "alice", 40),
	} {
		if err := d.RequestTransfer(ctx, req); err != nil {
			t.Fatal(err)
		}
	}
	d.Flush()
	d.Stop()

	want := map[string]bool{"c1": true, "c2": false, "c3": false}
	if len(got.out) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(got.out))
	}
	for _, out := range got.out {
		if out.Success != want[out.Continuation.ClaimID] {
			t.Errorf("%s: expected success=%v, got %v (%s)",
				out.Continuation.ClaimID, want[out.Continuation.ClaimID], out.Success, out.Reason)
		}
		if !out.Success && out.Reason == "" {
			t.Errorf("%s: expected a failure reason", out.Continuation.ClaimID)
		}
	}
	if got := tok.BalanceOf("alice").String(); got != "70" {
		t.Errorf("expected alice balance 70, got %s", got)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	ctx := context.Background()
	tok := New("token.example")
	tok.Mint("vault", types.NewAmount(10))
	tok.Register("alice")

	block := make(chan struct{})
	d := NewDispatcher(tok, "vault", WithBuffer(1))
	d.Bind(func(context.Context, transfer.Outcome) error {
		<-block
		return nil
	})
	d.Start(ctx)

	// The first request occupies the worker, the second fills the buffer.
	if err := d.RequestTransfer(ctx, request("c1", "alice", 1)); err != nil {
		t.Fatal(err)
	}
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = d.RequestTransfer(ctx, request("cx", "alice", 1))
	}
	if !errors.Is(full, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", full)
	}

	close(block)
	d.Flush()
	d.Stop()
}

func TestDispatcherRestart(t *testing.T) {
	ctx := context.Background()
	tok := New("token.example")
	tok.Mint("vault", types.NewAmount(10))
	tok.Register("alice")

	var got outcomes
	d := NewDispatcher(tok, "vault")
	d.Bind(got.reconcile)

	d.Start(ctx)
	d.Stop()
	if err := d.RequestTransfer(ctx, request("c0", "alice", 1)); !errors.Is(err, transfer.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after Stop, got %v", err)
	}

	d.Start(ctx)
	if err := d.RequestTransfer(ctx, request("c1", "alice", 4)); err != nil {
		t.Fatal(err)
	}
	d.Flush()
	d.Stop()

	if len(got.out) != 1 || !got.out[0].Success {
		t.Fatalf("expected one settled outcome after restart, got %+v", got.out)
	}
	if got := tok.BalanceOf("alice").String(); got != "4" {
		t.Errorf("expected alice balance 4, got %s", got)
	}
}

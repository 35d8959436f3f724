package token

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xraph/vesting/transfer"
)

// compile-time interface check
var _ transfer.Service = (*Dispatcher)(nil)

// ErrQueueFull is returned when the request buffer is saturated.
var ErrQueueFull = errors.New("token: transfer queue full")

// Dispatcher executes transfer requests from the vault's account on a
// background worker and reports each outcome through a ReconcileFunc.
type Dispatcher struct {
	token     *Token
	from      string
	reconcile transfer.ReconcileFunc
	logger    *slog.Logger

	queue    chan transfer.Request
	stopChan chan struct{}
	wg       sync.WaitGroup
	inflight sync.WaitGroup
	mu       sync.RWMutex
	running  bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithBuffer sets the request queue capacity.
func WithBuffer(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan transfer.Request, n)
		}
	}
}

// NewDispatcher sends transfers out of the from account of t.
func NewDispatcher(t *Token, from string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		token:    t,
		from:     from,
		logger:   slog.Default(),
		queue:    make(chan transfer.Request, 1024),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind sets where outcomes are delivered. It must be called before Start.
func (d *Dispatcher) Bind(fn transfer.ReconcileFunc) {
	d.reconcile = fn
}

// Start launches the worker. A stopped dispatcher can be started again.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stopChan = make(chan struct{})
	d.wg.Add(1)
	go d.worker(ctx, d.stopChan)
}

// Stop drains queued requests and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	stop := d.stopChan
	d.mu.Unlock()

	close(stop)
	d.wg.Wait()
}

// Flush waits until every accepted request has been reconciled.
func (d *Dispatcher) Flush() {
	d.inflight.Wait()
}

func (d *Dispatcher) RequestTransfer(_ context.Context, req transfer.Request) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return transfer.ErrUnavailable
	}

	d.inflight.Add(1)
	select {
	case d.queue <- req:
		return nil
	default:
		d.inflight.Done()
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context, stop <-chan struct{}) {
	defer d.wg.Done()

	for {
		select {
		case <-stop:
			for {
				select {
				case req := <-d.queue:
					d.execute(ctx, req)
				default:
					return
				}
			}
		case req := <-d.queue:
			d.execute(ctx, req)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, req transfer.Request) {
	defer d.inflight.Done()

	out := transfer.Outcome{Continuation: req.Continuation, Success: true}
	if err := d.token.Transfer(d.from, req.Recipient, req.Amount); err != nil {
		out.Success = false
		out.Reason = err.Error()
	}

	d.logger.Debug("transfer executed",
		"claim_id", req.Continuation.ClaimID,
		"recipient", req.Recipient,
		"amount", req.Amount.String(),
		"success", out.Success,
	)

	if d.reconcile == nil {
		d.logger.Error("transfer outcome dropped: no reconciler bound",
			"claim_id", req.Continuation.ClaimID,
		)
		return
	}
	if err := d.reconcile(ctx, out); err != nil {
		d.logger.Error("failed to reconcile transfer",
			"claim_id", req.Continuation.ClaimID,
			"error", err,
		)
	}
}

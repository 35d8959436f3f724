package vesting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vesting/ledger"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/transfer"
	"github.com/xraph/vesting/types"
)

// Version is the vault software version reported by PoolSummary.
const Version = "1.0.0"

// DefaultSelf is the vault's own caller identity when WithSelf is not used.
const DefaultSelf = "vesting.vault"

// Env is the execution environment of a single call: who is calling and
// the host-supplied current time in seconds.
type Env struct {
	Caller string
	Now    types.Timestamp
}

// OverfundingPolicy decides what happens to a per-account deposit that
// exceeds the outstanding entitlement.
type OverfundingPolicy string

const (
	// OverfundingAccept credits the excess to the balance as carry-forward.
	OverfundingAccept OverfundingPolicy = "accept"
	// OverfundingReject refuses the deposit with ErrAmountIncorrect.
	OverfundingReject OverfundingPolicy = "reject"
)

// Vault is the time-locked release ledger. All mutating calls are
// serialized and applied atomically: a call either commits every write or
// none of them.
type Vault struct {
	store       store.Store
	transfers   transfer.Service
	plugins     *plugin.Registry
	logger      *slog.Logger
	self        string
	overfunding OverfundingPolicy
	clock       func() time.Time

	mu sync.Mutex
}

// Option configures a Vault.
type Option func(*Vault)

// New creates a new Vault over s, issuing transfers through t.
func New(s store.Store, t transfer.Service, opts ...Option) *Vault {
	v := &Vault{
		store:       s,
		transfers:   t,
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		self:        DefaultSelf,
		overfunding: OverfundingAccept,
		clock:       time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// WithLogger sets the logger for the vault and its plugin registry.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin with the vault.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // duplicate names are logged by the caller's setup
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(v *Vault) {
		v.plugins.WithTimeout(d)
	}
}

// WithSelf sets the vault's own identity. Only this caller may deliver
// transfer outcomes.
func WithSelf(accountID string) Option {
	return func(v *Vault) {
		if accountID != "" {
			v.self = accountID
		}
	}
}

// WithOverfunding sets the per-account overfunding policy.
func WithOverfunding(p OverfundingPolicy) Option {
	return func(v *Vault) {
		v.overfunding = p
	}
}

// WithClock sets the clock used by host adapters (Reconciler, OnTransfer).
// Calls made with an explicit Env never consult it.
func WithClock(clock func() time.Time) Option {
	return func(v *Vault) {
		v.clock = clock
	}
}

// Self returns the vault's own identity.
func (v *Vault) Self() string { return v.self }

// Plugins returns the plugin registry.
func (v *Vault) Plugins() *plugin.Registry { return v.plugins }

// Now returns the host clock as a Timestamp.
func (v *Vault) Now() types.Timestamp { return types.FromTime(v.clock()) }

// Start migrates the store and notifies plugins.
func (v *Vault) Start(ctx context.Context) error {
	if err := v.store.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting: migrate: %w", err)
	}

	v.plugins.EmitInit(ctx, v)

	v.logger.Info("vault started",
		"self", v.self,
		"plugins", v.plugins.Count(),
		"overfunding", string(v.overfunding),
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (v *Vault) Stop() error {
	v.plugins.EmitShutdown(context.Background())

	if err := v.store.Close(); err != nil {
		return fmt.Errorf("vesting: close store: %w", err)
	}

	v.logger.Info("vault stopped")
	return nil
}

// Reconciler returns a transfer.ReconcileFunc that delivers outcomes as the
// vault itself, stamped with the host clock.
func (v *Vault) Reconciler() transfer.ReconcileFunc {
	return func(ctx context.Context, out transfer.Outcome) error {
		return v.Reconcile(ctx, Env{Caller: v.self, Now: v.Now()}, out)
	}
}

// ──────────────────────────────────────────────────
// Call execution
// ──────────────────────────────────────────────────

// call is the state of one serialized vault call.
type call struct {
	env    Env
	tx     *store.Tx
	ledger *ledger.Ledger
	events []func(context.Context)
}

// after queues fn to run once the call has committed and the lock is released.
func (c *call) after(fn func(context.Context)) {
	c.events = append(c.events, fn)
}

// pool loads the pool and its accountant.
func (c *call) pool(ctx context.Context) (*pool.Pool, pool.Accountant, error) {
	p, err := c.ledger.Pool(ctx)
	if errors.Is(err, ledger.ErrPoolMissing) {
		return nil, nil, ErrNotInitialized
	}
	if err != nil {
		return nil, nil, err
	}
	acct, err := pool.ForMode(p.Mode)
	if err != nil {
		return nil, nil, err
	}
	return p, acct, nil
}

// administrator loads the pool and verifies the caller administers it.
func (c *call) administrator(ctx context.Context) (*pool.Pool, pool.Accountant, error) {
	p, acct, err := c.pool(ctx)
	if err != nil {
		return nil, nil, err
	}
	if c.env.Caller != p.Administrator {
		return nil, nil, ErrNotAuthorized
	}
	return p, acct, nil
}

// execute runs fn against a fresh overlay under the vault lock and commits
// the overlay if fn succeeds. Plugin events queued by fn are emitted after
// the lock is released.
func (v *Vault) execute(ctx context.Context, op string, env Env, fn func(*call) error) error {
	events, err := v.run(ctx, env, fn)
	if err != nil {
		v.logger.Debug("call rejected",
			"op", op,
			"caller", env.Caller,
			"reason", Reason(err),
			"error", err,
		)
		v.plugins.EmitCallRejected(ctx, op, env.Caller, err)
		return err
	}

	for _, emit := range events {
		emit(ctx)
	}
	return nil
}

func (v *Vault) run(ctx context.Context, env Env, fn func(*call) error) ([]func(context.Context), error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	tx := store.Begin(v.store)
	c := &call{env: env, tx: tx, ledger: ledger.New(tx)}

	if err := fn(c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("vesting: commit: %w", err)
	}
	return c.events, nil
}

// read runs fn against committed state under the vault lock.
func (v *Vault) read(fn func(*call) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	tx := store.Begin(v.store)
	return fn(&call{tx: tx, ledger: ledger.New(tx)})
}

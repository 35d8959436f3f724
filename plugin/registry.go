package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and caches them per hook interface.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onScheduleSet          []OnScheduleSet
	onScheduleRemoved      []OnScheduleRemoved
	onDepositCredited      []OnDepositCredited
	onClaimRequested       []OnClaimRequested
	onClaimSettled         []OnClaimSettled
	onClaimRolledBack      []OnClaimRolledBack
	onAdministratorChanged []OnAdministratorChanged
	onCallRejected         []OnCallRejected
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnScheduleSet); ok {
		r.onScheduleSet = append(r.onScheduleSet, v)
		hooks = append(hooks, "OnScheduleSet")
	}
	if v, ok := p.(OnScheduleRemoved); ok {
		r.onScheduleRemoved = append(r.onScheduleRemoved, v)
		hooks = append(hooks, "OnScheduleRemoved")
	}
	if v, ok := p.(OnDepositCredited); ok {
		r.onDepositCredited = append(r.onDepositCredited, v)
		hooks = append(hooks, "OnDepositCredited")
	}
	if v, ok := p.(OnClaimRequested); ok {
		r.onClaimRequested = append(r.onClaimRequested, v)
		hooks = append(hooks, "OnClaimRequested")
	}
	if v, ok := p.(OnClaimSettled); ok {
		r.onClaimSettled = append(r.onClaimSettled, v)
		hooks = append(hooks, "OnClaimSettled")
	}
	if v, ok := p.(OnClaimRolledBack); ok {
		r.onClaimRolledBack = append(r.onClaimRolledBack, v)
		hooks = append(hooks, "OnClaimRolledBack")
	}
	if v, ok := p.(OnAdministratorChanged); ok {
		r.onAdministratorChanged = append(r.onAdministratorChanged, v)
		hooks = append(hooks, "OnAdministratorChanged")
	}
	if v, ok := p.(OnCallRejected); ok {
		r.onCallRejected = append(r.onCallRejected, v)
		hooks = append(hooks, "OnCallRejected")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit snapshots the cached hook list under the read lock and calls fn on
// each entry. Hook failures are logged and never propagate.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list *[]T, fn func(T) error) {
	r.mu.RLock()
	plugins := *list
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, vault interface{}) {
	emit(ctx, r, "OnInit", &r.onInit, func(p OnInit) error { return p.OnInit(ctx, vault) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", &r.onShutdown, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitScheduleSet emits a schedule created or replaced event.
func (r *Registry) EmitScheduleSet(ctx context.Context, previous, current *schedule.Schedule) {
	emit(ctx, r, "OnScheduleSet", &r.onScheduleSet, func(p OnScheduleSet) error {
		return p.OnScheduleSet(ctx, previous, current)
	})
}

// EmitScheduleRemoved emits a schedule removed event.
func (r *Registry) EmitScheduleRemoved(ctx context.Context, removed *schedule.Schedule) {
	emit(ctx, r, "OnScheduleRemoved", &r.onScheduleRemoved, func(p OnScheduleRemoved) error {
		return p.OnScheduleRemoved(ctx, removed)
	})
}

// EmitDepositCredited emits a deposit credited event.
func (r *Registry) EmitDepositCredited(ctx context.Context, beneficiary string, amount types.Amount) {
	emit(ctx, r, "OnDepositCredited", &r.onDepositCredited, func(p OnDepositCredited) error {
		return p.OnDepositCredited(ctx, beneficiary, amount)
	})
}

// EmitClaimRequested emits a claim requested event.
func (r *Registry) EmitClaimRequested(ctx context.Context, c *claim.Claim) {
	emit(ctx, r, "OnClaimRequested", &r.onClaimRequested, func(p OnClaimRequested) error {
		return p.OnClaimRequested(ctx, c)
	})
}

// EmitClaimSettled emits a claim settled event.
func (r *Registry) EmitClaimSettled(ctx context.Context, c *claim.Claim) {
	emit(ctx, r, "OnClaimSettled", &r.onClaimSettled, func(p OnClaimSettled) error {
		return p.OnClaimSettled(ctx, c)
	})
}

// EmitClaimRolledBack emits a claim rolled back event.
func (r *Registry) EmitClaimRolledBack(ctx context.Context, c *claim.Claim) {
	emit(ctx, r, "OnClaimRolledBack", &r.onClaimRolledBack, func(p OnClaimRolledBack) error {
		return p.OnClaimRolledBack(ctx, c)
	})
}

// EmitAdministratorChanged emits an administrator changed event.
func (r *Registry) EmitAdministratorChanged(ctx context.Context, previous, current string) {
	emit(ctx, r, "OnAdministratorChanged", &r.onAdministratorChanged, func(p OnAdministratorChanged) error {
		return p.OnAdministratorChanged(ctx, previous, current)
	})
}

// EmitCallRejected emits a rejected call event.
func (r *Registry) EmitCallRejected(ctx context.Context, op, caller string, err error) {
	emit(ctx, r, "OnCallRejected", &r.onCallRejected, func(p OnCallRejected) error {
		return p.OnCallRejected(ctx, op, caller, err)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement path.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

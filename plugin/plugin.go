// Package plugin provides lifecycle hooks for the vault.
// Plugins implement any subset of the hook interfaces below and are
// dispatched after the corresponding state change has been committed.
package plugin

import (
	"context"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the vault starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, vault interface{}) error
}

// OnShutdown is called when the vault stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleSet is called when a schedule is created or replaced.
// previous is nil on creation.
type OnScheduleSet interface {
	Plugin
	OnScheduleSet(ctx context.Context, previous, current *schedule.Schedule) error
}

// OnScheduleRemoved is called when the administrator removes a schedule.
type OnScheduleRemoved interface {
	Plugin
	OnScheduleRemoved(ctx context.Context, removed *schedule.Schedule) error
}

// ──────────────────────────────────────────────────
// Funding and settlement hooks
// ──────────────────────────────────────────────────

// OnDepositCredited is called after a deposit notification is accepted.
// beneficiary is empty for pool-wide deposits.
type OnDepositCredited interface {
	Plugin
	OnDepositCredited(ctx context.Context, beneficiary string, amount types.Amount) error
}

// OnClaimRequested is called once a claim or payment is debited and its
// transfer has been requested.
type OnClaimRequested interface {
	Plugin
	OnClaimRequested(ctx context.Context, c *claim.Claim) error
}

// OnClaimSettled is called when a transfer is confirmed.
type OnClaimSettled interface {
	Plugin
	OnClaimSettled(ctx context.Context, c *claim.Claim) error
}

// OnClaimRolledBack is called after a failed transfer has been compensated.
type OnClaimRolledBack interface {
	Plugin
	OnClaimRolledBack(ctx context.Context, c *claim.Claim) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnAdministratorChanged is called when the administrator is replaced.
type OnAdministratorChanged interface {
	Plugin
	OnAdministratorChanged(ctx context.Context, previous, current string) error
}

// OnCallRejected is called when a mutating call fails and nothing was committed.
type OnCallRejected interface {
	Plugin
	OnCallRejected(ctx context.Context, op, caller string, err error) error
}

// Package audithook bridges vault lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the vault does not depend on any
// particular audit store. The history package provides durable Recorders.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnScheduleSet          = (*Extension)(nil)
	_ plugin.OnScheduleRemoved      = (*Extension)(nil)
	_ plugin.OnDepositCredited      = (*Extension)(nil)
	_ plugin.OnClaimRequested       = (*Extension)(nil)
	_ plugin.OnClaimSettled         = (*Extension)(nil)
	_ plugin.OnClaimRolledBack      = (*Extension)(nil)
	_ plugin.OnAdministratorChanged = (*Extension)(nil)
	_ plugin.OnCallRejected         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges vault lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleSet implements plugin.OnScheduleSet.
func (e *Extension) OnScheduleSet(ctx context.Context, previous, current *schedule.Schedule) error {
	action := ActionScheduleCreated
	if previous != nil {
		action = ActionScheduleReplaced
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceSchedule, current.Beneficiary, CategorySchedule, nil,
		"start_time", uint64(current.StartTime),
		"period_length", current.PeriodLength,
		"period_count", current.PeriodCount,
		"amount_per_period", current.AmountPerPeriod.String(),
	)
}

// OnScheduleRemoved implements plugin.OnScheduleRemoved.
func (e *Extension) OnScheduleRemoved(ctx context.Context, removed *schedule.Schedule) error {
	return e.record(ctx, ActionScheduleRemoved, SeverityWarning, OutcomeSuccess,
		ResourceSchedule, removed.Beneficiary, CategorySchedule, nil,
		"periods_claimed", removed.PeriodsClaimed,
		"period_count", removed.PeriodCount,
	)
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnDepositCredited implements plugin.OnDepositCredited.
func (e *Extension) OnDepositCredited(ctx context.Context, beneficiary string, amount types.Amount) error {
	return e.record(ctx, ActionDepositCredited, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, beneficiary, CategoryFunding, nil,
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnClaimRequested implements plugin.OnClaimRequested.
func (e *Extension) OnClaimRequested(ctx context.Context, c *claim.Claim) error {
	action := ActionClaimRequested
	if c.Kind == claim.KindPayment {
		action = ActionPaymentRequested
	}
	return e.recordClaim(ctx, action, SeverityInfo, OutcomeSuccess, c)
}

// OnClaimSettled implements plugin.OnClaimSettled.
func (e *Extension) OnClaimSettled(ctx context.Context, c *claim.Claim) error {
	action := ActionClaimSettled
	if c.Kind == claim.KindPayment {
		action = ActionPaymentSettled
	}
	return e.recordClaim(ctx, action, SeverityInfo, OutcomeSuccess, c)
}

// OnClaimRolledBack implements plugin.OnClaimRolledBack.
func (e *Extension) OnClaimRolledBack(ctx context.Context, c *claim.Claim) error {
	action := ActionClaimRolledBack
	if c.Kind == claim.KindPayment {
		action = ActionPaymentRolledBack
	}
	return e.recordClaim(ctx, action, SeverityError, OutcomeFailure, c)
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnAdministratorChanged implements plugin.OnAdministratorChanged.
func (e *Extension) OnAdministratorChanged(ctx context.Context, previous, current string) error {
	return e.record(ctx, ActionAdministratorChanged, SeverityCritical, OutcomeSuccess,
		ResourcePool, current, CategoryAccess, nil,
		"previous", previous,
	)
}

// OnCallRejected implements plugin.OnCallRejected.
func (e *Extension) OnCallRejected(ctx context.Context, op, caller string, err error) error {
	return e.record(ctx, ActionCallRejected, SeverityWarning, OutcomeFailure,
		ResourcePool, caller, CategoryAccess, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (e *Extension) recordClaim(ctx context.Context, action, severity, outcome string, c *claim.Claim) error {
	resource := ResourceClaim
	if c.Kind == claim.KindPayment {
		resource = ResourcePayment
	}
	return e.record(ctx, action, severity, outcome,
		resource, c.ID.String(), CategorySettlement, nil,
		"beneficiary", c.Beneficiary,
		"amount", c.Amount.String(),
		"periods", c.Periods,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		if r, ok := types.ReasonOf(err); ok {
			reason = r
		} else {
			reason = err.Error()
		}
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

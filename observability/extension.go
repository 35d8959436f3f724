// Package observability provides a metrics plugin for the vault that records
// lifecycle event counts and amounts through a MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnScheduleSet          = (*MetricsExtension)(nil)
	_ plugin.OnScheduleRemoved      = (*MetricsExtension)(nil)
	_ plugin.OnDepositCredited      = (*MetricsExtension)(nil)
	_ plugin.OnClaimRequested       = (*MetricsExtension)(nil)
	_ plugin.OnClaimSettled         = (*MetricsExtension)(nil)
	_ plugin.OnClaimRolledBack      = (*MetricsExtension)(nil)
	_ plugin.OnAdministratorChanged = (*MetricsExtension)(nil)
	_ plugin.OnCallRejected         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records vault lifecycle metrics.
// Register it as a vault plugin to track releases and funding.
type MetricsExtension struct {
	factory MetricFactory

	// Schedule metrics
	ScheduleCreated  Counter
	ScheduleReplaced Counter
	ScheduleRemoved  Counter

	// Funding metrics
	DepositsCredited Counter
	DepositAmount    Histogram

	// Settlement metrics
	ClaimsRequested    Counter
	ClaimsSettled      Counter
	ClaimsRolledBack   Counter
	ClaimAmount        Histogram
	ClaimPeriods       Histogram
	PaymentsRequested  Counter
	PaymentsSettled    Counter
	PaymentsRolledBack Counter
	PaymentAmount      Histogram

	// Access metrics
	AdministratorChanged Counter
	CallsRejected        Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ScheduleCreated:  factory.Counter("vesting.schedule.created"),
		ScheduleReplaced: factory.Counter("vesting.schedule.replaced"),
		ScheduleRemoved:  factory.Counter("vesting.schedule.removed"),

		DepositsCredited: factory.Counter("vesting.deposit.credited"),
		DepositAmount:    factory.Histogram("vesting.deposit.amount"),

		ClaimsRequested:    factory.Counter("vesting.claim.requested"),
		ClaimsSettled:      factory.Counter("vesting.claim.settled"),
		ClaimsRolledBack:   factory.Counter("vesting.claim.rolled_back"),
		ClaimAmount:        factory.Histogram("vesting.claim.amount"),
		ClaimPeriods:       factory.Histogram("vesting.claim.periods"),
		PaymentsRequested:  factory.Counter("vesting.payment.requested"),
		PaymentsSettled:    factory.Counter("vesting.payment.settled"),
		PaymentsRolledBack: factory.Counter("vesting.payment.rolled_back"),
		PaymentAmount:      factory.Histogram("vesting.payment.amount"),

		AdministratorChanged: factory.Counter("vesting.administrator.changed"),
		CallsRejected:        factory.Counter("vesting.call.rejected"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleSet implements plugin.OnScheduleSet.
func (m *MetricsExtension) OnScheduleSet(_ context.Context, previous, _ *schedule.Schedule) error {
	if previous != nil {
		m.ScheduleReplaced.Inc()
	} else {
		m.ScheduleCreated.Inc()
	}
	return nil
}

// OnScheduleRemoved implements plugin.OnScheduleRemoved.
func (m *MetricsExtension) OnScheduleRemoved(_ context.Context, _ *schedule.Schedule) error {
	m.ScheduleRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnDepositCredited implements plugin.OnDepositCredited.
func (m *MetricsExtension) OnDepositCredited(_ context.Context, _ string, amount types.Amount) error {
	m.DepositsCredited.Inc()
	m.DepositAmount.Observe(approx(amount))
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnClaimRequested implements plugin.OnClaimRequested.
func (m *MetricsExtension) OnClaimRequested(_ context.Context, c *claim.Claim) error {
	if c.Kind == claim.KindPayment {
		m.PaymentsRequested.Inc()
		m.PaymentAmount.Observe(approx(c.Amount))
		return nil
	}
	m.ClaimsRequested.Inc()
	m.ClaimAmount.Observe(approx(c.Amount))
	m.ClaimPeriods.Observe(float64(c.Periods))
	return nil
}

// OnClaimSettled implements plugin.OnClaimSettled.
func (m *MetricsExtension) OnClaimSettled(_ context.Context, c *claim.Claim) error {
	if c.Kind == claim.KindPayment {
		m.PaymentsSettled.Inc()
	} else {
		m.ClaimsSettled.Inc()
	}
	return nil
}

// OnClaimRolledBack implements plugin.OnClaimRolledBack.
func (m *MetricsExtension) OnClaimRolledBack(_ context.Context, c *claim.Claim) error {
	if c.Kind == claim.KindPayment {
		m.PaymentsRolledBack.Inc()
	} else {
		m.ClaimsRolledBack.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnAdministratorChanged implements plugin.OnAdministratorChanged.
func (m *MetricsExtension) OnAdministratorChanged(_ context.Context, _, _ string) error {
	m.AdministratorChanged.Inc()
	return nil
}

// OnCallRejected implements plugin.OnCallRejected.
func (m *MetricsExtension) OnCallRejected(_ context.Context, _, _ string, _ error) error {
	m.CallsRejected.Inc()
	return nil
}

// approx converts an amount to float64 for histograms; precision loss above
// 2^53 is acceptable there.
func approx(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Int().BigInt()).Float64()
	return f
}

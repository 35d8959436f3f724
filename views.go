package vesting

import (
	"context"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Summary is the pool state derived at a given instant.
type Summary struct {
	Version       string       `json:"version"`
	Administrator string       `json:"administrator"`
	Token         string       `json:"token"`
	Mode          pool.Mode    `json:"mode"`
	TotalFunded   types.Amount `json:"total_funded"`
	TotalClaimed  types.Amount `json:"total_claimed"`
	Unlocked      types.Amount `json:"unlocked"`
	Locked        types.Amount `json:"locked"`
	Liquid        types.Amount `json:"liquid"`
	// Unclaimed sums what every schedule could claim right now.
	Unclaimed     types.Amount    `json:"unclaimed"`
	Release       *pool.Release   `json:"release,omitempty"`
	CurrentRound  *uint64         `json:"current_round,omitempty"`
	Schedules     int             `json:"schedules"`
	PendingClaims int             `json:"pending_claims"`
	Now           types.Timestamp `json:"now"`
}

// PoolSummary reports the pool totals and derived liquidity at now.
func (v *Vault) PoolSummary(ctx context.Context, now types.Timestamp) (*Summary, error) {
	var sum *Summary

	err := v.read(func(c *call) error {
		p, _, err := c.pool(ctx)
		if err != nil {
			return err
		}
		schedules, err := c.ledger.List(ctx, schedule.ListOpts{})
		if err != nil {
			return err
		}
		claims, err := c.ledger.Claims(ctx, claim.ListOpts{})
		if err != nil {
			return err
		}

		unclaimed := types.ZeroAmount()
		for _, s := range schedules {
			unclaimed = unclaimed.Add(s.UnclaimedAmount(now))
		}

		sum = &Summary{
			Version:       Version,
			Administrator: p.Administrator,
			Token:         p.Token,
			Mode:          p.Mode,
			TotalFunded:   p.TotalFunded,
			TotalClaimed:  p.TotalClaimed,
			Unlocked:      p.Unlocked(now),
			Locked:        p.Locked(now),
			Liquid:        p.Liquid(now),
			Unclaimed:     unclaimed,
			Release:       p.Release,
			Schedules:     len(schedules),
			PendingClaims: len(claims),
			Now:           now,
		}
		if p.Mode == pool.ModePoolWide && p.Release != nil {
			round := p.Release.CurrentRound(now)
			sum.CurrentRound = &round
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// GetSchedule returns beneficiary's schedule as seen at now.
func (v *Vault) GetSchedule(ctx context.Context, beneficiary string, now types.Timestamp) (*schedule.View, error) {
	var view *schedule.View

	err := v.read(func(c *call) error {
		s, ok, err := c.ledger.Get(ctx, beneficiary)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccountNotFound
		}
		view = s.ViewAt(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListSchedules returns schedules in creation order as seen at now.
func (v *Vault) ListSchedules(ctx context.Context, opts schedule.ListOpts, now types.Timestamp) ([]*schedule.View, error) {
	var views []*schedule.View

	err := v.read(func(c *call) error {
		schedules, err := c.ledger.List(ctx, opts)
		if err != nil {
			return err
		}
		views = make([]*schedule.View, 0, len(schedules))
		for _, s := range schedules {
			views = append(views, s.ViewAt(now))
		}
		return nil
	})
	return views, err
}

// ListPendingClaims returns claims and payments still awaiting their
// transfer outcome, oldest first.
func (v *Vault) ListPendingClaims(ctx context.Context, opts claim.ListOpts) ([]*claim.Claim, error) {
	var claims []*claim.Claim

	err := v.read(func(c *call) error {
		var err error
		claims, err = c.ledger.Claims(ctx, opts)
		return err
	})
	return claims, err
}

package vesting

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/ledger"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/transfer"
	"github.com/xraph/vesting/types"
)

const (
	claimMemo   = "vesting release"
	paymentMemo = "vesting payment"
)

// Claim releases every period of beneficiary's schedule that is due at
// env.Now. An empty beneficiary claims for the caller. The ledger is debited
// before the transfer is requested; a failed transfer is compensated by
// Reconcile. A call with nothing due returns (nil, nil) and changes nothing.
func (v *Vault) Claim(ctx context.Context, env Env, beneficiary string) (*claim.Claim, error) {
	if beneficiary == "" {
		beneficiary = env.Caller
	}

	var pending *claim.Claim

	err := v.execute(ctx, "claim", env, func(c *call) error {
		p, acct, err := c.pool(ctx)
		if err != nil {
			return err
		}
		s, ok, err := c.ledger.Get(ctx, beneficiary)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccountNotFound
		}

		due := s.DuePeriods(env.Now)
		amount := s.AmountPerPeriod.MulUint64(uint64(due))
		if amount.IsZero() {
			return nil
		}

		cl := claim.New(claim.KindClaim, beneficiary, amount, due, env.Now)
		cl.Memo = claimMemo
		if err := acct.ReserveForClaim(p, s, amount, env.Now); err != nil {
			return err
		}
		if err := cl.Advance(claim.StateReserved); err != nil {
			return err
		}

		s.PeriodsClaimed += due
		s.ClaimedAmount = s.ClaimedAmount.Add(amount)
		if err := cl.Advance(claim.StatePending); err != nil {
			return err
		}

		if err := c.ledger.Upsert(s); err != nil {
			return err
		}
		if err := c.ledger.SavePool(p); err != nil {
			return err
		}
		if err := c.ledger.PutClaim(cl); err != nil {
			return err
		}

		// Emitted before the transfer is issued so the requested event
		// always precedes the outcome.
		c.after(func(ctx context.Context) { v.plugins.EmitClaimRequested(ctx, cl) })
		pending = cl
		return nil
	})
	if err != nil || pending == nil {
		return nil, err
	}

	if err := v.dispatch(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Payment pays amount to recipient out of pool liquidity, without touching
// any schedule. Administrator only, pool-wide mode only. The payment may not
// eat into what beneficiaries could claim right now.
func (v *Vault) Payment(ctx context.Context, env Env, recipient string, amount types.Amount) (*claim.Claim, error) {
	var pending *claim.Claim

	err := v.execute(ctx, "payment", env, func(c *call) error {
		p, acct, err := c.administrator(ctx)
		if err != nil {
			return err
		}
		if p.Mode != pool.ModePoolWide {
			return ErrUnsupportedMode
		}
		if recipient == "" {
			return ValidationError{Field: "recipient", Message: "must not be empty"}
		}
		if !amount.IsPositive() {
			return ValidationError{Field: "amount", Message: "must be positive"}
		}

		unclaimed, err := totalUnclaimed(ctx, c.ledger, env.Now)
		if err != nil {
			return err
		}
		if amount.Add(unclaimed).GT(acct.Liquidity(p, nil, env.Now)) {
			return ErrInsufficientLiquidity
		}

		cl := claim.New(claim.KindPayment, recipient, amount, 0, env.Now)
		cl.Memo = paymentMemo
		if err := acct.ReserveForClaim(p, nil, amount, env.Now); err != nil {
			return err
		}
		if err := cl.Advance(claim.StateReserved); err != nil {
			return err
		}
		if err := cl.Advance(claim.StatePending); err != nil {
			return err
		}

		if err := c.ledger.SavePool(p); err != nil {
			return err
		}
		if err := c.ledger.PutClaim(cl); err != nil {
			return err
		}

		c.after(func(ctx context.Context) { v.plugins.EmitClaimRequested(ctx, cl) })
		pending = cl
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := v.dispatch(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// totalUnclaimed sums the unclaimed amount of every schedule at now.
func totalUnclaimed(ctx context.Context, l *ledger.Ledger, now types.Timestamp) (types.Amount, error) {
	schedules, err := l.List(ctx, schedule.ListOpts{})
	if err != nil {
		return types.Amount{}, err
	}
	sum := types.ZeroAmount()
	for _, s := range schedules {
		sum = sum.Add(s.UnclaimedAmount(now))
	}
	return sum, nil
}

// dispatch requests the transfer for a pending claim. It runs outside the
// vault lock. If the request itself fails the claim is rolled back at once.
func (v *Vault) dispatch(ctx context.Context, cl *claim.Claim) error {
	cont := transfer.Continuation{
		ClaimID:     cl.ID.String(),
		Kind:        cl.Kind,
		Beneficiary: cl.Beneficiary,
		Amount:      cl.Amount,
	}
	req := transfer.Request{
		Recipient:    cl.Beneficiary,
		Amount:       cl.Amount,
		Memo:         cl.Memo,
		Continuation: cont,
	}

	if err := v.transfers.RequestTransfer(ctx, req); err != nil {
		v.logger.Error("transfer request failed, rolling back",
			"claim_id", cont.ClaimID,
			"beneficiary", cl.Beneficiary,
			"amount", cl.Amount.String(),
			"error", err,
		)
		out := transfer.Outcome{Continuation: cont, Success: false, Reason: err.Error()}
		if rbErr := v.Reconcile(ctx, Env{Caller: v.self, Now: cl.RequestedAt}, out); rbErr != nil {
			return errors.Join(fmt.Errorf("%w: %w", ErrTransferNotIssued, err), rbErr)
		}
		return fmt.Errorf("%w: %w", ErrTransferNotIssued, err)
	}

	v.logger.Info("transfer requested",
		"claim_id", cont.ClaimID,
		"kind", string(cl.Kind),
		"beneficiary", cl.Beneficiary,
		"amount", cl.Amount.String(),
		"periods", cl.Periods,
	)
	return nil
}

// Reconcile resolves an in-flight claim with the outcome of its transfer.
// Only the vault itself may call it. On success the claim is settled as is;
// on failure every ledger effect of the claim is reversed.
func (v *Vault) Reconcile(ctx context.Context, env Env, out transfer.Outcome) error {
	return v.execute(ctx, "reconcile", env, func(c *call) error {
		if env.Caller != v.self {
			return ErrNotAuthorized
		}
		p, acct, err := c.pool(ctx)
		if err != nil {
			return err
		}

		cont := out.Continuation
		cl, ok, err := c.ledger.Claim(ctx, cont.ClaimID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClaimNotFound
		}
		if cl.Kind != cont.Kind || cl.Beneficiary != cont.Beneficiary || !cl.Amount.Equal(cont.Amount) {
			return ValidationError{Field: "continuation", Message: "does not match the in-flight claim"}
		}

		if err := cl.Resolve(out.Success, env.Now); err != nil {
			return err
		}
		c.ledger.DeleteClaim(cont.ClaimID)

		if out.Success {
			c.after(func(ctx context.Context) {
				v.plugins.EmitClaimSettled(ctx, cl)
				v.logger.Info("claim settled",
					"claim_id", cont.ClaimID,
					"beneficiary", cl.Beneficiary,
					"amount", cl.Amount.String(),
				)
			})
			return nil
		}

		if err := v.rollback(ctx, c, p, acct, cl); err != nil {
			return err
		}
		if err := c.ledger.SavePool(p); err != nil {
			return err
		}

		c.after(func(ctx context.Context) {
			v.plugins.EmitClaimRolledBack(ctx, cl)
			v.logger.Warn("claim rolled back",
				"claim_id", cont.ClaimID,
				"beneficiary", cl.Beneficiary,
				"amount", cl.Amount.String(),
				"reason", out.Reason,
			)
		})
		return nil
	})
}

// rollback reverses the ledger effects of a failed claim or payment.
func (v *Vault) rollback(ctx context.Context, c *call, p *pool.Pool, acct pool.Accountant, cl *claim.Claim) error {
	if cl.Kind == claim.KindPayment {
		acct.ReleaseReservation(p, nil, cl.Amount)
		return nil
	}

	s, ok, err := c.ledger.Get(ctx, cl.Beneficiary)
	if err != nil {
		return err
	}
	if !ok {
		v.logger.Warn("schedule removed while claim was in flight, restoring pool only",
			"claim_id", cl.ID.String(),
			"beneficiary", cl.Beneficiary,
		)
		acct.ReleaseReservation(p, nil, cl.Amount)
		return nil
	}

	periods := rollbackPeriods(s, cl)
	if periods > s.PeriodsClaimed {
		v.logger.Warn("rollback exceeds claimed periods, clamping",
			"claim_id", cl.ID.String(),
			"beneficiary", cl.Beneficiary,
			"periods", periods,
			"periods_claimed", s.PeriodsClaimed,
		)
		s.PeriodsClaimed = 0
	} else {
		s.PeriodsClaimed -= periods
	}
	s.ClaimedAmount = s.ClaimedAmount.SubFloor(cl.Amount)
	acct.ReleaseReservation(p, s, cl.Amount)

	return c.ledger.Upsert(s)
}

// rollbackPeriods derives the periods to restore from the claimed amount
// and the schedule's current per-period amount.
func rollbackPeriods(s *schedule.Schedule, cl *claim.Claim) uint32 {
	if s.AmountPerPeriod.IsZero() {
		return cl.Periods
	}
	n, ok := cl.Amount.Quo(s.AmountPerPeriod).Uint64()
	if !ok || n > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n)
}

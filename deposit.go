package vesting

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// DepositNotification credits a token transfer into the vault. env.Caller
// must be the pool's token. In per-account mode tag names the beneficiary
// whose schedule is funded; in pool-wide mode tag is ignored.
func (v *Vault) DepositNotification(ctx context.Context, env Env, sender string, amount types.Amount, tag string) error {
	return v.execute(ctx, "deposit", env, func(c *call) error {
		p, acct, err := c.pool(ctx)
		if err != nil {
			return err
		}
		if env.Caller != p.Token {
			return ErrIllegalFundingSource
		}

		beneficiary := ""
		switch p.Mode {
		case pool.ModePerAccount:
			if tag == "" {
				return ErrMissingBeneficiaryTag
			}
			s, ok, err := c.ledger.Get(ctx, tag)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAccountNotFound
			}
			if !amount.IsPositive() {
				return ErrAmountIncorrect
			}

			if s.Funding == nil {
				s.Funding = &schedule.Funding{}
			}
			outstanding := s.Outstanding()
			if amount.LT(outstanding) {
				return ErrAmountTooSmall
			}
			if v.overfunding == OverfundingReject && amount.GT(outstanding) {
				return ErrAmountIncorrect
			}

			if err := acct.CreditFunding(p, s, amount); err != nil {
				return creditError(err)
			}
			if err := c.ledger.Upsert(s); err != nil {
				return err
			}
			beneficiary = tag
		default:
			if !amount.IsPositive() {
				return ErrAmountIncorrect
			}
			if err := acct.CreditFunding(p, nil, amount); err != nil {
				return creditError(err)
			}
		}

		if err := c.ledger.SavePool(p); err != nil {
			return err
		}

		c.after(func(ctx context.Context) {
			v.plugins.EmitDepositCredited(ctx, beneficiary, amount)
			v.logger.Info("deposit credited",
				"sender", sender,
				"beneficiary", beneficiary,
				"amount", amount.String(),
				"total_funded", p.TotalFunded.String(),
			)
		})
		return nil
	})
}

// creditError reports a deposit that would push the ledger totals out of
// range as an incorrect amount. Nothing has been written at that point.
func creditError(err error) error {
	if errors.Is(err, types.ErrAmountRange) {
		return fmt.Errorf("%w: %w", ErrAmountIncorrect, err)
	}
	return err
}

// OnTransfer receives a token transfer-with-notification as a deposit,
// stamped with the host clock. The message is the beneficiary tag.
func (v *Vault) OnTransfer(ctx context.Context, token, sender string, amount types.Amount, msg string) error {
	return v.DepositNotification(ctx, Env{Caller: token, Now: v.Now()}, sender, amount, msg)
}

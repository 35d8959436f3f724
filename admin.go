package vesting

import (
	"context"
	"errors"

	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// InitParams configure a vault on first use.
type InitParams struct {
	Administrator string
	// Token is the only account whose transfer notifications count as deposits.
	Token string
	Mode  pool.Mode
	// InitialFunding seeds TotalFunded in pool-wide mode.
	InitialFunding types.Amount
	// Release is required in pool-wide mode and must be nil otherwise.
	Release *pool.Release
	// Schedules are created as part of initialization.
	Schedules []schedule.Params
}

func (p InitParams) validate() error {
	if p.Administrator == "" {
		return ValidationError{Field: "administrator", Message: "must not be empty"}
	}
	if p.Token == "" {
		return ValidationError{Field: "token", Message: "must not be empty"}
	}
	if !p.Mode.Valid() {
		return ValidationError{Field: "mode", Message: "unknown mode " + string(p.Mode)}
	}
	if p.Mode == pool.ModePoolWide {
		if p.Release == nil || p.Release.Interval == 0 || p.Release.Rounds == 0 {
			return ValidationError{Field: "release", Message: "pool-wide mode needs a positive interval and round count"}
		}
		if !p.InitialFunding.Fits() {
			return ValidationError{Field: "initial_funding", Message: "out of range"}
		}
	} else {
		if p.Release != nil {
			return ValidationError{Field: "release", Message: "only valid in pool-wide mode"}
		}
		if !p.InitialFunding.IsZero() {
			return ValidationError{Field: "initial_funding", Message: "only valid in pool-wide mode"}
		}
	}
	seen := make(map[string]struct{}, len(p.Schedules))
	for _, sp := range p.Schedules {
		if err := sp.Validate(); err != nil {
			return ValidationError{Field: "schedules", Message: err.Error()}
		}
		if _, dup := seen[sp.Beneficiary]; dup {
			return ValidationError{Field: "schedules", Message: "duplicate beneficiary " + sp.Beneficiary}
		}
		seen[sp.Beneficiary] = struct{}{}
	}
	return nil
}

// Init creates the pool. It succeeds exactly once per store.
func (v *Vault) Init(ctx context.Context, env Env, params InitParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	return v.execute(ctx, "init", env, func(c *call) error {
		_, _, err := c.pool(ctx)
		switch {
		case err == nil:
			return ErrAlreadyInitialized
		case !errors.Is(err, ErrNotInitialized):
			return err
		}

		p := &pool.Pool{
			Administrator: params.Administrator,
			Token:         params.Token,
			Mode:          params.Mode,
			TotalFunded:   params.InitialFunding,
			TotalClaimed:  types.ZeroAmount(),
		}
		if params.Release != nil {
			r := *params.Release
			p.Release = &r
		}
		if err := c.ledger.SavePool(p); err != nil {
			return err
		}

		created := make([]*schedule.Schedule, 0, len(params.Schedules))
		for _, sp := range params.Schedules {
			s := newSchedule(p.Mode, sp)
			if err := c.ledger.Upsert(s); err != nil {
				return err
			}
			created = append(created, s)
		}

		c.after(func(ctx context.Context) {
			for _, s := range created {
				v.plugins.EmitScheduleSet(ctx, nil, s)
			}
			v.logger.Info("vault initialized",
				"administrator", p.Administrator,
				"token", p.Token,
				"mode", string(p.Mode),
				"schedules", len(created),
			)
		})
		return nil
	})
}

func newSchedule(mode pool.Mode, params schedule.Params) *schedule.Schedule {
	s := &schedule.Schedule{}
	s.Apply(params)
	if mode == pool.ModePerAccount {
		s.Funding = &schedule.Funding{}
	}
	return s
}

// AddOrReplaceSchedule creates a schedule for params.Beneficiary, or
// replaces an existing one that has run its course and has nothing left to
// claim. A replaced schedule keeps its funding balance.
func (v *Vault) AddOrReplaceSchedule(ctx context.Context, env Env, params schedule.Params) (*schedule.Schedule, error) {
	var result *schedule.Schedule

	err := v.execute(ctx, "add_or_replace_schedule", env, func(c *call) error {
		p, _, err := c.administrator(ctx)
		if err != nil {
			return err
		}
		if err := params.Validate(); err != nil {
			return ValidationError{Field: "schedule", Message: err.Error()}
		}

		existing, ok, err := c.ledger.Get(ctx, params.Beneficiary)
		if err != nil {
			return err
		}

		var previous *schedule.Schedule
		if ok {
			if !existing.Dormant(env.Now) {
				return ErrScheduleStillActive
			}
			if !existing.UnclaimedAmount(env.Now).IsZero() {
				return ErrUnclaimedRemainderExists
			}
			previous = existing.Clone()
			existing.Apply(params)
			if p.Mode == pool.ModePerAccount && existing.Funding == nil {
				existing.Funding = &schedule.Funding{}
			}
			result = existing
		} else {
			result = newSchedule(p.Mode, params)
		}

		if err := c.ledger.Upsert(result); err != nil {
			return err
		}

		c.after(func(ctx context.Context) {
			v.plugins.EmitScheduleSet(ctx, previous, result)
			v.logger.Info("schedule set",
				"beneficiary", result.Beneficiary,
				"replaced", previous != nil,
				"start_time", uint64(result.StartTime),
				"period_length", result.PeriodLength,
				"period_count", result.PeriodCount,
				"amount_per_period", result.AmountPerPeriod.String(),
			)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveSchedule deletes a beneficiary's schedule. Pool-wide mode only:
// per-account schedules own funding that removal would strand.
func (v *Vault) RemoveSchedule(ctx context.Context, env Env, beneficiary string) (*schedule.Schedule, error) {
	var removed *schedule.Schedule

	err := v.execute(ctx, "remove_schedule", env, func(c *call) error {
		p, _, err := c.administrator(ctx)
		if err != nil {
			return err
		}
		if p.Mode != pool.ModePoolWide {
			return ErrUnsupportedMode
		}

		removed, err = c.ledger.Remove(ctx, beneficiary)
		if err != nil {
			return err
		}
		if removed == nil {
			return ErrAccountNotFound
		}

		c.after(func(ctx context.Context) {
			v.plugins.EmitScheduleRemoved(ctx, removed)
			v.logger.Info("schedule removed",
				"beneficiary", beneficiary,
				"periods_claimed", removed.PeriodsClaimed,
			)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// SetAdministrator hands administration to another account.
func (v *Vault) SetAdministrator(ctx context.Context, env Env, administrator string) error {
	return v.execute(ctx, "set_administrator", env, func(c *call) error {
		p, _, err := c.administrator(ctx)
		if err != nil {
			return err
		}
		if administrator == "" {
			return ValidationError{Field: "administrator", Message: "must not be empty"}
		}

		previous := p.Administrator
		p.Administrator = administrator
		if err := c.ledger.SavePool(p); err != nil {
			return err
		}

		c.after(func(ctx context.Context) {
			v.plugins.EmitAdministratorChanged(ctx, previous, administrator)
			v.logger.Info("administrator changed",
				"previous", previous,
				"current", administrator,
			)
		})
		return nil
	})
}

// UpgradeRecords rewrites every stored record at its current schema
// version and returns how many were rewritten.
func (v *Vault) UpgradeRecords(ctx context.Context, env Env) (int, error) {
	var upgraded int

	err := v.execute(ctx, "upgrade_records", env, func(c *call) error {
		if _, _, err := c.administrator(ctx); err != nil {
			return err
		}

		var err error
		upgraded, err = c.ledger.UpgradeAll(ctx)
		if err != nil {
			return err
		}

		c.after(func(context.Context) {
			v.logger.Info("records upgraded", "count", upgraded)
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return upgraded, nil
}

package pool

import (
	"errors"
	"fmt"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// ErrInsufficientLiquidity is returned when a reservation exceeds what the
// active accountant can release.
var ErrInsufficientLiquidity = types.NewReasonError("ERR_NOT_ENOUGH_BALANCE", "insufficient liquidity")

var errNoFunding = errors.New("pool: schedule has no per-account funding")

// Accountant owns the aggregate totals and decides whether a claim can be
// covered. Implementations mutate the pool (and schedule funding) in place;
// callers persist both afterwards.
type Accountant interface {
	Mode() Mode
	// Liquidity is the amount available to s at now. s may be nil for
	// pool-level payments.
	Liquidity(p *Pool, s *schedule.Schedule, now types.Timestamp) types.Amount
	CreditFunding(p *Pool, s *schedule.Schedule, amount types.Amount) error
	ReserveForClaim(p *Pool, s *schedule.Schedule, amount types.Amount, now types.Timestamp) error
	// ReleaseReservation undoes ReserveForClaim. It is only called on rollback.
	ReleaseReservation(p *Pool, s *schedule.Schedule, amount types.Amount)
}

// ForMode returns the accountant for m.
func ForMode(m Mode) (Accountant, error) {
	switch m {
	case ModePerAccount:
		return PerAccount{}, nil
	case ModePoolWide:
		return PoolWide{}, nil
	default:
		return nil, fmt.Errorf("pool: unknown mode %q", m)
	}
}

// ──────────────────────────────────────────────────
// Per-account funding
// ──────────────────────────────────────────────────

// PerAccount limits each claim by the beneficiary's own funding balance.
type PerAccount struct{}

func (PerAccount) Mode() Mode { return ModePerAccount }

func (PerAccount) Liquidity(_ *Pool, s *schedule.Schedule, _ types.Timestamp) types.Amount {
	if s == nil || s.Funding == nil {
		return types.ZeroAmount()
	}
	return s.Funding.Balance
}

func (PerAccount) CreditFunding(p *Pool, s *schedule.Schedule, amount types.Amount) error {
	if s == nil {
		return errNoFunding
	}
	if s.Funding == nil {
		s.Funding = &schedule.Funding{}
	}
	// Balance and Deposited never exceed TotalFunded, so checking the
	// pool total bounds all three.
	funded, err := p.TotalFunded.CheckedAdd(amount)
	if err != nil {
		return err
	}
	s.Funding.Balance = s.Funding.Balance.Add(amount)
	s.Funding.Deposited = s.Funding.Deposited.Add(amount)
	p.TotalFunded = funded
	return nil
}

func (a PerAccount) ReserveForClaim(p *Pool, s *schedule.Schedule, amount types.Amount, now types.Timestamp) error {
	if s == nil || s.Funding == nil || amount.GT(a.Liquidity(p, s, now)) {
		return ErrInsufficientLiquidity
	}
	s.Funding.Balance = s.Funding.Balance.Sub(amount)
	p.TotalClaimed = p.TotalClaimed.Add(amount)
	return nil
}

func (PerAccount) ReleaseReservation(p *Pool, s *schedule.Schedule, amount types.Amount) {
	if s != nil {
		if s.Funding == nil {
			s.Funding = &schedule.Funding{}
		}
		s.Funding.Balance = s.Funding.Balance.Add(amount)
	}
	p.TotalClaimed = p.TotalClaimed.SubFloor(amount)
}

// ──────────────────────────────────────────────────
// Pool-wide release
// ──────────────────────────────────────────────────

// PoolWide limits claims by the pool's unlocked-but-unclaimed amount.
type PoolWide struct{}

func (PoolWide) Mode() Mode { return ModePoolWide }

func (PoolWide) Liquidity(p *Pool, _ *schedule.Schedule, now types.Timestamp) types.Amount {
	return p.Liquid(now)
}

func (PoolWide) CreditFunding(p *Pool, _ *schedule.Schedule, amount types.Amount) error {
	funded, err := p.TotalFunded.CheckedAdd(amount)
	if err != nil {
		return err
	}
	p.TotalFunded = funded
	return nil
}

func (a PoolWide) ReserveForClaim(p *Pool, s *schedule.Schedule, amount types.Amount, now types.Timestamp) error {
	if amount.GT(a.Liquidity(p, s, now)) {
		return ErrInsufficientLiquidity
	}
	p.TotalClaimed = p.TotalClaimed.Add(amount)
	return nil
}

func (PoolWide) ReleaseReservation(p *Pool, _ *schedule.Schedule, amount types.Amount) {
	p.TotalClaimed = p.TotalClaimed.SubFloor(amount)
}

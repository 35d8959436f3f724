// Package schedule holds the per-beneficiary vesting schedule and the pure
// calculation of how much of it can be claimed at a given instant.
package schedule

import (
	"github.com/xraph/vesting/types"
)

type Schedule struct {
	Beneficiary     string          `json:"beneficiary"`
	StartTime       types.Timestamp `json:"start_time"`
	PeriodLength    uint64          `json:"period_length"`
	PeriodCount     uint32          `json:"period_count"`
	PeriodsClaimed  uint32          `json:"periods_claimed"`
	AmountPerPeriod types.Amount    `json:"amount_per_period"`
	ClaimedAmount   types.Amount    `json:"claimed_amount"`
	// Funding is nil when liquidity comes from the pool-wide release curve.
	Funding *Funding `json:"funding,omitempty"`
}

// Funding is the per-beneficiary deposit balance used in per-account mode.
type Funding struct {
	Balance   types.Amount `json:"balance"`
	Deposited types.Amount `json:"deposited"`
}

// Params are the administrator-supplied fields of a schedule.
type Params struct {
	Beneficiary     string          `json:"beneficiary"`
	StartTime       types.Timestamp `json:"start_time"`
	PeriodLength    uint64          `json:"period_length"`
	PeriodCount     uint32          `json:"period_count"`
	AmountPerPeriod types.Amount    `json:"amount_per_period"`
}

type ListOpts struct {
	Limit  int
	Offset int
}

// View is a schedule together with values derived at a given instant.
type View struct {
	*Schedule
	Unclaimed types.Amount    `json:"unclaimed"`
	EndTime   types.Timestamp `json:"end_time"`
	Dormant   bool            `json:"dormant"`
}

func (s *Schedule) ViewAt(now types.Timestamp) *View {
	return &View{
		Schedule:  s,
		Unclaimed: s.UnclaimedAmount(now),
		EndTime:   s.EndTime(),
		Dormant:   s.Dormant(now),
	}
}

// Clone returns a deep copy.
func (s *Schedule) Clone() *Schedule {
	c := *s
	if s.Funding != nil {
		f := *s.Funding
		c.Funding = &f
	}
	return &c
}

// Package pool holds the singleton pool state and the accountants that
// enforce its liquidity invariant.
package pool

import (
	"github.com/xraph/vesting/types"
)

// Mode selects how liquidity is attributed.
type Mode string

const (
	// ModePerAccount funds each schedule by its own tagged deposits.
	ModePerAccount Mode = "per_account"
	// ModePoolWide releases a single funded pool on a round schedule.
	ModePoolWide Mode = "pool_wide"
)

func (m Mode) Valid() bool {
	return m == ModePerAccount || m == ModePoolWide
}

type Pool struct {
	Administrator string       `json:"administrator"`
	Token         string       `json:"token"`
	Mode          Mode         `json:"mode"`
	TotalFunded   types.Amount `json:"total_funded"`
	TotalClaimed  types.Amount `json:"total_claimed"`
	Release       *Release     `json:"release,omitempty"`
}

// Release is the pool-wide unlock curve: TotalFunded unlocks linearly over
// Rounds rounds of Interval seconds each, starting at StartTime.
type Release struct {
	StartTime types.Timestamp `json:"start_time"`
	Interval  uint64          `json:"interval"`
	Rounds    uint32          `json:"rounds"`
}

// CurrentRound is the number of whole rounds elapsed at now, uncapped.
func (r *Release) CurrentRound(now types.Timestamp) uint64 {
	if r.Interval == 0 {
		return 0
	}
	return now.Since(r.StartTime) / r.Interval
}

// Unlocked is the part of TotalFunded released at now. In per-account mode
// every deposit is attributed at once, so the whole of TotalFunded counts.
func (p *Pool) Unlocked(now types.Timestamp) types.Amount {
	if p.Mode != ModePoolWide || p.Release == nil {
		return p.TotalFunded
	}
	if p.Release.Rounds == 0 {
		return types.ZeroAmount()
	}
	round := p.Release.CurrentRound(now)
	if round >= uint64(p.Release.Rounds) {
		return p.TotalFunded
	}
	return p.TotalFunded.MulDiv(round, uint64(p.Release.Rounds))
}

// Locked is TotalFunded minus Unlocked.
func (p *Pool) Locked(now types.Timestamp) types.Amount {
	return p.TotalFunded.SubFloor(p.Unlocked(now))
}

// Liquid is Unlocked minus TotalClaimed.
func (p *Pool) Liquid(now types.Timestamp) types.Amount {
	return p.Unlocked(now).SubFloor(p.TotalClaimed)
}

func (p *Pool) Clone() *Pool {
	c := *p
	if p.Release != nil {
		r := *p.Release
		c.Release = &r
	}
	return &c
}

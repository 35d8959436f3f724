package schedule

import (
	"errors"
	"fmt"
	"math"

	"github.com/xraph/vesting/types"
)

var (
	ErrEmptyBeneficiary = errors.New("schedule: beneficiary is required")
	ErrZeroPeriodLength = errors.New("schedule: period length must be positive")
	ErrZeroPeriodCount  = errors.New("schedule: period count must be at least 1")
	ErrEndTimeOverflow  = errors.New("schedule: end time overflows")
	ErrTotalOverflow    = errors.New("schedule: total amount overflows")
)

// Validate checks the administrator-supplied fields.
func (p Params) Validate() error {
	switch {
	case p.Beneficiary == "":
		return ErrEmptyBeneficiary
	case p.PeriodLength == 0:
		return ErrZeroPeriodLength
	case p.PeriodCount == 0:
		return ErrZeroPeriodCount
	case p.PeriodLength > (math.MaxUint64-uint64(p.StartTime))/uint64(p.PeriodCount):
		return ErrEndTimeOverflow
	}
	if _, err := p.AmountPerPeriod.CheckedMulUint64(uint64(p.PeriodCount)); err != nil {
		return ErrTotalOverflow
	}
	return nil
}

// ElapsedPeriods is the number of whole periods between StartTime and now,
// capped at PeriodCount. It is 0 when now is at or before StartTime.
func (s *Schedule) ElapsedPeriods(now types.Timestamp) uint32 {
	if s.PeriodLength == 0 {
		return 0
	}
	elapsed := now.Since(s.StartTime) / s.PeriodLength
	if elapsed > uint64(s.PeriodCount) {
		return s.PeriodCount
	}
	return uint32(elapsed)
}

// DuePeriods is the number of elapsed periods not yet claimed.
func (s *Schedule) DuePeriods(now types.Timestamp) uint32 {
	if s.PeriodsClaimed >= s.PeriodCount {
		return 0
	}
	elapsed := s.ElapsedPeriods(now)
	if elapsed <= s.PeriodsClaimed {
		return 0
	}
	return elapsed - s.PeriodsClaimed
}

// UnclaimedAmount is the amount claimable at now. It never decreases as now
// advances with PeriodsClaimed fixed.
func (s *Schedule) UnclaimedAmount(now types.Timestamp) types.Amount {
	return s.AmountPerPeriod.MulUint64(uint64(s.DuePeriods(now)))
}

// TotalAmount is PeriodCount * AmountPerPeriod.
func (s *Schedule) TotalAmount() types.Amount {
	return s.AmountPerPeriod.MulUint64(uint64(s.PeriodCount))
}

// PaidAmount is the amount released for the periods already claimed.
func (s *Schedule) PaidAmount() types.Amount {
	return s.AmountPerPeriod.MulUint64(uint64(s.PeriodsClaimed))
}

// EndTime is the instant the last period elapses.
func (s *Schedule) EndTime() types.Timestamp {
	return s.StartTime + types.Timestamp(s.PeriodLength*uint64(s.PeriodCount))
}

// Dormant reports whether now is strictly past EndTime.
func (s *Schedule) Dormant(now types.Timestamp) bool {
	return now > s.EndTime()
}

// Outstanding is the part of the schedule neither paid nor covered by the
// funding balance. It is 0 without per-account funding.
func (s *Schedule) Outstanding() types.Amount {
	if s.Funding == nil {
		return types.ZeroAmount()
	}
	return s.TotalAmount().SubFloor(s.PaidAmount()).SubFloor(s.Funding.Balance)
}

// Apply installs p over s, resetting the claim counter. Funding and
// ClaimedAmount carry over.
func (s *Schedule) Apply(p Params) {
	s.Beneficiary = p.Beneficiary
	s.StartTime = p.StartTime
	s.PeriodLength = p.PeriodLength
	s.PeriodCount = p.PeriodCount
	s.AmountPerPeriod = p.AmountPerPeriod
	s.PeriodsClaimed = 0
}

func (s *Schedule) String() string {
	return fmt.Sprintf("%s[%d/%d x %s every %ds from %d]",
		s.Beneficiary, s.PeriodsClaimed, s.PeriodCount, s.AmountPerPeriod, s.PeriodLength, s.StartTime)
}

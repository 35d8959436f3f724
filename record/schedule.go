package record

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// scheduleV1 is the round-based account layout used before per-account
// funding existed. It carries no funding or cumulative claim fields.
type scheduleV1 struct {
	AccountID       string `msgpack:"account_id"`
	StartTimestamp  uint64 `msgpack:"start_timestamp"`
	ReleaseInterval uint64 `msgpack:"release_interval"`
	ReleaseRounds   uint32 `msgpack:"release_rounds"`
	LastClaimRound  uint32 `msgpack:"last_claim_round"`
	ReleasePerRound string `msgpack:"release_per_round"`
}

type scheduleV2 struct {
	Beneficiary      string `msgpack:"beneficiary"`
	StartTime        uint64 `msgpack:"start_time"`
	PeriodLength     uint64 `msgpack:"period_length"`
	PeriodCount      uint32 `msgpack:"period_count"`
	PeriodsClaimed   uint32 `msgpack:"periods_claimed"`
	AmountPerPeriod  string `msgpack:"amount_per_period"`
	ClaimedAmount    string `msgpack:"claimed_amount"`
	Funded           bool   `msgpack:"funded"`
	FundingBalance   string `msgpack:"funding_balance,omitempty"`
	FundingDeposited string `msgpack:"funding_deposited,omitempty"`
}

// upgrade maps the v1 layout onto v2. Claimed rounds become claimed
// periods; the cumulative claimed amount is derived from them.
func (v *scheduleV1) upgrade() (*scheduleV2, error) {
	per, err := amountOrZero(v.ReleasePerRound)
	if err != nil {
		return nil, err
	}
	return &scheduleV2{
		Beneficiary:     v.AccountID,
		StartTime:       v.StartTimestamp,
		PeriodLength:    v.ReleaseInterval,
		PeriodCount:     v.ReleaseRounds,
		PeriodsClaimed:  v.LastClaimRound,
		AmountPerPeriod: per.String(),
		ClaimedAmount:   per.MulUint64(uint64(v.LastClaimRound)).String(),
	}, nil
}

func EncodeSchedule(s *schedule.Schedule) ([]byte, error) {
	m := &scheduleV2{
		Beneficiary:     s.Beneficiary,
		StartTime:       uint64(s.StartTime),
		PeriodLength:    s.PeriodLength,
		PeriodCount:     s.PeriodCount,
		PeriodsClaimed:  s.PeriodsClaimed,
		AmountPerPeriod: s.AmountPerPeriod.String(),
		ClaimedAmount:   s.ClaimedAmount.String(),
	}
	if s.Funding != nil {
		m.Funded = true
		m.FundingBalance = s.Funding.Balance.String()
		m.FundingDeposited = s.Funding.Deposited.String()
	}
	return seal(KindSchedule, ScheduleVersion, m)
}

func DecodeSchedule(data []byte) (*schedule.Schedule, error) {
	env, err := open(data, KindSchedule)
	if err != nil {
		return nil, err
	}

	var m *scheduleV2
	switch env.Version {
	case 1:
		var v1 scheduleV1
		if err := msgpack.Unmarshal(env.Payload, &v1); err != nil {
			return nil, fmt.Errorf("record: decode schedule v1: %w", err)
		}
		if m, err = v1.upgrade(); err != nil {
			return nil, err
		}
	case 2:
		m = new(scheduleV2)
		if err := msgpack.Unmarshal(env.Payload, m); err != nil {
			return nil, fmt.Errorf("record: decode schedule: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: schedule v%d", ErrUnknownVersion, env.Version)
	}
	return m.toSchedule()
}

func (m *scheduleV2) toSchedule() (*schedule.Schedule, error) {
	per, err := amountOrZero(m.AmountPerPeriod)
	if err != nil {
		return nil, err
	}
	claimed, err := amountOrZero(m.ClaimedAmount)
	if err != nil {
		return nil, err
	}

	s := &schedule.Schedule{
		Beneficiary:     m.Beneficiary,
		StartTime:       types.Timestamp(m.StartTime),
		PeriodLength:    m.PeriodLength,
		PeriodCount:     m.PeriodCount,
		PeriodsClaimed:  m.PeriodsClaimed,
		AmountPerPeriod: per,
		ClaimedAmount:   claimed,
	}
	if m.Funded {
		balance, err := amountOrZero(m.FundingBalance)
		if err != nil {
			return nil, err
		}
		deposited, err := amountOrZero(m.FundingDeposited)
		if err != nil {
			return nil, err
		}
		s.Funding = &schedule.Funding{Balance: balance, Deposited: deposited}
	}
	return s, nil
}

package record

import (
	"errors"
	"testing"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

func TestDecodeScheduleUpgradesV1(t *testing.T) {
	data, err := seal(KindSchedule, 1, &scheduleV1{
		AccountID:       "alice",
		StartTimestamp:  1000,
		ReleaseInterval: 60,
		ReleaseRounds:   12,
		LastClaimRound:  3,
		ReleasePerRound: "250",
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	s, err := DecodeSchedule(data)
	if err != nil {
		t.Fatalf("DecodeSchedule: %v", err)
	}
	if s.Beneficiary != "alice" || s.PeriodLength != 60 || s.PeriodCount != 12 || s.PeriodsClaimed != 3 {
		t.Errorf("unexpected upgrade result: %+v", s)
	}
	if !s.ClaimedAmount.Equal(types.NewAmount(750)) {
		t.Errorf("ClaimedAmount = %s, want 750", s.ClaimedAmount)
	}
	if s.Funding != nil {
		t.Error("v1 records carry no per-account funding")
	}

	current, err := Current(data)
	if err != nil || current {
		t.Errorf("Current(v1) = %v, %v; want false", current, err)
	}
}

func TestScheduleFundingPresenceSurvivesEncoding(t *testing.T) {
	tests := []struct {
		name    string
		funding *schedule.Funding
	}{
		{"pool-wide", nil},
		{"per-account", &schedule.Funding{Balance: types.NewAmount(0), Deposited: types.NewAmount(400)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &schedule.Schedule{Beneficiary: "bob", PeriodLength: 1, PeriodCount: 1, AmountPerPeriod: types.NewAmount(1), Funding: tt.funding}
			data, err := EncodeSchedule(in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := DecodeSchedule(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if (out.Funding == nil) != (tt.funding == nil) {
				t.Fatalf("funding presence changed: %+v", out.Funding)
			}
			if tt.funding != nil && !out.Funding.Deposited.Equal(tt.funding.Deposited) {
				t.Errorf("Deposited = %s", out.Funding.Deposited)
			}
		})
	}
}

func TestDecodeRejectsWrongKindAndVersion(t *testing.T) {
	poolData, err := EncodePool(&pool.Pool{Mode: pool.ModePoolWide})
	if err != nil {
		t.Fatalf("encode pool: %v", err)
	}
	if _, err := DecodeSchedule(poolData); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("DecodeSchedule(pool) = %v, want ErrKindMismatch", err)
	}

	future, err := seal(KindClaim, 9, &claimV1{})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := DecodeClaim(future); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("DecodeClaim(v9) = %v, want ErrUnknownVersion", err)
	}
}

func TestClaimRecordKeepsIdentity(t *testing.T) {
	c := claim.New(claim.KindClaim, "alice", types.NewAmount(200), 2, 300)
	c.State = claim.StatePending
	data, err := EncodeClaim(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeClaim(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID.String() != c.ID.String() || out.State != claim.StatePending || out.Periods != 2 {
		t.Errorf("decoded claim differs: %+v", out)
	}
}

func TestPoolReleaseOptional(t *testing.T) {
	in := &pool.Pool{
		Mode:        pool.ModePoolWide,
		TotalFunded: types.MustParseAmount("100000000000000000000000000"),
		Release:     &pool.Release{StartTime: 5, Interval: 10, Rounds: 3},
	}
	data, err := EncodePool(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodePool(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Release == nil || out.Release.Rounds != 3 || !out.TotalFunded.Equal(in.TotalFunded) {
		t.Errorf("decoded pool differs: %+v", out)
	}
}

package record

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

type claimV1 struct {
	ID          string `msgpack:"id"`
	Kind        string `msgpack:"kind"`
	Beneficiary string `msgpack:"beneficiary"`
	Amount      string `msgpack:"amount"`
	Periods     uint32 `msgpack:"periods"`
	State       string `msgpack:"state"`
	Memo        string `msgpack:"memo,omitempty"`
	RequestedAt uint64 `msgpack:"requested_at"`
	ResolvedAt  uint64 `msgpack:"resolved_at,omitempty"`
}

func EncodeClaim(c *claim.Claim) ([]byte, error) {
	return seal(KindClaim, ClaimVersion, &claimV1{
		ID:          c.ID.String(),
		Kind:        string(c.Kind),
		Beneficiary: c.Beneficiary,
		Amount:      c.Amount.String(),
		Periods:     c.Periods,
		State:       string(c.State),
		Memo:        c.Memo,
		RequestedAt: uint64(c.RequestedAt),
		ResolvedAt:  uint64(c.ResolvedAt),
	})
}

func DecodeClaim(data []byte) (*claim.Claim, error) {
	env, err := open(data, KindClaim)
	if err != nil {
		return nil, err
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("%w: claim v%d", ErrUnknownVersion, env.Version)
	}

	var m claimV1
	if err := msgpack.Unmarshal(env.Payload, &m); err != nil {
		return nil, fmt.Errorf("record: decode claim: %w", err)
	}
	cid, err := id.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := amountOrZero(m.Amount)
	if err != nil {
		return nil, err
	}
	return &claim.Claim{
		ID:          cid,
		Kind:        claim.Kind(m.Kind),
		Beneficiary: m.Beneficiary,
		Amount:      amount,
		Periods:     m.Periods,
		State:       claim.State(m.State),
		Memo:        m.Memo,
		RequestedAt: types.Timestamp(m.RequestedAt),
		ResolvedAt:  types.Timestamp(m.ResolvedAt),
	}, nil
}

// Package claim models a release that has been debited from the ledger and
// is waiting for its token transfer to be reconciled.
package claim

import (
	"fmt"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

type Kind string

const (
	// KindClaim is a beneficiary claiming due periods.
	KindClaim Kind = "claim"
	// KindPayment is an administrator paying out of pool liquidity.
	KindPayment Kind = "payment"
)

type State string

const (
	StateRequested  State = "requested"
	StateReserved   State = "reserved"
	StatePending    State = "pending"
	StateSettled    State = "settled"
	StateRolledBack State = "rolled_back"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateRolledBack
}

var transitions = map[State][]State{
	StateRequested: {StateReserved},
	StateReserved:  {StatePending},
	StatePending:   {StateSettled, StateRolledBack},
}

type Claim struct {
	ID          id.ID           `json:"id"`
	Kind        Kind            `json:"kind"`
	Beneficiary string          `json:"beneficiary"`
	Amount      types.Amount    `json:"amount"`
	Periods     uint32          `json:"periods"`
	State       State           `json:"state"`
	Memo        string          `json:"memo,omitempty"`
	RequestedAt types.Timestamp `json:"requested_at"`
	ResolvedAt  types.Timestamp `json:"resolved_at,omitempty"`
}

// New returns a claim in the requested state.
func New(kind Kind, beneficiary string, amount types.Amount, periods uint32, now types.Timestamp) *Claim {
	cid := id.NewClaimID()
	if kind == KindPayment {
		cid = id.NewPaymentID()
	}
	return &Claim{
		ID:          cid,
		Kind:        kind,
		Beneficiary: beneficiary,
		Amount:      amount,
		Periods:     periods,
		State:       StateRequested,
		RequestedAt: now,
	}
}

// Advance moves the claim to next, rejecting transitions the saga does not allow.
func (c *Claim) Advance(next State) error {
	for _, allowed := range transitions[c.State] {
		if allowed == next {
			c.State = next
			return nil
		}
	}
	return fmt.Errorf("claim: %s cannot move from %s to %s", c.ID, c.State, next)
}

// Resolve moves a pending claim to settled or rolled back.
func (c *Claim) Resolve(success bool, now types.Timestamp) error {
	next := StateRolledBack
	if success {
		next = StateSettled
	}
	if err := c.Advance(next); err != nil {
		return err
	}
	c.ResolvedAt = now
	return nil
}

type ListOpts struct {
	Limit  int
	Offset int
}

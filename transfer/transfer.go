// Package transfer describes the asynchronous token transfer the vault
// requests after debiting its ledger, and the outcome it later reconciles.
package transfer

import (
	"context"
	"errors"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/types"
)

// ErrUnavailable is returned when a request cannot be accepted at all.
var ErrUnavailable = errors.New("transfer: service unavailable")

// Continuation is carried through the transfer and handed back with its
// outcome so the vault can settle or compensate exactly what it debited.
type Continuation struct {
	ClaimID     string       `json:"claim_id"`
	Kind        claim.Kind   `json:"kind"`
	Beneficiary string       `json:"beneficiary"`
	Amount      types.Amount `json:"amount"`
}

type Request struct {
	Recipient    string       `json:"recipient"`
	Amount       types.Amount `json:"amount"`
	Memo         string       `json:"memo,omitempty"`
	Continuation Continuation `json:"continuation"`
}

type Outcome struct {
	Continuation Continuation `json:"continuation"`
	Success      bool         `json:"success"`
	Reason       string       `json:"reason,omitempty"`
}

// Service issues transfers. RequestTransfer must not block on, or call back
// into, the vault; the outcome is delivered later as a separate call.
// A returned error means the transfer was never issued.
type Service interface {
	RequestTransfer(ctx context.Context, req Request) error
}

// ReconcileFunc delivers an outcome back to the vault.
type ReconcileFunc func(ctx context.Context, out Outcome) error

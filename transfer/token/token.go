// Package token is an in-process fungible token used to run the vault
// without an external chain: balances, account registration, plain
// transfers and transfer-with-notification.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/vesting/types"
)

var (
	ErrNotRegistered       = errors.New("token: account not registered")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrZeroAmount          = errors.New("token: amount must be positive")
)

// Receiver is notified by TransferCall after the tokens arrive. A returned
// error refunds the sender.
type Receiver interface {
	OnTransfer(ctx context.Context, token, sender string, amount types.Amount, msg string) error
}

type Token struct {
	mu       sync.Mutex
	id       string
	balances map[string]types.Amount
	supply   types.Amount
}

// New creates a token whose own account identity is accountID.
func New(accountID string) *Token {
	return &Token{
		id:       accountID,
		balances: make(map[string]types.Amount),
		supply:   types.ZeroAmount(),
	}
}

// ID returns the token's account identity; deposits are only accepted from it.
func (t *Token) ID() string { return t.id }

// Register opens a zero balance for account. Registering twice is a no-op.
func (t *Token) Register(account string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.balances[account]; !ok {
		t.balances[account] = types.ZeroAmount()
	}
}

// Mint registers account if needed and credits it.
func (t *Token) Mint(account string, amount types.Amount) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = t.balances[account].Add(amount)
	t.supply = t.supply.Add(amount)
}

func (t *Token) BalanceOf(account string) types.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

func (t *Token) TotalSupply() types.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply
}

// Transfer moves amount from one registered account to another.
func (t *Token) Transfer(from, to string, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *Token) move(from, to string, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrZeroAmount
	}
	src, ok := t.balances[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, from)
	}
	dst, ok := t.balances[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, to)
	}
	if src.LT(amount) {
		return fmt.Errorf("%w: %s has %s", ErrInsufficientBalance, from, src)
	}
	t.balances[from] = src.Sub(amount)
	t.balances[to] = dst.Add(amount)
	return nil
}

// TransferCall moves amount to receiverID and notifies r. If r rejects the
// deposit the tokens are returned to from and r's error is returned.
func (t *Token) TransferCall(ctx context.Context, from, receiverID string, amount types.Amount, msg string, r Receiver) error {
	if err := t.Transfer(from, receiverID, amount); err != nil {
		return err
	}
	if err := r.OnTransfer(ctx, t.id, from, amount, msg); err != nil {
		if refundErr := t.Transfer(receiverID, from, amount); refundErr != nil {
			return errors.Join(err, fmt.Errorf("token: refund failed: %w", refundErr))
		}
		return err
	}
	return nil
}

// Package ledger persists vault state through a store overlay: schedules
// keyed by beneficiary, the pool singleton, and in-flight claims.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/record"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
)

// KV is the read/write surface the ledger needs. *store.Tx satisfies it.
type KV interface {
	store.Reader
	Put(key string, value []byte)
	Delete(key string)
}

var _ KV = (*store.Tx)(nil)

// ErrPoolMissing is returned by Pool before initialization.
var ErrPoolMissing = errors.New("ledger: pool not initialized")

type Ledger struct {
	kv KV
}

func New(kv KV) *Ledger {
	return &Ledger{kv: kv}
}

// ──────────────────────────────────────────────────
// Schedules
// ──────────────────────────────────────────────────

// Get returns the schedule for beneficiary and whether it exists.
func (l *Ledger) Get(ctx context.Context, beneficiary string) (*schedule.Schedule, bool, error) {
	data, err := l.kv.Get(ctx, record.ScheduleKey(beneficiary))
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ledger: get schedule %s: %w", beneficiary, err)
	}
	s, err := record.DecodeSchedule(data)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Upsert writes s unconditionally.
func (l *Ledger) Upsert(s *schedule.Schedule) error {
	data, err := record.EncodeSchedule(s)
	if err != nil {
		return err
	}
	l.kv.Put(record.ScheduleKey(s.Beneficiary), data)
	return nil
}

// Remove deletes the schedule and returns the removed value, if any.
func (l *Ledger) Remove(ctx context.Context, beneficiary string) (*schedule.Schedule, error) {
	s, ok, err := l.Get(ctx, beneficiary)
	if err != nil || !ok {
		return nil, err
	}
	l.kv.Delete(record.ScheduleKey(beneficiary))
	return s, nil
}

// List returns schedules in insertion order.
func (l *Ledger) List(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	entries, err := l.kv.Scan(ctx, record.SchedulePrefix, opts.Offset, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list schedules: %w", err)
	}
	result := make([]*schedule.Schedule, 0, len(entries))
	for _, e := range entries {
		s, err := record.DecodeSchedule(e.Value)
		if err != nil {
			return nil, fmt.Errorf("ledger: %s: %w", e.Key, err)
		}
		result = append(result, s)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Pool
// ──────────────────────────────────────────────────

func (l *Ledger) Pool(ctx context.Context) (*pool.Pool, error) {
	data, err := l.kv.Get(ctx, record.PoolKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPoolMissing
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get pool: %w", err)
	}
	return record.DecodePool(data)
}

func (l *Ledger) SavePool(p *pool.Pool) error {
	data, err := record.EncodePool(p)
	if err != nil {
		return err
	}
	l.kv.Put(record.PoolKey, data)
	return nil
}

// ──────────────────────────────────────────────────
// In-flight claims
// ──────────────────────────────────────────────────

// Claim returns the in-flight claim with the given id and whether it exists.
func (l *Ledger) Claim(ctx context.Context, claimID string) (*claim.Claim, bool, error) {
	data, err := l.kv.Get(ctx, record.ClaimKey(claimID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ledger: get claim %s: %w", claimID, err)
	}
	c, err := record.DecodeClaim(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (l *Ledger) PutClaim(c *claim.Claim) error {
	data, err := record.EncodeClaim(c)
	if err != nil {
		return err
	}
	l.kv.Put(record.ClaimKey(c.ID.String()), data)
	return nil
}

func (l *Ledger) DeleteClaim(claimID string) {
	l.kv.Delete(record.ClaimKey(claimID))
}

// Claims returns in-flight claims in request order.
func (l *Ledger) Claims(ctx context.Context, opts claim.ListOpts) ([]*claim.Claim, error) {
	entries, err := l.kv.Scan(ctx, record.ClaimPrefix, opts.Offset, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list claims: %w", err)
	}
	result := make([]*claim.Claim, 0, len(entries))
	for _, e := range entries {
		c, err := record.DecodeClaim(e.Value)
		if err != nil {
			return nil, fmt.Errorf("ledger: %s: %w", e.Key, err)
		}
		result = append(result, c)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Schema upgrades
// ──────────────────────────────────────────────────

// UpgradeAll rewrites every record stored below the known prefixes that is
// not at its current schema version and returns how many were rewritten.
func (l *Ledger) UpgradeAll(ctx context.Context) (int, error) {
	upgraded := 0
	for _, prefix := range []string{record.PoolKey, record.SchedulePrefix, record.ClaimPrefix} {
		entries, err := l.kv.Scan(ctx, prefix, 0, 0)
		if err != nil {
			return upgraded, fmt.Errorf("ledger: upgrade scan %s: %w", prefix, err)
		}
		for _, e := range entries {
			current, err := record.Current(e.Value)
			if err != nil {
				return upgraded, fmt.Errorf("ledger: %s: %w", e.Key, err)
			}
			if current {
				continue
			}
			if err := l.rewrite(e); err != nil {
				return upgraded, fmt.Errorf("ledger: upgrade %s: %w", e.Key, err)
			}
			upgraded++
		}
	}
	return upgraded, nil
}

func (l *Ledger) rewrite(e store.Entry) error {
	kind, _, err := record.Peek(e.Value)
	if err != nil {
		return err
	}
	switch kind {
	case record.KindPool:
		p, err := record.DecodePool(e.Value)
		if err != nil {
			return err
		}
		return l.SavePool(p)
	case record.KindSchedule:
		s, err := record.DecodeSchedule(e.Value)
		if err != nil {
			return err
		}
		return l.Upsert(s)
	case record.KindClaim:
		c, err := record.DecodeClaim(e.Value)
		if err != nil {
			return err
		}
		return l.PutClaim(c)
	}
	return fmt.Errorf("%w: %s", record.ErrKindMismatch, kind)
}

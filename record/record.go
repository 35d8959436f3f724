// Package record encodes vault state into versioned msgpack envelopes.
//
// Every stored value is an envelope naming its kind and schema version.
// Decoders accept every version they know and upgrade it to the current
// in-memory shape, so old records stay readable without a bulk migration.
package record

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/types"
)

type Kind string

const (
	KindPool     Kind = "pool"
	KindSchedule Kind = "schedule"
	KindClaim    Kind = "claim"
)

// Current schema versions.
const (
	PoolVersion     uint16 = 1
	ScheduleVersion uint16 = 2
	ClaimVersion    uint16 = 1
)

// Store key layout.
const (
	PoolKey        = "meta/pool"
	SchedulePrefix = "schedule/"
	ClaimPrefix    = "claim/"
)

var (
	ErrKindMismatch   = errors.New("record: kind mismatch")
	ErrUnknownVersion = errors.New("record: unknown schema version")
)

func ScheduleKey(beneficiary string) string { return SchedulePrefix + beneficiary }

func ClaimKey(claimID string) string { return ClaimPrefix + claimID }

type envelope struct {
	Kind    Kind               `msgpack:"kind"`
	Version uint16             `msgpack:"version"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

func seal(kind Kind, version uint16, payload any) ([]byte, error) {
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("record: encode %s payload: %w", kind, err)
	}
	data, err := msgpack.Marshal(&envelope{Kind: kind, Version: version, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("record: encode %s envelope: %w", kind, err)
	}
	return data, nil
}

func open(data []byte, kind Kind) (*envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("record: decode envelope: %w", err)
	}
	if env.Kind != kind {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, kind, env.Kind)
	}
	return &env, nil
}

// Peek returns the kind and version of an encoded record.
func Peek(data []byte) (Kind, uint16, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return "", 0, fmt.Errorf("record: decode envelope: %w", err)
	}
	return env.Kind, env.Version, nil
}

// Current reports whether data is already at its kind's current version.
func Current(data []byte) (bool, error) {
	kind, version, err := Peek(data)
	if err != nil {
		return false, err
	}
	switch kind {
	case KindPool:
		return version == PoolVersion, nil
	case KindSchedule:
		return version == ScheduleVersion, nil
	case KindClaim:
		return version == ClaimVersion, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrKindMismatch, kind)
	}
}

func amountOrZero(s string) (types.Amount, error) {
	if s == "" {
		return types.ZeroAmount(), nil
	}
	return types.ParseAmount(s)
}

package vesting

import (
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/types"
)

// Re-export common types so callers rarely need the types and pool packages.

// Amount is re-exported from types package.
type Amount = types.Amount

// Timestamp is re-exported from types package.
type Timestamp = types.Timestamp

// Mode is re-exported from pool package.
type Mode = pool.Mode

// Release is re-exported from pool package.
type Release = pool.Release

const (
	ModePerAccount = pool.ModePerAccount
	ModePoolWide   = pool.ModePoolWide
)

// Re-export Amount constructors
var (
	NewAmount       = types.NewAmount
	ZeroAmount      = types.ZeroAmount
	ParseAmount     = types.ParseAmount
	MustParseAmount = types.MustParseAmount
	FromTime        = types.FromTime
)

// Package types provides value types shared across the vesting packages.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
)

// AmountBits is the width of a token amount. Intermediate products are
// computed at sdkmath.MaxBitLen so multiply-before-divide never truncates.
const AmountBits = 128

// ErrAmountRange is returned when a value does not fit an unsigned 128-bit amount.
var ErrAmountRange = errors.New("amount: value out of range")

// Amount is an unsigned token quantity in the token's smallest unit.
// All arithmetic is exact integer arithmetic; the zero value is 0.
type Amount struct {
	i sdkmath.Int
}

// NewAmount returns an Amount holding v.
func NewAmount(v uint64) Amount { return Amount{i: sdkmath.NewIntFromUint64(v)} }

// ZeroAmount returns 0.
func ZeroAmount() Amount { return Amount{i: sdkmath.ZeroInt()} }

// ParseAmount parses a base-10 string. Negative values and values wider than
// 128 bits are rejected.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("amount: parse %q: empty string", s)
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: not an integer", s)
	}
	return fromInt(v)
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func fromInt(v sdkmath.Int) (Amount, error) {
	if v.IsNegative() || v.BigInt().BitLen() > AmountBits {
		return Amount{}, fmt.Errorf("%w: %s", ErrAmountRange, v)
	}
	return Amount{i: v}, nil
}

func (a Amount) val() sdkmath.Int {
	if a.i.IsNil() {
		return sdkmath.ZeroInt()
	}
	return a.i
}

// Int returns the underlying sdkmath.Int.
func (a Amount) Int() sdkmath.Int { return a.val() }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{i: a.val().Add(b.val())} }

// Sub returns a - b. It panics when b > a; callers check liquidity first.
func (a Amount) Sub(b Amount) Amount {
	if a.LT(b) {
		panic(fmt.Sprintf("amount: %s - %s underflows", a, b))
	}
	return Amount{i: a.val().Sub(b.val())}
}

// SubFloor returns a - b, or 0 when b > a.
func (a Amount) SubFloor(b Amount) Amount {
	if a.LTE(b) {
		return ZeroAmount()
	}
	return Amount{i: a.val().Sub(b.val())}
}

// MulUint64 returns a * n.
func (a Amount) MulUint64(n uint64) Amount {
	return Amount{i: a.val().Mul(sdkmath.NewIntFromUint64(n))}
}

// CheckedAdd returns a + b, or ErrAmountRange when the sum does not fit
// AmountBits.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	return fromInt(a.val().Add(b.val()))
}

// CheckedMulUint64 returns a * n, or ErrAmountRange when the product does
// not fit AmountBits.
func (a Amount) CheckedMulUint64(n uint64) (Amount, error) {
	return fromInt(a.val().Mul(sdkmath.NewIntFromUint64(n)))
}

// Fits reports whether a can be stored, i.e. is at most AmountBits wide.
func (a Amount) Fits() bool {
	return a.val().BigInt().BitLen() <= AmountBits
}

// Quo returns floor(a / b). It panics when b is zero.
func (a Amount) Quo(b Amount) Amount {
	if b.IsZero() {
		panic("amount: division by zero")
	}
	return Amount{i: a.val().Quo(b.val())}
}

// MulDiv returns floor(a * num / den) with a full-width intermediate.
func (a Amount) MulDiv(num, den uint64) Amount {
	if den == 0 {
		panic("amount: division by zero")
	}
	p := a.val().Mul(sdkmath.NewIntFromUint64(num))
	return Amount{i: p.Quo(sdkmath.NewIntFromUint64(den))}
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.LTE(b) {
		return a
	}
	return b
}

// Uint64 returns a as a uint64 and whether it fit.
func (a Amount) Uint64() (uint64, bool) {
	v := a.val()
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.val().IsZero() }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.val().IsPositive() }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.val().Equal(b.val()) }

// LT reports whether a < b.
func (a Amount) LT(b Amount) bool { return a.val().LT(b.val()) }

// LTE reports whether a <= b.
func (a Amount) LTE(b Amount) bool { return a.val().LTE(b.val()) }

// GT reports whether a > b.
func (a Amount) GT(b Amount) bool { return a.val().GT(b.val()) }

// String returns the base-10 representation.
func (a Amount) String() string { return a.val().String() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so values above 2^53
// survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		return a.UnmarshalText([]byte(s))
	}
	return a.UnmarshalText(data)
}

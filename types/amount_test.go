package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected string
	}{
		{"Add", func() Amount { return NewAmount(100).Add(NewAmount(200)) }, "300"},
		{"Sub", func() Amount { return NewAmount(500).Sub(NewAmount(200)) }, "300"},
		{"SubFloor below zero", func() Amount { return NewAmount(5).SubFloor(NewAmount(9)) }, "0"},
		{"MulUint64", func() Amount { return NewAmount(100).MulUint64(4) }, "400"},
		{"Quo floors", func() Amount { return NewAmount(250).Quo(NewAmount(100)) }, "2"},
		{"MulDiv", func() Amount { return NewAmount(10000).MulDiv(3, 10) }, "3000"},
		{"Zero value adds", func() Amount { var z Amount; return z.Add(NewAmount(7)) }, "7"},
		{"Min", func() Amount { return NewAmount(9).Min(NewAmount(4)) }, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op().String(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAmountMulDivWideIntermediate(t *testing.T) {
	// (2^128 - 1) * 7 overflows 128 bits before the division brings it back.
	max128 := MustParseAmount("340282366920938463463374607431768211455")
	got := max128.MulDiv(7, 7)
	if !got.Equal(max128) {
		t.Errorf("got %s, want %s", got, max128)
	}
}

func TestAmountCheckedArithmetic(t *testing.T) {
	max128 := MustParseAmount("340282366920938463463374607431768211455")

	if _, err := max128.CheckedAdd(NewAmount(1)); !errors.Is(err, ErrAmountRange) {
		t.Errorf("CheckedAdd past 128 bits: err = %v, want ErrAmountRange", err)
	}
	if got, err := max128.Sub(NewAmount(1)).CheckedAdd(NewAmount(1)); err != nil || !got.Equal(max128) {
		t.Errorf("CheckedAdd at the limit = %s, %v", got, err)
	}
	if _, err := max128.CheckedMulUint64(2); !errors.Is(err, ErrAmountRange) {
		t.Errorf("CheckedMulUint64 past 128 bits: err = %v, want ErrAmountRange", err)
	}
	if got, err := NewAmount(100).CheckedMulUint64(4); err != nil || got.String() != "400" {
		t.Errorf("CheckedMulUint64 = %s, %v", got, err)
	}
	if !max128.Fits() || max128.Add(NewAmount(1)).Fits() {
		t.Error("Fits disagrees with AmountBits")
	}
}

func TestAmountSubUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on underflow")
		}
	}()
	NewAmount(1).Sub(NewAmount(2))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0", false},
		{"1000000000000000000000000", false},
		{"340282366920938463463374607431768211455", false},
		{"340282366920938463463374607431768211456", true},
		{"-1", true},
		{"", true},
		{"12a", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAmount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}

	if _, err := ParseAmount("-5"); !errors.Is(err, ErrAmountRange) {
		t.Errorf("expected ErrAmountRange, got %v", err)
	}
}

func TestAmountComparison(t *testing.T) {
	a, b := NewAmount(3), NewAmount(5)
	if !a.LT(b) || !a.LTE(b) || a.GT(b) {
		t.Error("3 should be less than 5")
	}
	if !a.LTE(NewAmount(3)) || !a.Equal(NewAmount(3)) {
		t.Error("3 should equal 3")
	}
	var zero Amount
	if !zero.IsZero() || zero.IsPositive() {
		t.Error("zero value should be zero")
	}
	if v, ok := NewAmount(42).Uint64(); !ok || v != 42 {
		t.Errorf("Uint64 = %d, %v", v, ok)
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Amount `json:"a"`
	}{A: MustParseAmount("18446744073709551616")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"18446744073709551616"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var out struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12","b":34}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.A.String() != "12" || out.B.String() != "34" {
		t.Errorf("got a=%s b=%s", out.A, out.B)
	}
}

func TestTimestampSince(t *testing.T) {
	if got := Timestamp(250).Since(100); got != 150 {
		t.Errorf("Since = %d, want 150", got)
	}
	if got := Timestamp(50).Since(100); got != 0 {
		t.Errorf("Since before start = %d, want 0", got)
	}
}

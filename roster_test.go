package main

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewRosterCapacity(t *testing.T) {
	seed := make([]VehicleRecord, RosterCapacity+1)
	for i := range seed {
		seed[i] = VehicleRecord{Tag: TagID{0, 0, 0, byte(i)}}
	}
	if _, err := NewRoster(seed...); err == nil {
		t.Fatal("roster accepted 11 vehicles")
	}
	r, err := NewRoster(seed[:RosterCapacity]...)
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	if r.Len() != RosterCapacity {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestRosterZeroTagIsARealTag(t *testing.T) {
	r, _ := NewRoster()
	if _, ok := r.Find(TagID{}); ok {
		t.Fatal("empty roster matched the zero tag")
	}
	slot, err := r.Register(TagID{}, decimal.NewFromInt(1000))
	if err != nil || slot != 0 {
		t.Fatalf("Register zero tag: slot %d err %v", slot, err)
	}
	if i, ok := r.Find(TagID{}); !ok || i != 0 {
		t.Errorf("Find zero tag = %d, %v", i, ok)
	}
	// The slot holding the zero tag is occupied.
	slot, _ = r.Register(TagID{1, 2, 3, 4}, decimal.NewFromInt(1000))
	if slot != 1 {
		t.Errorf("next registration went to slot %d, want 1", slot)
	}
}

func TestRosterRegisterDefaults(t *testing.T) {
	r, _ := NewRoster()
	tag := TagID{0x11, 0x22, 0x33, 0x44}
	slot, err := r.Register(tag, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := r.Get(slot)
	if !ok || rec.Tag != tag || !rec.Balance.Equal(decimal.NewFromInt(1000)) || rec.Blacklisted {
		t.Errorf("registered record = %+v", rec)
	}
}

func TestRosterRegisterFull(t *testing.T) {
	r, _ := NewRoster()
	for i := 0; i < RosterCapacity; i++ {
		if _, err := r.Register(TagID{byte(i)}, decimal.Zero); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	before := r.Occupied()
	slot, err := r.Register(TagID{0xFF}, decimal.Zero)
	if !errors.Is(err, ErrRosterFull) || slot != -1 {
		t.Fatalf("slot %d err %v, want ErrRosterFull", slot, err)
	}
	after := r.Occupied()
	for i := range before {
		if before[i].Record.Tag != after[i].Record.Tag {
			t.Errorf("slot %d changed", i)
		}
	}
}

func TestRosterDebit(t *testing.T) {
	r, _ := NewRoster(VehicleRecord{Tag: TagID{1}, Balance: decimal.RequireFromString("150.00")})
	toll := decimal.NewFromInt(100)

	rec, err := r.Debit(0, toll)
	if err != nil || !rec.Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("first debit: %s, %v", rec.Balance, err)
	}
	rec, err = r.Debit(0, toll)
	if !errors.Is(err, ErrInsufficientBalance) || !rec.Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("second debit: %s, %v", rec.Balance, err)
	}
	if _, err := r.Debit(5, toll); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("debit of empty slot: %v", err)
	}
}

func TestRosterDebitHasNoRoundingDrift(t *testing.T) {
	r, _ := NewRoster(VehicleRecord{Tag: TagID{1}, Balance: decimal.NewFromInt(1)})
	toll := decimal.RequireFromString("0.1")
	for i := 0; i < 10; i++ {
		if _, err := r.Debit(0, toll); err != nil {
			t.Fatalf("debit %d: %v", i, err)
		}
	}
	rec, _ := r.Get(0)
	if !rec.Balance.IsZero() {
		t.Errorf("balance after ten 0.1 debits = %s, want 0", rec.Balance)
	}
}

func TestRosterFindFirstMatch(t *testing.T) {
	tag := TagID{0xAA, 0xBB, 0xCC, 0xDD}
	r, _ := NewRoster(
		VehicleRecord{Tag: TagID{1}},
		VehicleRecord{Tag: tag, Balance: decimal.NewFromInt(1)},
		VehicleRecord{Tag: tag, Balance: decimal.NewFromInt(2)},
	)
	if i, ok := r.Find(tag); !ok || i != 1 {
		t.Errorf("Find = %d, %v, want 1", i, ok)
	}
	if _, ok := r.Get(-1); ok {
		t.Error("Get(-1) ok")
	}
	if _, ok := r.Get(RosterCapacity); ok {
		t.Error("Get(capacity) ok")
	}
}

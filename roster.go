package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RosterCapacity is the number of vehicle slots.
const RosterCapacity = 10

var (
	// ErrUnknownTag is returned when a scanned tag matches no roster entry.
	ErrUnknownTag = errors.New("unknown vehicle")
	// ErrInsufficientBalance is returned when a vehicle cannot pay the toll.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrRosterFull is returned when registration finds no empty slot.
	ErrRosterFull = errors.New("no space for new vehicle")
	// ErrBlacklisted is returned for blacklisted vehicles when the blacklist
	// is enforced.
	ErrBlacklisted = errors.New("vehicle blacklisted")
)

// Roster is the fixed-capacity, index-addressed set of known vehicles.  A nil
// slot is empty; no tag value is reserved to mark emptiness.
type Roster struct {
	slots [RosterCapacity]*VehicleRecord
}

// NewRoster returns a roster with the given records placed in slots 0..n-1.
func NewRoster(seed ...VehicleRecord) (*Roster, error) {
	if len(seed) > RosterCapacity {
		return nil, fmt.Errorf("%d seed vehicles exceed roster capacity %d", len(seed), RosterCapacity)
	}
	r := &Roster{}
	for i, rec := range seed {
		rec := rec
		r.slots[i] = &rec
	}
	return r, nil
}

// Find returns the index of the first slot holding tag.
func (r *Roster) Find(tag TagID) (int, bool) {
	for i, rec := range r.slots {
		if rec != nil && rec.Tag == tag {
			return i, true
		}
	}
	return -1, false
}

// Get returns a copy of the record in slot i.
func (r *Roster) Get(i int) (VehicleRecord, bool) {
	if i < 0 || i >= RosterCapacity || r.slots[i] == nil {
		return VehicleRecord{}, false
	}
	return *r.slots[i], true
}

// Len returns the number of occupied slots.
func (r *Roster) Len() int {
	n := 0
	for _, rec := range r.slots {
		if rec != nil {
			n++
		}
	}
	return n
}

// Register stores a new record in the lowest empty slot and returns its
// index.  Tags already on the roster are not checked: registering one again
// creates a second entry.
func (r *Roster) Register(tag TagID, balance decimal.Decimal) (int, error) {
	for i, rec := range r.slots {
		if rec == nil {
			r.slots[i] = &VehicleRecord{Tag: tag, Balance: balance}
			return i, nil
		}
	}
	return -1, ErrRosterFull
}

// Debit deducts amount from slot i and returns the updated record.  The
// balance is left untouched and ErrInsufficientBalance returned when it is
// below amount.
func (r *Roster) Debit(i int, amount decimal.Decimal) (VehicleRecord, error) {
	if i < 0 || i >= RosterCapacity || r.slots[i] == nil {
		return VehicleRecord{}, ErrUnknownTag
	}
	rec := r.slots[i]
	if rec.Balance.LessThan(amount) {
		return *rec, ErrInsufficientBalance
	}
	rec.Balance = rec.Balance.Sub(amount)
	return *rec, nil
}

// Slot pairs a roster index with its record.
type Slot struct {
	Index  int
	Record VehicleRecord
}

// Occupied lists the occupied slots in index order.
func (r *Roster) Occupied() []Slot {
	var out []Slot
	for i, rec := range r.slots {
		if rec != nil {
			out = append(out, Slot{Index: i, Record: *rec})
		}
	}
	return out
}

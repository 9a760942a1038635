package stm

import "golang.org/x/sys/cpu"

// lockTableSize is L from spec.md §3: a fixed 2^22-entry table of
// versioned ownership locks.
const lockTableSize = 1 << 22

const lockTableMask = lockTableSize - 1

// lockStripe groups a handful of lock slots behind a cache-line pad so
// that hot, frequently-CAS'd neighboring slots don't bounce the same
// cache line between cores. Each stripe covers lockStripeWidth addresses'
// worth of lock slots.
const lockStripeWidth = 8

type lockStripe struct {
	slots [lockStripeWidth]lockSlot
	_     cpu.CacheLinePad
}

// lockTable is the fixed-size array of versioned ownership locks spec.md
// §4.1 describes. Every shared Var is covered by exactly one slot,
// selected by hashing the Var's address; many Vars share a slot (false
// sharing of lock coverage is intentional, see spec.md §9).
type lockTable struct {
	stripes []lockStripe
}

func newLockTable() *lockTable {
	t := &lockTable{
		stripes: make([]lockStripe, lockTableSize/lockStripeWidth),
	}
	t.reset()
	return t
}

func (t *lockTable) reset() {
	for i := range t.stripes {
		for j := range t.stripes[i].slots {
			t.stripes[i].slots[j].reset()
		}
	}
}

// lockOf returns a stable pointer into the table for the given address,
// selected via (addr>>5)&(L-1): a 32-byte stripe of addresses shares one
// lock.
func (t *lockTable) lockOf(addr uintptr) *lockSlot {
	idx := (addr >> 5) & lockTableMask
	stripe := &t.stripes[idx/lockStripeWidth]
	return &stripe.slots[idx%lockStripeWidth]
}

// probe returns the current lock word without modifying it.
func (t *lockTable) probe(addr uintptr) lockWord {
	return t.lockOf(addr).load()
}

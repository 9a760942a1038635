package stm

import (
	"sync/atomic"
	"unsafe"
)

// Var is a shared, word-sized memory location application code wants to
// access transactionally -- spec.md's "shared word". Go has no portable
// equivalent of a raw `volatile stm_word_t *addr`, so a Var's own address
// stands in for the word's address: the lock table hashes
// uintptr(unsafe.Pointer(v)) to find the lock covering it (see
// SPEC_FULL.md Open Question 5). The word itself is stored behind an
// atomic so that a non-transactional peek/poke (the STM protocol's own
// bookkeeping, not application code) never races under Go's memory model.
type Var struct {
	raw atomic.Uint64
}

// NewVar creates a shared word initialized to v. Initialization happens
// outside any transaction.
func NewVar(v uint64) *Var {
	vr := &Var{}
	vr.raw.Store(v)
	return vr
}

func (v *Var) addr() uintptr {
	return uintptr(unsafe.Pointer(v))
}

func (v *Var) peek() uint64 {
	return v.raw.Load()
}

func (v *Var) poke(val uint64) {
	v.raw.Store(val)
}

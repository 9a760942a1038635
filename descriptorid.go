package stm

import "unsafe"

// descriptorID returns the stable identity of a transaction descriptor,
// used as the "owner reference" half of a lock word. A *Tx is always at
// least pointer-aligned, so its low bit is guaranteed to be 0 and can
// never be confused with a tagged version word (see lockword.go).
func descriptorID(tx *Tx) uintptr {
	return uintptr(unsafe.Pointer(tx))
}

// descriptorFromID is the inverse of descriptorID. The returned pointer is
// only ever dereferenced to compare identity (e.g. "is this my own lock")
// or to follow a waits-for edge while the referenced *Tx is known to be
// alive (it is reachable from the thread that owns it for as long as the
// lock table entry exists).
func descriptorFromID(id uintptr) *Tx {
	return (*Tx)(unsafe.Pointer(id)) //nolint:govet // identity recovery, see comment above
}

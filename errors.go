package stm

import "errors"

// ErrRetry is returned by Load, Store, Free, and Commit when a
// transaction cannot safely continue and must restart from Begin.
// Atomically and Run handle it internally; application code that drives a
// *Tx directly must check for it after every call (the same contract
// spec.md §7 describes for the long-jump it replaces) and stop running
// its transactional body immediately, the way the teacher's own tests
// check "if err != nil { return }" after every Load.
var ErrRetry = errors.New("stm: transaction conflict, retry")

// ErrNotActive is returned by Load, Store, Commit, and Free when called
// on a descriptor that is not currently ACTIVE.
var ErrNotActive = errors.New("stm: transaction is not active")

package stm

import "sync/atomic"

// txStatus is one of the five states a transaction descriptor cycles
// through over its lifetime (spec.md §3 "Lifecycle").
type txStatus int32

const (
	statusIdle txStatus = iota
	statusActive
	statusCommitted
	statusAborted
	statusWaiting
)

func (s txStatus) String() string {
	switch s {
	case statusIdle:
		return "idle"
	case statusActive:
		return "active"
	case statusCommitted:
		return "committed"
	case statusAborted:
		return "aborted"
	case statusWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// heldLock records a lock this transaction currently owns, together with
// the value the lock held immediately before it was acquired, so an
// abort can restore it verbatim.
type heldLock struct {
	slot    *lockSlot
	oldWord lockWord
}

// memBlock is one allocation/free tracked in a transaction's memory-action
// log; see txmem.go.
type memBlock struct {
	vars []*Var
}

// Tx is a per-thread transaction descriptor: spec.md §3's "Transaction
// descriptor". Application code does not construct one directly; it asks
// a Runtime for one (NewTx, recycled from the descriptor cache) and drives
// it through Begin/Load/Store/Commit/Retry/Abort, or lets Atomically/Run
// do that driving.
type Tx struct {
	rt *Runtime

	status atomic.Int32

	// maxVersion is the newest global-clock value this transaction is
	// known to be consistent with.
	maxVersion uint64

	reads  readSet
	writes writeSet
	locks  []heldLock

	allocated []*memBlock
	freed     []*memBlock

	// adaptive selectors and counters; these persist across Begin/Commit
	// cycles because a Tx is reused across many attempts by the same
	// thread (see the descriptor cache in descriptorcache.go).
	writeThrough    bool
	adaptiveHash    int
	whashSize       int
	adaptCommits    uint64
	adaptRetries    uint64
	whashCollisions uint64
	wtotal          uint64
	nrtx            uint64

	// conflict-manager state.
	waitingFor atomic.Pointer[Tx]
	yielded    int

	// descriptor-cache free-list link.
	cacheNext *Tx
}

// Status reports the transaction's current lifecycle state.
func (tx *Tx) Status() string {
	return txStatus(tx.status.Load()).String()
}

func newTx(rt *Runtime) *Tx {
	tx := &Tx{
		rt:           rt,
		writeThrough: true,
		whashSize:    wbufHashInitSize,
	}
	tx.status.Store(int32(statusIdle))
	return tx
}

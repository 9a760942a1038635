package stm

// readEntry is spec.md §3's read-buffer entry: the lock covering a loaded
// address, paired with the exact word observed in it at load time.
type readEntry struct {
	lock     *lockSlot
	observed lockWord
}

// readSet is the per-transaction, append-only, duplicate-tolerant
// sequence of readEntry values (spec.md §4.4). Its backing slice is
// reused across attempts ([:0] on reset) rather than reallocated, which
// gives it the same "grows by doubling, never shrinks" behavior the
// source's manually managed buffer has.
type readSet struct {
	entries []readEntry
}

func (r *readSet) reset() {
	r.entries = r.entries[:0]
}

func (r *readSet) append(lock *lockSlot, observed lockWord) {
	r.entries = append(r.entries, readEntry{lock: lock, observed: observed})
}

// validate re-reads every covered lock and requires that it still holds
// exactly the word observed at load time -- unless it is now held by self
// (an eager write to a different address sharing the same lock), which is
// never a conflict with this transaction's own reads.
func (r *readSet) validate(self *Tx) bool {
	for _, e := range r.entries {
		w := e.lock.load()
		if w == e.observed {
			continue
		}
		if !w.isVersion() && w.owner() == self {
			continue
		}
		return false
	}
	return true
}

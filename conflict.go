package stm

// maxYield is the per-lock yield budget: a transaction gives up and
// retries once it has yielded more than maxYield times against a single
// contended lock, so it yields at most maxYield+1 times (spec.md §4.6, §6
// MAX_YIELD=4).
const maxYield = 4

// maxDeadlockHops bounds the waits-for chain walk. spec.md does not
// require a bound (real deadlocks cycle back to the start quickly), but a
// corrupted or very long chain should not spin the detector forever.
const maxDeadlockHops = 4096

// contend is the shared back-off/dead-lock step used whenever tx finds a
// lock owned by another descriptor, whether it is trying to acquire the
// lock (a Store) or merely waiting for it to become readable (a Load).
// enteredWait tracks whether this call sequence has already transitioned
// tx into WAITING, so the yield budget is zeroed exactly once per distinct
// wait, not on every spin.
func (tx *Tx) contend(other *Tx, enteredWait *bool) error {
	if !*enteredWait {
		tx.status.Store(int32(statusWaiting))
		tx.waitingFor.Store(other)
		tx.yielded = 0
		*enteredWait = true
		if tx.rt.detectDeadlock(tx) {
			tx.endWait()
			tx.rt.counters.deadlocksDetected.Add(1)
			return ErrRetry
		}
	} else {
		tx.waitingFor.Store(other)
	}

	budget := maxYield
	if tx.rt.cfg.ExponentialBackoff && tx.adaptRetries > 0 {
		budget = maxYield * int(tx.adaptRetries)
	}
	if tx.yielded > budget {
		tx.endWait()
		return ErrRetry
	}

	cooperativeYield()
	tx.yielded++
	return nil
}

func (tx *Tx) endWait() {
	tx.status.Store(int32(statusActive))
	tx.waitingFor.Store(nil)
}

// detectDeadlock walks the waits-for chain starting at start. A cycle
// back to start is a dead-lock; encountering a descriptor that is not
// itself WAITING means the chain has left the cycle and there is nothing
// to detect (spec.md §4.6).
func (rt *Runtime) detectDeadlock(start *Tx) bool {
	cur := start.waitingFor.Load()
	for hops := 0; cur != nil && hops < maxDeadlockHops; hops++ {
		if cur == start {
			return true
		}
		if txStatus(cur.status.Load()) != statusWaiting {
			return false
		}
		cur = cur.waitingFor.Load()
	}
	return false
}

package stm

import "errors"

// Begin starts (or restarts) a transaction attempt on tx: every buffer is
// reset, the descriptor takes a fresh snapshot of the global clock, and
// its status moves to ACTIVE (spec.md §3 "Lifecycle").
func (tx *Tx) Begin() error {
	tx.reads.reset()
	tx.writeReset()
	tx.locks = tx.locks[:0]
	tx.allocated = tx.allocated[:0]
	tx.freed = tx.freed[:0]
	tx.maxVersion = tx.rt.clock.snapshot()
	tx.status.Store(int32(statusActive))
	return nil
}

// Load is the transactional read barrier (spec.md §4.2). It first checks
// the write buffer for a prior Store to the same address (read-your-own-
// writes), then samples the covering lock, reads the value, and records
// the lock in the read set for commit-time validation.
func (tx *Tx) Load(v *Var) (uint64, error) {
	if txStatus(tx.status.Load()) != statusActive {
		return 0, ErrNotActive
	}
	if entry, existed := tx.writeLookupOrInsert(v, false); existed {
		return entry.value, nil
	}

	lock := tx.rt.locks.lockOf(v.addr())
	enteredWait := false
	for {
		w := lock.load()
		if w.isVersion() {
			if w.version() > tx.maxVersion {
				if !tx.extend() {
					return 0, tx.rollbackAndRetry()
				}
			}
			val := v.peek()
			if lock.load() != w {
				continue
			}
			if enteredWait {
				tx.endWait()
			}
			tx.reads.append(lock, w)
			return val, nil
		}

		owner := w.owner()
		if owner == tx {
			tx.reads.append(lock, w)
			return v.peek(), nil
		}
		if err := tx.contend(owner, &enteredWait); err != nil {
			return 0, tx.rollbackAndRetry()
		}
	}
}

// extend is spec.md §4.4's read-set extension: instead of retrying the
// moment a covering lock shows a version newer than tx.maxVersion, sample
// the clock again and re-validate every lock already in the read set
// against that snapshot. If the existing read set still holds, the newer
// version was produced by a commit that cannot have invalidated anything
// this transaction has read so far, so tx.maxVersion can simply be raised
// and the attempt continues instead of aborting (mirroring
// original_source/src/adaptstm.c's buf_check_read -> buf_validate path).
func (tx *Tx) extend() bool {
	v := tx.rt.clock.snapshot()
	if !tx.reads.validate(tx) {
		return false
	}
	tx.maxVersion = v
	return true
}

// Store is the transactional write barrier. This implementation always
// acquires the covering lock eagerly, at the Store that first touches a
// given address, rather than deferring acquisition to commit time (see
// SPEC_FULL.md Open Question 1). Whether the new value also lands in
// memory immediately (write-through) or only at commit (write-back) is
// the per-descriptor adaptive selector tx.writeThrough (Open Question 2).
func (tx *Tx) Store(v *Var, val uint64) error {
	if txStatus(tx.status.Load()) != statusActive {
		return ErrNotActive
	}

	entry, existed := tx.writeLookupOrInsert(v, true)
	if existed {
		entry.value = val
		if tx.writeThrough {
			v.poke(val)
		}
		return nil
	}

	if err := tx.acquireLock(v); err != nil {
		return err
	}
	entry.value = val
	if tx.writeThrough {
		entry.hasPre = true
		entry.preimage = v.peek()
		v.poke(val)
	}
	return nil
}

// acquireLock implements eager lock acquisition for a write's first touch
// of an address: spin until the covering lock carries a version it can
// take over or is owned by tx itself already (two addresses hashing to the
// same slot), backing off against any other owner through the conflict
// manager. A version newer than this attempt's snapshot is not waited out:
// the attempt retries at once.
func (tx *Tx) acquireLock(v *Var) error {
	lock := tx.rt.locks.lockOf(v.addr())
	enteredWait := false
	for {
		w := lock.load()
		if w.isVersion() {
			if w.version() > tx.maxVersion {
				return tx.rollbackAndRetry()
			}
			if prev, ok := lock.tryAcquire(tx, w); ok {
				tx.locks = append(tx.locks, heldLock{slot: lock, oldWord: prev})
				if enteredWait {
					tx.endWait()
				}
				return nil
			}
			continue
		}

		owner := w.owner()
		if owner == tx {
			return nil
		}
		if err := tx.contend(owner, &enteredWait); err != nil {
			return tx.rollbackAndRetry()
		}
	}
}

// Commit validates the read set and, for a writing transaction, publishes
// its write buffer and releases every held lock under a freshly ticked
// clock value (spec.md §4.2 "Commit"). A read-only transaction commits
// without ever having taken the clock, a lock, or validating anything
// (there is nothing a concurrent writer could have invalidated).
//
// For a writing transaction the clock is ticked *before* validation,
// exactly as original_source/src/adaptstm.c's stm_commit computes
// commit_version first: this is the version the transaction is about to
// publish under, so the read set must be checked against it, not against
// whatever was current when validation used to run first. When this
// transaction is the only one to have ticked the clock since it started
// (tx.maxVersion+2 == commit_version), no other writer could have
// committed in between, so validation is skipped entirely as a fast path.
func (tx *Tx) Commit() error {
	if txStatus(tx.status.Load()) != statusActive {
		return ErrNotActive
	}

	if tx.writes.count == 0 {
		tx.finishCommit()
		return nil
	}

	wv := tx.rt.clock.tick()
	if tx.maxVersion+2 != wv {
		if !tx.reads.validate(tx) {
			return tx.rollbackAndRetry()
		}
	}

	if !tx.writeThrough {
		tx.writeBack()
	}
	for _, hl := range tx.locks {
		hl.slot.release(versionWord(wv))
	}
	tx.finishCommit()
	return nil
}

// finishCommit resolves memory actions, retires this attempt's buffers,
// moves tx to COMMITTED, and runs the adaptivity checkpoint (spec.md
// §4.5) if one is due.
func (tx *Tx) finishCommit() {
	tx.resolveMemory(true)
	tx.wtotal += uint64(tx.writes.count)
	tx.writeReset()
	tx.reads.reset()
	tx.locks = tx.locks[:0]
	tx.status.Store(int32(statusCommitted))
	tx.rt.counters.commits.Add(1)
	tx.adaptCommits++
	tx.nrtx++
	tx.adapt()
}

// rollbackAndRetry undoes every effect of the current attempt -- any
// write-through poke, every held lock, every tentative allocation -- and
// reports ErrRetry for the driving loop to act on.
func (tx *Tx) rollbackAndRetry() error {
	tx.rollback()
	tx.status.Store(int32(statusAborted))
	tx.rt.counters.aborts.Add(1)
	tx.rt.counters.retries.Add(1)
	tx.adaptRetries++
	return ErrRetry
}

// Abort is the explicit, application-requested counterpart of
// rollbackAndRetry: it undoes the current attempt's effects but reports
// no error and does not imply the caller should retry (spec.md §4.2
// "Explicit abort").
func (tx *Tx) Abort() error {
	if txStatus(tx.status.Load()) != statusActive {
		return ErrNotActive
	}
	tx.rollback()
	tx.status.Store(int32(statusAborted))
	tx.rt.counters.aborts.Add(1)
	return nil
}

// Retry is the application's explicit "nothing to do yet, restart from
// scratch" signal (spec.md §4.2 "Retry"). Unlike the original source's
// condition-variable wait on the read set, this implementation simply
// rolls back and reports ErrRetry immediately; the driving loop's next
// Begin takes a fresh clock snapshot, so a concurrent writer's commit is
// always eventually observed.
func (tx *Tx) Retry() error {
	if txStatus(tx.status.Load()) != statusActive {
		return ErrNotActive
	}
	tx.rollback()
	tx.status.Store(int32(statusAborted))
	tx.rt.counters.retries.Add(1)
	tx.adaptRetries++
	return ErrRetry
}

func (tx *Tx) rollback() {
	if tx.writeThrough {
		tx.writeUndo()
	}
	for _, hl := range tx.locks {
		hl.slot.release(hl.oldWord)
	}
	tx.locks = tx.locks[:0]
	tx.resolveMemory(false)
	tx.writeReset()
	tx.reads.reset()
}

// adapt is spec.md §4.5's adaptivity checkpoint: every AdaptEveryCommits
// successful commits, a descriptor reconsiders its write mode (from its
// retry ratio), its write-buffer hash function (from the collision rate)
// and its hash table size (from the average number of writes per commit),
// all measured since the last checkpoint.
func (tx *Tx) adapt() {
	period := tx.rt.cfg.AdaptEveryCommits
	if period == 0 || tx.adaptCommits%period != 0 {
		return
	}

	// Write mode: spec.md §4.3 -- if more than 60% of attempts since the
	// last checkpoint retried, switch to write-back; otherwise
	// write-through.
	if float64(tx.adaptRetries)/float64(tx.adaptCommits+1) > 0.6 {
		tx.writeThrough = false
	} else {
		tx.writeThrough = true
	}

	// Hash function: rotate once collisions reach a tenth of the writes.
	if tx.wtotal > 0 && tx.whashCollisions*10 >= tx.wtotal {
		tx.adaptiveHash = (tx.adaptiveHash + 1) % 6
		tx.rt.counters.hashRotations.Add(1)
	}
	// Hash size: double above 33% average occupancy, halve below 10%.
	avgWrites := float64(tx.wtotal) / float64(tx.adaptCommits)
	switch {
	case avgWrites > 0.33*float64(tx.whashSize) && tx.whashSize < wbufHashMaxSize:
		tx.whashSize *= 2
		tx.rt.counters.hashResizes.Add(1)
	case avgWrites < 0.10*float64(tx.whashSize) && tx.whashSize > wbufHashMinSize:
		tx.whashSize /= 2
		tx.rt.counters.hashResizes.Add(1)
	}

	tx.whashCollisions = 0
	tx.wtotal = 0
	tx.adaptRetries = 0
	tx.adaptCommits = 0
}

// Atomically runs fn to completion against a fresh descriptor drawn from
// rt's cache, retrying for as long as fn (or Commit) reports ErrRetry.
// This is the package's main entry point, playing the role the teacher's
// own Atomically does for its Txn type.
func Atomically(rt *Runtime, fn func(*Tx) error) error {
	tx := rt.NewTx()
	defer rt.Delete(tx)
	return Run(tx, fn)
}

// Run drives tx (typically one obtained from Runtime.NewTx and reused
// across many calls by the same goroutine, per spec.md §4.8) through
// repeated Begin/fn/Commit attempts until one succeeds or fn returns a
// non-retry error. It differs from Atomically exactly the way the
// teacher's own Run differs from its Atomically: the descriptor is the
// caller's to keep and reuse, not obtained and retired per call.
func Run(tx *Tx, fn func(*Tx) error) error {
	for {
		if err := tx.Begin(); err != nil {
			return err
		}
		err := fn(tx)
		if err == nil {
			err = tx.Commit()
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRetry) {
			continue
		}
		_ = tx.Abort()
		return err
	}
}

package stm

import "sync"

// varPool stands in for "a non-transactional host allocator is assumed
// available" (spec.md §1): transactionally allocated Vars are drawn from
// (and, on reclamation, returned to) a plain, non-transactional pool, the
// same way the C source wraps a plain malloc/free.
var varPool = sync.Pool{New: func() any { return &Var{} }}

// Alloc draws n fresh shared words, all zero-initialized, and records the
// block in this transaction's allocation log so Commit/Abort can resolve
// it (spec.md §4.7). Sub-word granularity is out of scope (spec.md §1
// Non-goals); a block is simply a slice of whole Vars.
func (tx *Tx) Alloc(n int) []*Var {
	if n <= 0 {
		panic("stm: Alloc requires a positive word count")
	}
	vars := make([]*Var, n)
	for i := range vars {
		v := varPool.Get().(*Var)
		v.poke(0)
		vars[i] = v
	}
	tx.allocated = append(tx.allocated, &memBlock{vars: vars})
	return vars
}

// Free transactionally zeroes every word of block and records it in this
// transaction's free log. It is built directly on Store so that, per
// spec.md §4.7, every freed word is either locked (eager mode, which this
// implementation always uses) before being zeroed, preventing any other
// transaction from observing a torn or stale value.
func (tx *Tx) Free(block []*Var) error {
	tx.freed = append(tx.freed, &memBlock{vars: block})
	for _, v := range block {
		if err := tx.Store(v, 0); err != nil {
			return err
		}
	}
	return nil
}

// reclaim returns every Var in blocks to the shared pool for reuse by a
// future Alloc.
func (rt *Runtime) reclaim(blocks []*memBlock) {
	for _, b := range blocks {
		for _, v := range b.vars {
			varPool.Put(v)
		}
	}
}

// resolveMemory is spec.md §4.7's commit/abort-time resolution: a
// committed transaction actually frees (recycles) its freed blocks and
// keeps its allocated ones; an aborted transaction does the opposite.
func (tx *Tx) resolveMemory(committed bool) {
	if committed {
		tx.rt.reclaim(tx.freed)
	} else {
		tx.rt.reclaim(tx.allocated)
	}
	tx.allocated = tx.allocated[:0]
	tx.freed = tx.freed[:0]
}

package stm

import "sync"

// descriptorCache is spec.md §4.8's single mutex-protected free list of
// retired transaction descriptors, scoped to one Runtime rather than a
// process-wide global (design note §9).
type descriptorCache struct {
	mu   sync.Mutex
	free *Tx
}

// pop returns a recycled descriptor if one is available, else allocates a
// fresh one.
func (c *descriptorCache) pop(rt *Runtime) *Tx {
	c.mu.Lock()
	tx := c.free
	if tx != nil {
		c.free = tx.cacheNext
	}
	c.mu.Unlock()
	if tx == nil {
		return newTx(rt)
	}
	tx.cacheNext = nil
	return tx
}

// push retires tx onto the free list for a future pop to reuse.
func (c *descriptorCache) push(tx *Tx) {
	c.mu.Lock()
	tx.cacheNext = c.free
	c.free = tx
	c.mu.Unlock()
}

// drain walks the free list at shutdown, physically dropping every
// retired descriptor, and reports how many it found.
func (c *descriptorCache) drain() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for cur := c.free; cur != nil; {
		next := cur.cacheNext
		cur.cacheNext = nil
		cur = next
		n++
	}
	c.free = nil
	return n
}

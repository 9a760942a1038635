package stm

import "sync/atomic"

// globalClock is the single monotonically increasing counter shared by
// every transaction started against a given Runtime. It starts at 1 and
// every committing write transaction adds 2, so every value it ever
// produces is odd and shares the version tag bit with the lock table's
// free sentinel (see lockword.go and SPEC_FULL.md Open Question 4).
type globalClock struct {
	value atomic.Uint64
}

func newGlobalClock() *globalClock {
	c := &globalClock{}
	c.value.Store(1)
	return c
}

// snapshot reads the current clock value. Synchronization is carried by
// the lock words a transaction subsequently observes, not by this load,
// so a relaxed load is sufficient here.
func (c *globalClock) snapshot() uint64 {
	return c.value.Load()
}

// tick atomically advances the clock by 2 and returns the new value. The
// add is a full fence; it is the linearization point of a committing
// write transaction.
func (c *globalClock) tick() uint64 {
	return c.value.Add(2)
}

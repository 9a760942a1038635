package stm

import "sync/atomic"

// runtimeCounters are the live, atomic counters a Runtime accumulates
// across every transaction it drives. Stats snapshots them into the
// serializable RuntimeStats view.
type runtimeCounters struct {
	commits           atomic.Uint64
	aborts            atomic.Uint64
	retries           atomic.Uint64
	deadlocksDetected atomic.Uint64
	hashRotations     atomic.Uint64
	hashResizes       atomic.Uint64
}

// RuntimeStats is a point-in-time snapshot of a Runtime's counters,
// msgpack-tagged so cmd/stmbench can serialize a run's results the same
// way cobaltdb's wire package tags its protocol structs.
type RuntimeStats struct {
	Commits           uint64 `msgpack:"commits"`
	Aborts            uint64 `msgpack:"aborts"`
	Retries           uint64 `msgpack:"retries"`
	DeadlocksDetected uint64 `msgpack:"deadlocks_detected"`
	HashRotations     uint64 `msgpack:"hash_rotations"`
	HashResizes       uint64 `msgpack:"hash_resizes"`
}

// Stats returns a snapshot of rt's running counters.
func (rt *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Commits:           rt.counters.commits.Load(),
		Aborts:            rt.counters.aborts.Load(),
		Retries:           rt.counters.retries.Load(),
		DeadlocksDetected: rt.counters.deadlocksDetected.Load(),
		HashRotations:     rt.counters.hashRotations.Load(),
		HashResizes:       rt.counters.hashResizes.Load(),
	}
}

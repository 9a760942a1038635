//go:build !unix

package stm

import "runtime"

// cooperativeYield falls back to the Go scheduler's own yield on
// platforms without a POSIX sched_yield.
func cooperativeYield() {
	runtime.Gosched()
}

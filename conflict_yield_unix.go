//go:build unix

package stm

import "golang.org/x/sys/unix"

// cooperativeYield backs the conflict manager's bounded back-off with a
// real scheduler yield on unix platforms, the same per-OS file split
// SeleniaProject-Orizon uses for its zero-copy I/O backends.
func cooperativeYield() {
	_ = unix.Sched_yield()
}

package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalClockStartsAtOne(t *testing.T) {
	c := newGlobalClock()
	require.Equal(t, uint64(1), c.snapshot())
}

func TestGlobalClockTicksByTwoAndStaysOdd(t *testing.T) {
	c := newGlobalClock()
	v1 := c.tick()
	v2 := c.tick()
	require.Equal(t, uint64(3), v1)
	require.Equal(t, uint64(5), v2)
	require.True(t, v1%2 == 1 && v2%2 == 1, "every clock value must share the lock word's version tag bit")
}

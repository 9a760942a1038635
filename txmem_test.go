package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocReturnsZeroedVars(t *testing.T) {
	rt := New()
	tx := rt.NewTx()
	defer rt.Delete(tx)

	require.NoError(t, tx.Begin())
	block := tx.Alloc(3)
	require.Len(t, block, 3)
	for _, v := range block {
		require.Equal(t, uint64(0), v.peek())
	}
	require.Len(t, tx.allocated, 1)
	require.NoError(t, tx.Commit())
}

func TestFreeZeroesAndLogsBlock(t *testing.T) {
	rt := New()
	tx := rt.NewTx()
	defer rt.Delete(tx)

	v := NewVar(42)
	require.NoError(t, tx.Begin())
	require.NoError(t, tx.Free([]*Var{v}))
	require.Len(t, tx.freed, 1)
	require.NoError(t, tx.Commit())
	require.Equal(t, uint64(0), v.peek())
}

func TestAllocPanicsOnNonPositiveCount(t *testing.T) {
	tx := &Tx{}
	require.Panics(t, func() { tx.Alloc(0) })
}

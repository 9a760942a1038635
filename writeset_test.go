package stm

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLookupOrInsertMissWithoutAllocate(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	v := NewVar(0)
	entry, existed := tx.writeLookupOrInsert(v, false)
	require.Nil(t, entry)
	require.False(t, existed)
	require.Equal(t, 0, tx.writes.count, "a non-allocating lookup must not mutate the write buffer")
}

func TestWriteLookupOrInsertInsertThenHit(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	v := NewVar(0)

	entry, existed := tx.writeLookupOrInsert(v, true)
	require.False(t, existed)
	entry.value = 42

	hit, existed := tx.writeLookupOrInsert(v, true)
	require.True(t, existed)
	require.Equal(t, uint64(42), hit.value)
	require.Same(t, entry, hit)
}

func TestWriteBufferCrossesHashThreshold(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	vars := make([]*Var, nrwBeforeHash+5)
	for i := range vars {
		vars[i] = NewVar(0)
		entry, existed := tx.writeLookupOrInsert(vars[i], true)
		require.False(t, existed)
		entry.value = uint64(i)
	}
	require.NotNil(t, tx.writes.hashTable, "crossing nrwBeforeHash must build the hash index")

	for i, v := range vars {
		entry, existed := tx.writeLookupOrInsert(v, false)
		require.True(t, existed)
		require.Equal(t, uint64(i), entry.value)
	}
}

func TestWriteBackPublishesValues(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	v := NewVar(0)
	entry, _ := tx.writeLookupOrInsert(v, true)
	entry.value = 99

	tx.writeBack()
	require.Equal(t, uint64(99), v.peek())
}

func TestWriteUndoRestoresPreimage(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	v := NewVar(5)
	entry, _ := tx.writeLookupOrInsert(v, true)
	entry.hasPre = true
	entry.preimage = 5
	entry.value = 123
	v.poke(123)

	tx.writeUndo()
	require.Equal(t, uint64(5), v.peek())
}

func TestWriteResetRecyclesSlabs(t *testing.T) {
	tx := &Tx{whashSize: wbufHashInitSize}
	for i := 0; i < nrWritesInSlab*2+1; i++ {
		tx.writeAppend(NewVar(0))
	}
	require.NotNil(t, tx.writes.first.next)

	tx.writeReset()
	require.Equal(t, 0, tx.writes.count)
	require.Zero(t, tx.writes.bloom)
	require.NotNil(t, tx.writes.freeSlabs, "slabs beyond the first should be recycled, not freed")
}

func TestBloomBitIsStableAndSparse(t *testing.T) {
	v := NewVar(0)
	require.Equal(t, bloomBit(v.addr()), bloomBit(v.addr()))
	require.Equal(t, 1, bits.OnesCount64(bloomBit(v.addr())), "an address sets exactly one bloom bit")
}

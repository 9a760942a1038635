package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSetValidateAcceptsUnchangedLocks(t *testing.T) {
	var rs readSet
	var slot lockSlot
	slot.reset()
	rs.append(&slot, slot.load())

	require.True(t, rs.validate(&Tx{}))
}

func TestReadSetValidateRejectsChangedVersion(t *testing.T) {
	var rs readSet
	var slot lockSlot
	slot.reset()
	rs.append(&slot, slot.load())
	slot.release(versionWord(3))

	require.False(t, rs.validate(&Tx{}))
}

func TestReadSetValidateAcceptsSelfOwnedLock(t *testing.T) {
	var rs readSet
	var slot lockSlot
	slot.reset()
	self := &Tx{}
	rs.append(&slot, slot.load())
	_, ok := slot.tryAcquire(self, lockFree)
	require.True(t, ok)

	require.True(t, rs.validate(self), "a lock this transaction itself now holds must not fail its own read validation")
}

func TestReadSetValidateRejectsOtherOwnedLock(t *testing.T) {
	var rs readSet
	var slot lockSlot
	slot.reset()
	rs.append(&slot, slot.load())
	other := &Tx{}
	_, ok := slot.tryAcquire(other, lockFree)
	require.True(t, ok)

	require.False(t, rs.validate(&Tx{}))
}

func TestReadSetReset(t *testing.T) {
	var rs readSet
	var slot lockSlot
	rs.append(&slot, lockFree)
	rs.reset()
	require.Empty(t, rs.entries)
}

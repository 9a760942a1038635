package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorCachePopAllocatesWhenEmpty(t *testing.T) {
	rt := New()
	var c descriptorCache
	tx := c.pop(rt)
	require.NotNil(t, tx)
	require.Same(t, rt, tx.rt)
}

func TestDescriptorCachePushPopReuses(t *testing.T) {
	rt := New()
	var c descriptorCache
	tx := c.pop(rt)
	tx.nrtx = 7 // mark it so we can tell it was reused, not freshly allocated

	c.push(tx)
	got := c.pop(rt)
	require.Same(t, tx, got)
	require.Equal(t, uint64(7), got.nrtx)
}

func TestDescriptorCacheDrain(t *testing.T) {
	rt := New()
	var c descriptorCache
	c.push(newTx(rt))
	c.push(newTx(rt))
	require.Equal(t, 2, c.drain())
	require.Equal(t, 0, c.drain())
}

package negcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceCapEvictsColdestFirst(t *testing.T) {
	// Each owner here costs denialNodeOverheadBytes + len(owner); cap room for
	// exactly two of these three similarly-sized names.
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	nA := z.denials.insertDenial(c, "a.example.com.", false)
	c.capBytes = uint64(nA.sizeBytes) * 2

	z.denials.insertDenial(c, "b.example.com.", false)
	z.denials.insertDenial(c, "c.example.com.", false)

	// "a" was least recently touched, so it should have been evicted first.
	_, ok := z.denials.byName["a.example.com."]
	assert.False(t, ok)

	_, ok = z.denials.byName["b.example.com."]
	assert.True(t, ok)
	_, ok = z.denials.byName["c.example.com."]
	assert.True(t, ok)
	assert.LessOrEqual(t, c.bytesUsed, c.capBytes)
}

func TestTouchLRUReordersWithoutEviction(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	nA := z.denials.insertDenial(c, "a.example.com.", false)
	nB := z.denials.insertDenial(c, "b.example.com.", false)
	require.Equal(t, nB, c.lruHead)

	c.touchLRU(nA)
	assert.Equal(t, nA, c.lruHead)
	assert.Equal(t, nB, c.lruTail)
}

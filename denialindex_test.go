package negcache

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestZone(t *testing.T, c *Cache, name string) *zoneNode {
	t.Helper()
	z := c.zones.ensureZone(dns.ClassINET, name, nsec3Params{Plain: true}, c)
	return z
}

func TestInsertDenialMaterializesInteriorAncestors(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	n := z.denials.insertDenial(c, "a.b.example.com.", false)
	require.NotNil(t, n)
	assert.True(t, n.inUse)

	parent, ok := z.denials.byName["b.example.com."]
	require.True(t, ok)
	assert.False(t, parent.inUse)
	assert.Equal(t, 1, parent.useCount)
}

func TestPromoteIsIdempotentAndTouchesLRU(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	n1 := z.denials.insertDenial(c, "a.example.com.", false)
	n2 := z.denials.insertDenial(c, "b.example.com.", false)
	require.Equal(t, n2, c.lruHead)

	// Re-inserting a already-in-use node just touches it to the LRU front.
	z.denials.insertDenial(c, "a.example.com.", false)
	assert.Equal(t, n1, c.lruHead)
}

func TestRemoveCascadesUseCount(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	n := z.denials.insertDenial(c, "a.b.example.com.", false)
	require.Equal(t, 1, z.denials.leafInUse)
	require.True(t, c.zones.findZone(dns.ClassINET, "example.com.") != nil)

	z.denials.remove(c, n)
	assert.Equal(t, 0, z.denials.leafInUse)
	_, ok := z.denials.byName["a.b.example.com."]
	assert.False(t, ok)
	_, ok = z.denials.byName["b.example.com."]
	assert.False(t, ok)

	// The zone itself is no longer in use once its last denial is removed.
	assert.Nil(t, c.zones.findZone(dns.ClassINET, "example.com."))
}

func TestCoveringCandidateWrapsAtZoneEnd(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")

	z.denials.insertDenial(c, "a.example.com.", false)
	z.denials.insertDenial(c, "m.example.com.", false)

	cand, ok := z.denials.coveringCandidate("b.example.com.")
	require.True(t, ok)
	assert.Equal(t, "a.example.com.", cand.owner)

	// Nothing sorts before "*.example.com." among {a, m}, so it wraps to the
	// largest tracked owner, m.example.com. — the record whose NSEC next
	// domain closes the chain back at the zone apex.
	cand, ok = z.denials.coveringCandidate("*.example.com.")
	require.True(t, ok)
	assert.Equal(t, "m.example.com.", cand.owner)
}

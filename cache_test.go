package negcache

import (
	"testing"

	"github.com/jmhodges/clock"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaultsAndOptions(t *testing.T) {
	c := New(1024, 150)
	assert.True(t, c.hardenAlgoDowngrade)
	assert.Equal(t, uint64(1024), c.capBytes)
	assert.Equal(t, uint16(150), c.nsec3MaxIter)

	fc := clock.NewFake()
	c = New(1024, 150, WithHardenAlgoDowngrade(false), WithClock(fc))
	assert.False(t, c.hardenAlgoDowngrade)
	assert.Equal(t, Clock(fc), c.clock)
}

func TestCloseResetsState(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	z := newTestZone(t, c, "example.com.")
	z.denials.insertDenial(c, "a.example.com.", false)
	require.NotZero(t, c.MemoryInUse())

	c.Close()
	assert.Zero(t, c.MemoryInUse())
	assert.Nil(t, c.zones.findZone(dns.ClassINET, "example.com."))

	// Public operations on a closed cache are silent no-ops.
	rc := newFakeRRsetCache()
	msg, status := c.GetMessage(1, Question{Name: "example.com.", Type: dns.TypeA, Class: dns.ClassINET}, rc, nil)
	assert.Nil(t, msg)
	assert.Equal(t, StatusNoProof, status)
}

func TestWithMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(1<<20, DefaultNSEC3MaxIterations, WithMetrics(reg))
	require.NotNil(t, c.metrics)

	z := newTestZone(t, c, "example.com.")
	z.denials.insertDenial(c, "a.example.com.", false)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

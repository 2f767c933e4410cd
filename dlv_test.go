package negcache

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLVLookupProvesAbsencePlainNSEC(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	rc := newFakeRRsetCache()
	setupPlainNSECZone(t, c, rc)

	result, err := c.DLVLookup("b.example.com.", dns.ClassINET, 1, rc)
	require.NoError(t, err)
	assert.Equal(t, ProbeProvenAbsent, result)
}

func TestDLVLookupNoProofForExactOwner(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	rc := newFakeRRsetCache()
	setupPlainNSECZone(t, c, rc)

	// a.example.com. has its own NSEC (it exists), so DLV can't claim it's
	// absent even though the queried type elsewhere might be missing.
	result, err := c.DLVLookup("a.example.com.", dns.ClassINET, 1, rc)
	require.NoError(t, err)
	assert.Equal(t, ProbeNoProof, result)
}

func TestDLVLookupNoProofWithoutCoveredZone(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	rc := newFakeRRsetCache()

	result, err := c.DLVLookup("nowhere.invalid.", dns.ClassINET, 1, rc)
	require.NoError(t, err)
	assert.Equal(t, ProbeNoProof, result)
}

func TestDLVLookupRejectsMalformedName(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)
	rc := newFakeRRsetCache()

	longLabel := make([]byte, 64)
	for i := range longLabel {
		longLabel[i] = 'a'
	}
	result, err := c.DLVLookup(string(longLabel)+".example.com.", dns.ClassINET, 1, rc)
	require.NoError(t, err)
	assert.Equal(t, ProbeNoProof, result)
}

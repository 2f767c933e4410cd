package negcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	_, err := validateName("example.com.")
	require.NoError(t, err)

	_, err = validateName(string(make([]byte, 256)))
	require.ErrorIs(t, err, ErrMalformedName)

	longLabel := "a"
	for i := 0; i < 64; i++ {
		longLabel += "a"
	}
	_, err = validateName(longLabel + ".example.com.")
	require.ErrorIs(t, err, ErrMalformedName)
}

func TestIsStrictSubdomain(t *testing.T) {
	assert.True(t, isStrictSubdomain("www.example.com.", "example.com."))
	assert.True(t, isStrictSubdomain("a.b.example.com.", "example.com."))
	assert.False(t, isStrictSubdomain("example.com.", "example.com."))
	assert.False(t, isStrictSubdomain("example.com.", "www.example.com."))
	assert.False(t, isStrictSubdomain("other.com.", "example.com."))
}

func TestCanonicalCompareOrdering(t *testing.T) {
	// RFC 4034 §6.1's own worked example, shortest-common-suffix-sorts-first.
	names := []string{
		"example.",
		"a.example.",
		"yljkjljk.a.example.",
		"Z.a.example.",
		"zABC.a.EXAMPLE.",
		"z.example.",
		"\\001.z.example.",
		"*.z.example.",
		"\\200.z.example.",
	}
	for i := 0; i < len(names)-1; i++ {
		assert.Negative(t, canonicalCompare(names[i], names[i+1]),
			"%q should sort before %q", names[i], names[i+1])
		assert.Positive(t, canonicalCompare(names[i+1], names[i]))
	}
	assert.Zero(t, canonicalCompare("Example.Com.", "example.com."))
}

func TestDenialAncestorChainStopsAtApex(t *testing.T) {
	chain := denialAncestorChain("a.b.example.com.", "example.com.")
	assert.Equal(t, []string{"a.b.example.com.", "b.example.com."}, chain)

	chain = denialAncestorChain("example.com.", "example.com.")
	assert.Equal(t, []string{"example.com."}, chain)
}

package negcache

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soaRR(owner string) *dns.SOA {
	return &dns.SOA{
		Hdr: dns.RR_Header{Name: owner, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: 3600},
		Ns:  "ns1." + owner, Mbox: "hostmaster." + owner,
	}
}

func nsecRR(owner, next string, types ...uint16) *dns.NSEC {
	return &dns.NSEC{
		Hdr:        dns.RR_Header{Name: owner, Rrtype: dns.TypeNSEC, Class: dns.ClassINET, Ttl: 3600},
		NextDomain: next,
		TypeBitMap: types,
	}
}

func TestAddReplyDerivesZoneFromSOA(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)

	reply := new(dns.Msg)
	reply.Ns = []dns.RR{
		soaRR("example.com."),
		nsecRR("a.example.com.", "example.com.", dns.TypeA),
	}
	c.AddReply(reply)

	z := c.zones.findZone(dns.ClassINET, "example.com.")
	require.NotNil(t, z)
	_, ok := z.denials.byName["a.example.com."]
	assert.True(t, ok)
}

func TestAddReferralUsesSuppliedBailiwick(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)

	reply := new(dns.Msg)
	reply.Question = []dns.Question{{Name: "sub.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}}
	reply.Ns = []dns.RR{
		nsecRR("example.com.", "a.example.com.", dns.TypeNS, dns.TypeSOA),
	}
	c.AddReferral(reply, "example.com.")

	z := c.zones.findZone(dns.ClassINET, "example.com.")
	require.NotNil(t, z)
	_, ok := z.denials.byName["example.com."]
	assert.True(t, ok)
}

func TestIngestRejectsNSEC3IterationsAboveCap(t *testing.T) {
	c := New(1<<20, 10)

	reply := new(dns.Msg)
	reply.Ns = []dns.RR{
		soaRR("example.com."),
		&dns.NSEC3PARAM{
			Hdr:        dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeNSEC3PARAM, Class: dns.ClassINET},
			Hash:       1,
			Iterations: 100,
		},
	}
	c.AddReply(reply)

	assert.Nil(t, c.zones.findZone(dns.ClassINET, "example.com."))
}

func TestIngestIgnoresRecordsOutsideZone(t *testing.T) {
	c := New(1<<20, DefaultNSEC3MaxIterations)

	reply := new(dns.Msg)
	reply.Ns = []dns.RR{
		soaRR("example.com."),
		nsecRR("a.example.com.", "example.com.", dns.TypeA),
		nsecRR("evil.org.", "other.org.", dns.TypeA),
	}
	c.AddReply(reply)

	z := c.zones.findZone(dns.ClassINET, "example.com.")
	require.NotNil(t, z)
	_, ok := z.denials.byName["evil.org."]
	assert.False(t, ok)
}

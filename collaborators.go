package negcache

import (
	"github.com/jmhodges/clock"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
)

// Clock is the injected time collaborator (§5/§6). Production code uses
// clock.New(); tests use clock.NewFake(), exactly as rolandshoemaker/solvere's
// BasicCache does for its own TTL accounting.
type Clock = clock.Clock

// Registerer is the subset of prometheus.Registerer the cache needs to wire in
// its own collectors without forcing callers onto the global default registry.
type Registerer = prometheus.Registerer

// RRsetRecord is what the external RRset cache hands back for a single owned
// RRset: the records themselves plus how many seconds of TTL remain as of the
// moment of the lookup.
type RRsetRecord struct {
	RRs          []dns.RR
	TTLRemaining uint32
}

// RRsetCache is the read-mostly collaborator that owns the actual NSEC/NSEC3/SOA
// record bodies. This package stores only owner-name keys and zone parameters;
// every synthesized reply is assembled by re-fetching bodies through here.
type RRsetCache interface {
	// Lookup returns the RRset owned by (owner, rrtype, class), or ok=false if
	// it isn't present (which synthesis treats as "already gone"; ingest never
	// calls it).
	Lookup(owner string, rrtype uint16, class uint16) (rrset RRsetRecord, ok bool)

	// MarkExpired tells the RRset cache this owner/type/class pair should be
	// considered gone, even if its own bookkeeping hasn't noticed yet. Used
	// when synthesis observes a denial whose backing RRset has outlived its TTL.
	MarkExpired(owner string, rrtype uint16, class uint16)
}

// ttlExpired reports whether an RRsetRecord had no TTL left at the moment it
// was looked up.
func ttlExpired(rec RRsetRecord) bool {
	return rec.TTLRemaining == 0
}

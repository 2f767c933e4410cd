package negcache

import (
	"sync"

	"github.com/miekg/dns"
)

// fakeRRsetCache is a minimal in-memory RRsetCache double, in the spirit of
// the teacher's own mock_test.go/types_mock.go small-struct fakes: no
// generated mocking framework, just enough behavior for synthesis tests to
// drive lookups and expiry.
type fakeRRsetCache struct {
	mu sync.Mutex
	m  map[fakeKey]RRsetRecord
}

type fakeKey struct {
	owner  string
	rrtype uint16
	class  uint16
}

func newFakeRRsetCache() *fakeRRsetCache {
	return &fakeRRsetCache{m: make(map[fakeKey]RRsetRecord)}
}

func (f *fakeRRsetCache) set(owner string, rrtype, class uint16, ttl uint32, rrs ...dns.RR) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[fakeKey{canonicalName(owner), rrtype, class}] = RRsetRecord{RRs: rrs, TTLRemaining: ttl}
}

func (f *fakeRRsetCache) Lookup(owner string, rrtype, class uint16) (RRsetRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.m[fakeKey{canonicalName(owner), rrtype, class}]
	return rec, ok
}

func (f *fakeRRsetCache) MarkExpired(owner string, rrtype, class uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, fakeKey{canonicalName(owner), rrtype, class})
}

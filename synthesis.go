package negcache

import (
	"strconv"

	"github.com/miekg/dns"
)

// GetMessage answers a query from previously ingested denials, §4.6. It
// returns StatusReply with a complete (unsigned-by-us) negative answer the
// caller is expected to revalidate, StatusNoProof if nothing usable is
// cached, or StatusError if reply assembly itself failed.
func (c *Cache) GetMessage(now uint64, q Question, rc RRsetCache, trace *Trace) (*dns.Msg, SynthesisStatus) {
	if _, err := validateName(q.Name); err != nil {
		Debug("GetMessage[" + trace.ShortID() + "] at " + strconv.FormatUint(now, 10) + ": " + err.Error())
		return nil, c.finishSynthesis(StatusNoProof)
	}
	qname := canonicalName(q.Name)

	for attempt := 0; attempt < 2; attempt++ {
		msg, status, retry := c.trySynthesize(qname, q.Type, q.Class, rc, trace)
		if !retry {
			return msg, c.finishSynthesis(status)
		}
	}
	return nil, c.finishSynthesis(StatusNoProof)
}

func (c *Cache) finishSynthesis(status SynthesisStatus) SynthesisStatus {
	c.mu.Lock()
	c.recordSynthesis(status)
	c.mu.Unlock()
	return status
}

// trySynthesize runs one pass of §4.6: plan under the lock, fetch bodies with
// the lock released, then re-acquire only to purge anything found expired.
// retry is true when an expired component was removed and the caller should
// try again with fresh state (at most once, per GetMessage).
func (c *Cache) trySynthesize(qname string, qtype, class uint16, rc RRsetCache, trace *Trace) (msg *dns.Msg, status SynthesisStatus, retry bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, StatusNoProof, false
	}
	z := c.zones.closestEncloser(class, qname)
	if z == nil {
		c.mu.Unlock()
		return nil, StatusNoProof, false
	}
	plain := z.params.Plain
	var plan *nsecPlan
	var plan3 *nsec3Plan
	if plain {
		plan = planNSEC(z, qname)
	} else {
		plan3 = planNSEC3(z, qname)
	}
	c.mu.Unlock()

	if plain {
		if plan == nil {
			return nil, StatusNoProof, false
		}
		return c.resolveNSECPlan(qname, qtype, class, z, plan, rc, trace)
	}

	if plan3 == nil {
		return nil, StatusNoProof, false
	}
	return c.resolveNSEC3Plan(qname, qtype, class, z, plan3, rc, trace)
}

// nsecPlan is the plain-NSEC proof shape chosen while the lock was held: a
// direct owner match (NODATA candidate) or a covering pair (NXDOMAIN
// candidate: qname itself, plus the wildcard immediately below the closest
// encloser, §4.6 step 2).
type nsecPlan struct {
	exactOwner string

	qnameCover string

	wildcardName  string
	wildcardCover string
}

func planNSEC(z *zoneNode, qname string) *nsecPlan {
	cand, ok := z.denials.coveringCandidate(qname)
	if !ok {
		return nil
	}
	if cand.owner == qname {
		return &nsecPlan{exactOwner: cand.owner}
	}

	ce, ok := closestEncloserNSEC(z, qname)
	if !ok {
		return nil
	}
	wildcard := "*." + ce
	wcand, ok := z.denials.coveringCandidate(wildcard)
	if !ok {
		return nil
	}
	return &nsecPlan{qnameCover: cand.owner, wildcardName: wildcard, wildcardCover: wcand.owner}
}

// closestEncloserNSEC walks qname's strict ancestors, longest to shortest,
// for the deepest one with its own in-use NSEC owner: the name the wildcard
// proof must be rooted at, §4.6 step 2. Mirrors planNSEC3's ancestor walk
// (synthesis_nsec3.go), just keyed by plain owner name instead of a hash.
func closestEncloserNSEC(z *zoneNode, qname string) (string, bool) {
	for _, suffix := range ancestorChain(qname) {
		if suffix != z.name && !isStrictSubdomain(suffix, z.name) {
			break
		}
		if n, ok := z.denials.byName[suffix]; ok && n.inUse {
			return suffix, true
		}
	}
	return "", false
}

func (c *Cache) resolveNSECPlan(qname string, qtype, class uint16, z *zoneNode, plan *nsecPlan, rc RRsetCache, trace *Trace) (*dns.Msg, SynthesisStatus, bool) {
	zoneName := z.name

	if plan.exactOwner != "" {
		rec, expired, found := fetchDenialRR(rc, plan.exactOwner, dns.TypeNSEC, class)
		if !found || expired {
			if c.purgeExpired(zoneName, class, plan.exactOwner, dns.TypeNSEC, rc, expired) {
				return nil, StatusNoProof, true
			}
			return nil, StatusNoProof, false
		}

		bitmap := nsecTypeBitmap(rec.RRs)
		if containsAny(bitmap, qtype, dns.TypeCNAME, dns.TypeDNAME) {
			return nil, StatusNoProof, false
		}

		soaRec, soaOK := fetchSOA(rc, zoneName, class)
		if !soaOK {
			return nil, StatusNoProof, false
		}

		msg, ok := assembleReply(qname, qtype, class, dns.RcodeSuccess, []RRsetRecord{rec, soaRec})
		if !ok {
			return nil, StatusError, false
		}
		c.touchOwners(z, plan.exactOwner)
		Query("GetMessage[" + trace.ShortID() + "]: " + RcodeToString(dns.RcodeSuccess) + " " + TypeToString(qtype) + " " + qname)
		return msg, StatusReply, false
	}

	qnameRec, qnameExpired, qnameFound := fetchDenialRR(rc, plan.qnameCover, dns.TypeNSEC, class)
	wcRec, wcExpired, wcFound := fetchDenialRR(rc, plan.wildcardCover, dns.TypeNSEC, class)

	if !qnameFound || qnameExpired || !wcFound || wcExpired {
		removedAny := false
		if c.purgeExpired(zoneName, class, plan.qnameCover, dns.TypeNSEC, rc, qnameExpired) {
			removedAny = true
		}
		if c.purgeExpired(zoneName, class, plan.wildcardCover, dns.TypeNSEC, rc, wcExpired) {
			removedAny = true
		}
		if removedAny {
			return nil, StatusNoProof, true
		}
		return nil, StatusNoProof, false
	}

	if !nsecCovers(qnameRec.RRs, zoneName, plan.qnameCover, qname) {
		return nil, StatusNoProof, false
	}
	if !nsecCovers(wcRec.RRs, zoneName, plan.wildcardCover, plan.wildcardName) {
		return nil, StatusNoProof, false
	}

	soaRec, soaOK := fetchSOA(rc, zoneName, class)
	if !soaOK {
		return nil, StatusNoProof, false
	}

	msg, ok := assembleReply(qname, qtype, class, dns.RcodeNameError, []RRsetRecord{qnameRec, wcRec, soaRec})
	if !ok {
		return nil, StatusError, false
	}
	c.touchOwners(z, plan.qnameCover, plan.wildcardCover)
	Query("GetMessage[" + trace.ShortID() + "]: " + RcodeToString(dns.RcodeNameError) + " " + TypeToString(qtype) + " " + qname)
	return msg, StatusReply, false
}

// purgeExpired removes owner's denial node if expired marks it so, telling the
// RRset cache it's considered gone too. Returns whether anything was removed
// (signal to retry synthesis once).
func (c *Cache) purgeExpired(zoneName string, class uint16, owner string, rrtype uint16, rc RRsetCache, expired bool) bool {
	if owner == "" || !expired {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	z := c.zones.findZone(class, zoneName)
	if z == nil {
		return false
	}
	n, ok := z.denials.byName[owner]
	if !ok || !n.inUse {
		return false
	}
	z.denials.remove(c, n)
	c.zones.releaseIfEmpty(z)
	rc.MarkExpired(owner, rrtype, class)
	return true
}

// touchOwners marks the denials used by a successful synthesis as recently
// used, §4.6 ("any successful synthesis touches all denial nodes used in the
// proof"). Misses silently if the node was evicted between planning and here.
func (c *Cache) touchOwners(z *zoneNode, owners ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range owners {
		if n, ok := z.denials.byName[o]; ok && n.inUse {
			c.touchLRU(n)
		}
	}
}

// fetchDenialRR looks up a denial's backing RRset, reporting whether it was
// present at all and whether it had already expired.
func fetchDenialRR(rc RRsetCache, owner string, rrtype, class uint16) (rec RRsetRecord, expired, found bool) {
	rec, ok := rc.Lookup(owner, rrtype, class)
	if !ok {
		return rec, false, false
	}
	return rec, ttlExpired(rec), true
}

func fetchSOA(rc RRsetCache, zoneName string, class uint16) (RRsetRecord, bool) {
	rec, ok := rc.Lookup(zoneName, dns.TypeSOA, class)
	if !ok || ttlExpired(rec) {
		return RRsetRecord{}, false
	}
	return rec, true
}

// nsecCovers checks that target falls strictly between owner and the fetched
// NSEC's Next Domain Name, closing the chain at the zone apex, RFC 4034
// §6.1/RFC 3845 §2.1.1.
func nsecCovers(rrs []dns.RR, zoneName, owner, target string) bool {
	nsec := findNSEC(rrs)
	if nsec == nil {
		return false
	}
	if canonicalCompare(owner, target) >= 0 {
		return false
	}
	next := canonicalName(nsec.NextDomain)
	return next == zoneName || canonicalCompare(target, next) < 0
}

func findNSEC(rrs []dns.RR) *dns.NSEC {
	for _, rr := range rrs {
		if n, ok := rr.(*dns.NSEC); ok {
			return n
		}
	}
	return nil
}

func nsecTypeBitmap(rrs []dns.RR) []uint16 {
	if n := findNSEC(rrs); n != nil {
		return n.TypeBitMap
	}
	return nil
}

func containsAny(bitmap []uint16, types ...uint16) bool {
	for _, want := range types {
		for _, t := range bitmap {
			if t == want {
				return true
			}
		}
	}
	return false
}

// assembleReply builds the synthesized message, §4.6 step 4: rcode, an empty
// answer section, and the proof RRsets plus SOA in authority, all with their
// TTL lowered to the minimum remaining TTL across the components used.
func assembleReply(qname string, qtype, class uint16, rcode int, rrsets []RRsetRecord) (*dns.Msg, bool) {
	if len(rrsets) == 0 {
		return nil, false
	}

	minTTL := rrsets[0].TTLRemaining
	for _, rec := range rrsets[1:] {
		if rec.TTLRemaining < minTTL {
			minTTL = rec.TTLRemaining
		}
	}

	msg := new(dns.Msg)
	msg.Response = true
	msg.Rcode = rcode
	msg.Question = []dns.Question{{Name: qname, Qtype: qtype, Qclass: class}}

	for _, rec := range rrsets {
		for _, rr := range rec.RRs {
			cp := dns.Copy(rr)
			cp.Header().Ttl = minTTL
			msg.Ns = append(msg.Ns, cp)
		}
	}

	return msg, true
}

package negcache

import "github.com/miekg/dns"

// nsec3Plan is the NSEC3 proof shape chosen while the lock was held. Either
// exactOwner (qname's own hash matched in-use, NODATA candidate) is set, or
// the three-proof closest-encloser/next-closer/wildcard set is, §4.6.
type nsec3Plan struct {
	exactOwner string

	ceName          string
	closestEncloser string

	nextCloserName  string
	nextCloserCover string

	wildcardName  string
	wildcardCover string
}

// planNSEC3 walks qname's ancestor labels, longest to shortest, hashing each
// with z's NSEC3 parameters and looking for the first in-use match: that's
// the closest encloser. The covering candidates for the next-closer and
// wildcard names are located the same way plain-NSEC covering candidates
// are, just keyed by hash instead of by name.
func planNSEC3(z *zoneNode, qname string) *nsec3Plan {
	qhash := hashedOwner(z, qname)
	if n, ok := z.denials.byName[qhash]; ok && n.inUse {
		return &nsec3Plan{exactOwner: qhash}
	}

	prev := qname
	for _, suffix := range ancestorChain(qname) {
		if suffix != z.name && !isStrictSubdomain(suffix, z.name) {
			break
		}

		hash := hashedOwner(z, suffix)
		if n, ok := z.denials.byName[hash]; ok && n.inUse {
			nc, ok := z.denials.coveringCandidate(hashedOwner(z, prev))
			if !ok {
				return nil
			}
			wildcard := "*." + suffix
			wc, ok := z.denials.coveringCandidate(hashedOwner(z, wildcard))
			if !ok {
				return nil
			}
			return &nsec3Plan{
				ceName:          suffix,
				closestEncloser: hash,
				nextCloserName:  prev,
				nextCloserCover: nc.owner,
				wildcardName:    wildcard,
				wildcardCover:   wc.owner,
			}
		}
		prev = suffix
	}
	return nil
}

// hashedOwner computes the wire owner name an NSEC3 record for name would
// carry in zone z: dns.HashName's base32hex label, under the zone apex.
func hashedOwner(z *zoneNode, name string) string {
	label := dns.HashName(canonicalName(name), z.params.HashAlg, z.params.Iterations, z.params.Salt)
	return canonicalName(label + "." + z.name)
}

func (c *Cache) resolveNSEC3Plan(qname string, qtype, class uint16, z *zoneNode, plan *nsec3Plan, rc RRsetCache, trace *Trace) (*dns.Msg, SynthesisStatus, bool) {
	zoneName := z.name

	if plan.exactOwner != "" {
		rec, expired, found := fetchDenialRR(rc, plan.exactOwner, dns.TypeNSEC3, class)
		if !found || expired {
			if c.purgeExpired(zoneName, class, plan.exactOwner, dns.TypeNSEC3, rc, expired) {
				return nil, StatusNoProof, true
			}
			return nil, StatusNoProof, false
		}

		bitmap := nsec3TypeBitmap(rec.RRs)
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
		Query("GetMessage[" + trace.ShortID() + "]: " + RcodeToString(dns.RcodeSuccess) + " (nsec3) " + TypeToString(qtype) + " " + qname)
		return msg, StatusReply, false
	}

	ceRec, ceExpired, ceFound := fetchDenialRR(rc, plan.closestEncloser, dns.TypeNSEC3, class)
	ncRec, ncExpired, ncFound := fetchDenialRR(rc, plan.nextCloserCover, dns.TypeNSEC3, class)
	wcRec, wcExpired, wcFound := fetchDenialRR(rc, plan.wildcardCover, dns.TypeNSEC3, class)

	if !ceFound || ceExpired || !ncFound || ncExpired || !wcFound || wcExpired {
		removed := c.purgeExpired(zoneName, class, plan.closestEncloser, dns.TypeNSEC3, rc, ceExpired)
		removed = c.purgeExpired(zoneName, class, plan.nextCloserCover, dns.TypeNSEC3, rc, ncExpired) || removed
		removed = c.purgeExpired(zoneName, class, plan.wildcardCover, dns.TypeNSEC3, rc, wcExpired) || removed
		if removed {
			return nil, StatusNoProof, true
		}
		return nil, StatusNoProof, false
	}

	ceRR := findNSEC3(ceRec.RRs)
	ncRR := findNSEC3(ncRec.RRs)
	wcRR := findNSEC3(wcRec.RRs)
	if ceRR == nil || ncRR == nil || wcRR == nil {
		return nil, StatusNoProof, false
	}

	// The closest encloser's own NSEC3 must actually match it, and must not
	// be disqualified per RFC 7129 §5.5: no DNAME, and NS only alongside SOA.
	if !ceRR.Match(plan.ceName) {
		return nil, StatusNoProof, false
	}
	if containsAny(ceRR.TypeBitMap, dns.TypeDNAME) {
		return nil, StatusNoProof, false
	}
	if containsAny(ceRR.TypeBitMap, dns.TypeNS) && !containsAny(ceRR.TypeBitMap, dns.TypeSOA) {
		return nil, StatusNoProof, false
	}

	if !ncRR.Cover(plan.nextCloserName) {
		return nil, StatusNoProof, false
	}
	if !wcRR.Cover(plan.wildcardName) {
		return nil, StatusNoProof, false
	}

	soaRec, soaOK := fetchSOA(rc, zoneName, class)
	if !soaOK {
		return nil, StatusNoProof, false
	}

	msg, ok := assembleReply(qname, qtype, class, dns.RcodeNameError, []RRsetRecord{ceRec, ncRec, wcRec, soaRec})
	if !ok {
		return nil, StatusError, false
	}
	c.touchOwners(z, plan.closestEncloser, plan.nextCloserCover, plan.wildcardCover)
	Query("GetMessage[" + trace.ShortID() + "]: " + RcodeToString(dns.RcodeNameError) + " (nsec3) " + TypeToString(qtype) + " " + qname)
	return msg, StatusReply, false
}

func findNSEC3(rrs []dns.RR) *dns.NSEC3 {
	for _, rr := range rrs {
		if n, ok := rr.(*dns.NSEC3); ok {
			return n
		}
	}
	return nil
}

func nsec3TypeBitmap(rrs []dns.RR) []uint16 {
	if n := findNSEC3(rrs); n != nil {
		return n.TypeBitMap
	}
	return nil
}

package negcache

import (
	"strconv"

	"github.com/miekg/dns"
)

// DLVLookup answers "does name provably not exist under class", §4.7: the
// same zone-match and name-error proof search GetMessage performs in steps
// 1-2, but returning a boolean instead of assembling a reply. Expired
// denials encountered along the way are removed as a side effect.
func (c *Cache) DLVLookup(name string, class uint16, now uint64, rc RRsetCache) (ProbeResult, error) {
	if _, err := validateName(name); err != nil {
		Debug("DLVLookup at " + strconv.FormatUint(now, 10) + ": " + err.Error())
		return ProbeNoProof, nil
	}
	qname := canonicalName(name)

	for attempt := 0; attempt < 2; attempt++ {
		result, retry := c.tryProbe(qname, class, rc)
		if !retry {
			return result, nil
		}
	}
	return ProbeNoProof, nil
}

func (c *Cache) tryProbe(qname string, class uint16, rc RRsetCache) (ProbeResult, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ProbeNoProof, false
	}
	z := c.zones.closestEncloser(class, qname)
	if z == nil {
		c.mu.Unlock()
		return ProbeNoProof, false
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
		return c.probeNSEC(z, qname, plan, rc)
	}
	return c.probeNSEC3(z, plan3, rc)
}

// probeNSEC is steps 1-2 of GetMessage for plain-NSEC zones, without SOA
// fetch or reply assembly: an exact owner match means name has other data
// (not absent), so only the covering-pair case proves absence.
func (c *Cache) probeNSEC(z *zoneNode, qname string, plan *nsecPlan, rc RRsetCache) (ProbeResult, bool) {
	zoneName := z.name

	if plan == nil || plan.exactOwner != "" {
		return ProbeNoProof, false
	}

	qRec, qExpired, qFound := fetchDenialRR(rc, plan.qnameCover, dns.TypeNSEC, z.class)
	wcRec, wcExpired, wcFound := fetchDenialRR(rc, plan.wildcardCover, dns.TypeNSEC, z.class)

	removed := c.purgeExpired(zoneName, z.class, plan.qnameCover, dns.TypeNSEC, rc, qExpired)
	removed = c.purgeExpired(zoneName, z.class, plan.wildcardCover, dns.TypeNSEC, rc, wcExpired) || removed

	if !qFound || qExpired || !wcFound || wcExpired {
		return ProbeNoProof, removed
	}

	if !nsecCovers(qRec.RRs, zoneName, plan.qnameCover, qname) {
		return ProbeNoProof, false
	}
	if !nsecCovers(wcRec.RRs, zoneName, plan.wildcardCover, plan.wildcardName) {
		return ProbeNoProof, false
	}

	c.touchOwners(z, plan.qnameCover, plan.wildcardCover)
	return ProbeProvenAbsent, false
}

func (c *Cache) probeNSEC3(z *zoneNode, plan *nsec3Plan, rc RRsetCache) (ProbeResult, bool) {
	zoneName := z.name
	class := z.class

	if plan == nil || plan.exactOwner != "" {
		return ProbeNoProof, false
	}

	ceRec, ceExpired, ceFound := fetchDenialRR(rc, plan.closestEncloser, dns.TypeNSEC3, class)
	ncRec, ncExpired, ncFound := fetchDenialRR(rc, plan.nextCloserCover, dns.TypeNSEC3, class)
	wcRec, wcExpired, wcFound := fetchDenialRR(rc, plan.wildcardCover, dns.TypeNSEC3, class)

	removed := c.purgeExpired(zoneName, class, plan.closestEncloser, dns.TypeNSEC3, rc, ceExpired)
	removed = c.purgeExpired(zoneName, class, plan.nextCloserCover, dns.TypeNSEC3, rc, ncExpired) || removed
	removed = c.purgeExpired(zoneName, class, plan.wildcardCover, dns.TypeNSEC3, rc, wcExpired) || removed

	if !ceFound || ceExpired || !ncFound || ncExpired || !wcFound || wcExpired {
		return ProbeNoProof, removed
	}

	ceRR := findNSEC3(ceRec.RRs)
	ncRR := findNSEC3(ncRec.RRs)
	wcRR := findNSEC3(wcRec.RRs)
	if ceRR == nil || ncRR == nil || wcRR == nil {
		return ProbeNoProof, false
	}
	if !ceRR.Match(plan.ceName) {
		return ProbeNoProof, false
	}
	if containsAny(ceRR.TypeBitMap, dns.TypeDNAME) {
		return ProbeNoProof, false
	}
	if containsAny(ceRR.TypeBitMap, dns.TypeNS) && !containsAny(ceRR.TypeBitMap, dns.TypeSOA) {
		return ProbeNoProof, false
	}
	if !ncRR.Cover(plan.nextCloserName) {
		return ProbeNoProof, false
	}
	if !wcRR.Cover(plan.wildcardName) {
		return ProbeNoProof, false
	}

	c.touchOwners(z, plan.closestEncloser, plan.nextCloserCover, plan.wildcardCover)
	return ProbeProvenAbsent, false
}


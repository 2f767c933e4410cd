package negcache

import "github.com/miekg/dns"

// AddReply ingests a validated reply's NSEC/NSEC3 records, deriving the
// applicable zone from the SOA owner in its authority section, §4.5.
func (c *Cache) AddReply(reply *dns.Msg) {
	c.ingest(reply, "")
}

// AddReferral ingests a validated referral, with the zone given explicitly
// since a referral's authority section carries no SOA, §4.5.
func (c *Cache) AddReferral(reply *dns.Msg, bailiwick string) {
	c.ingest(reply, bailiwick)
}

// ingest is the shared body of AddReply/AddReferral. Any failure aborts the
// whole operation without partial side effects and is never surfaced to the
// caller: ingest is fire-and-forget, §4.5/§7.
func (c *Cache) ingest(reply *dns.Msg, bailiwick string) {
	if reply == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	class, zoneName, ok := determineZone(reply, bailiwick)
	if !ok {
		Debug("ingest: " + ErrNoZoneDetermined.Error())
		return
	}
	if _, err := validateName(zoneName); err != nil {
		Debug("ingest: " + err.Error())
		return
	}

	params := extractNSEC3Params(reply)
	if !params.Plain && params.Iterations > c.nsec3MaxIter {
		Debug("ingest: " + ErrNSEC3IterationsExceedCap.Error())
		return
	}

	z := c.zones.ensureZone(class, zoneName, params, c)

	for _, rr := range reply.Ns {
		owner, isHashed, ok := denialOwner(rr, zoneName)
		if !ok {
			continue
		}
		if _, err := validateName(owner); err != nil {
			continue
		}
		z.denials.insertDenial(c, owner, isHashed)
	}

	c.zones.releaseIfEmpty(z)
}

// determineZone derives the zone a reply's NSEC/NSEC3 records belong to: the
// supplied bailiwick for referrals, otherwise the owner of the authority
// section's SOA.
func determineZone(reply *dns.Msg, bailiwick string) (class uint16, name string, ok bool) {
	if bailiwick != "" {
		class = dns.ClassINET
		if len(reply.Question) > 0 {
			class = reply.Question[0].Qclass
		}
		return class, canonicalName(bailiwick), true
	}

	for _, rr := range reply.Ns {
		if soa, isSOA := rr.(*dns.SOA); isSOA {
			return soa.Header().Class, canonicalName(soa.Header().Name), true
		}
	}
	return 0, "", false
}

// extractNSEC3Params reads the zone's NSEC3PARAM from the reply's authority
// section, or reports the plain-NSEC sentinel if none is present.
func extractNSEC3Params(reply *dns.Msg) nsec3Params {
	for _, rr := range reply.Ns {
		if p, ok := rr.(*dns.NSEC3PARAM); ok {
			return nsec3Params{
				HashAlg:    p.Hash,
				Iterations: p.Iterations,
				Salt:       p.Salt,
			}
		}
	}
	return nsec3Params{Plain: true}
}

// denialOwner reports the canonical owner of an NSEC/NSEC3 record and whether
// it's owned at or below zoneName (the only records ingest attaches).
func denialOwner(rr dns.RR, zoneName string) (owner string, isHashed bool, ok bool) {
	switch rr.(type) {
	case *dns.NSEC:
		isHashed = false
	case *dns.NSEC3:
		isHashed = true
	default:
		return "", false, false
	}

	owner = canonicalName(rr.Header().Name)
	if owner != zoneName && !isStrictSubdomain(owner, zoneName) {
		return "", false, false
	}
	return owner, isHashed, true
}

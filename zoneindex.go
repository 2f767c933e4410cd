package negcache

import "sort"

// zoneIndex is the ordered set of zones keyed by (class, canonical name),
// §4.2. It stores interior placeholder zones for every strict ancestor of a
// tracked (inUse) zone, so ensureZone/closestEncloser stay logarithmic over
// the number of distinct zone names in flight.
type zoneIndex struct {
	byKey map[zoneKey]*zoneNode
	order []*zoneNode // sorted per zoneOrderLess
}

func newZoneIndex() *zoneIndex {
	return &zoneIndex{byKey: make(map[zoneKey]*zoneNode)}
}

// findZone returns the exact, tracked (inUse) zone for (class, name), or nil.
func (zi *zoneIndex) findZone(class uint16, name string) *zoneNode {
	name = canonicalName(name)
	z := zi.byKey[zoneKey{class, name}]
	if z == nil || !z.inUse {
		return nil
	}
	return z
}

// closestEncloser returns the deepest tracked ancestor zone of name (name
// itself included), or nil if none is tracked.
func (zi *zoneIndex) closestEncloser(class uint16, name string) *zoneNode {
	name = canonicalName(name)
	for _, suffix := range ancestorChain(name) {
		if z, ok := zi.byKey[zoneKey{class, suffix}]; ok && z.inUse {
			return z
		}
	}
	return nil
}

// ancestorChain returns name and each of its ancestors, longest (name itself)
// first, down to and including the root.
func ancestorChain(name string) []string {
	name = canonicalName(name)
	if name == "." {
		return []string{"."}
	}
	indexes := splitLabels(name)
	chain := make([]string, 0, len(indexes)+1)
	for _, i := range indexes {
		chain = append(chain, name[i:])
	}
	chain = append(chain, ".")
	return chain
}

// ensureZone finds or creates the zone (class, name). If it already exists
// with differing NSEC3 parameters, its denials are purged and the parameters
// replaced (harden_algo_downgrade semantics, §4.2/§7 kind 2). The returned
// zone has its params set, but is not yet inUse until a denial is inserted
// into it.
func (zi *zoneIndex) ensureZone(class uint16, name string, params nsec3Params, cache *Cache) *zoneNode {
	name = canonicalName(name)
	z := zi.materialize(class, name)

	if z.denials == nil {
		z.denials = newDenialIndex(z)
	}

	if z.inUse && !z.params.equal(params) && cache.hardenAlgoDowngrade {
		z.denials.purgeAll(cache)
		if zi.byKey[z.key()] != z {
			// Purging the last denials released z (and any ancestors left
			// unused) from the index; put a fresh node for the zone back.
			z = zi.materialize(class, name)
			z.denials = newDenialIndex(z)
		}
	}
	z.params = params

	return z
}

// materialize finds or creates the zoneNode for (class, name), building any
// missing interior ancestors from the nearest existing one (or the root) down.
func (zi *zoneIndex) materialize(class uint16, name string) *zoneNode {
	if z, ok := zi.byKey[zoneKey{class, name}]; ok {
		return z
	}

	chain := ancestorChain(name)

	// Find the nearest existing ancestor (chain[0] is name itself).
	nearestIdx := len(chain) // sentinel: none found
	var nearest *zoneNode
	for i, suffix := range chain {
		if z, ok := zi.byKey[zoneKey{class, suffix}]; ok {
			nearest = z
			nearestIdx = i
			break
		}
	}

	// Build missing ancestors from the nearest existing one down to name's
	// immediate parent, then name itself.
	var built []*zoneNode
	for i := nearestIdx - 1; i >= 0; i-- {
		built = append(built, newInteriorZone(class, chain[i]))
	}

	parent := nearest
	for i := len(built) - 1; i >= 0; i-- {
		node := built[i]
		node.parent = parent
		zi.insertNode(node)
		parent = node
	}

	return zi.byKey[zoneKey{class, name}]
}

func (zi *zoneIndex) insertNode(z *zoneNode) {
	zi.byKey[z.key()] = z
	i := sort.Search(len(zi.order), func(i int) bool {
		return !zoneOrderLess(zi.order[i], z)
	})
	zi.order = append(zi.order, nil)
	copy(zi.order[i+1:], zi.order[i:])
	zi.order[i] = z
}

func (zi *zoneIndex) removeNode(z *zoneNode) {
	delete(zi.byKey, z.key())
	i := sort.Search(len(zi.order), func(i int) bool {
		return !zoneOrderLess(zi.order[i], z)
	})
	for i < len(zi.order) && zi.order[i] != z {
		i++
	}
	if i < len(zi.order) {
		zi.order = append(zi.order[:i], zi.order[i+1:]...)
	}
}

// markInUse flips z between in-use and not, propagating a +1/-1 use-count
// delta up its ancestor chain, and removing any ancestor (or z itself) whose
// use-count reaches zero. Called by the owning denialIndex when its own
// in-use denial count transitions across zero.
func (zi *zoneIndex) markInUse(z *zoneNode, inUse bool) {
	if z.inUse == inUse {
		return
	}
	z.inUse = inUse

	delta := 1
	if !inUse {
		delta = -1
	}

	for n := z; n != nil; {
		n.useCount += delta
		next := n.parent
		if n.useCount <= 0 && !n.inUse {
			zi.removeNode(n)
		}
		n = next
	}
}

// releaseIfEmpty removes z (and any now-empty ancestors) if it is neither
// in-use nor has any in-use descendant. Called after an ingest operation that
// called ensureZone but ultimately attached no denials to it.
func (zi *zoneIndex) releaseIfEmpty(z *zoneNode) {
	for n := z; n != nil; {
		if n.inUse || n.useCount > 0 {
			return
		}
		next := n.parent
		zi.removeNode(n)
		n = next
	}
}

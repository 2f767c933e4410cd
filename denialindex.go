package negcache

import "sort"

// denialIndex is one zone's ordered set of NSEC/NSEC3 owner names, §4.3. It
// stores every node (interior and in-use) in byName for O(1) exact lookup and
// ancestor materialization, and keeps only in-use leaves in order, sorted
// canonically, for covering-denial binary search.
type denialIndex struct {
	zone *zoneNode

	byName map[string]*denialNode
	order  []*denialNode

	leafInUse int // count of in-use denials directly owned by this zone
}

func newDenialIndex(zone *zoneNode) *denialIndex {
	return &denialIndex{
		zone:   zone,
		byName: make(map[string]*denialNode),
	}
}

// insertDenial finds or creates the denial node for owner, marks it in-use,
// moves it to the LRU front, and materializes any missing interior ancestors.
// It invokes the LRU governor, which may evict other nodes (possibly in other
// zones) to stay within the byte cap.
func (di *denialIndex) insertDenial(cache *Cache, owner string, isHashed bool) *denialNode {
	owner = canonicalName(owner)

	n := di.materialize(owner, isHashed)
	di.promote(cache, n)
	return n
}

// materialize finds or creates the denialNode for owner, building any missing
// interior ancestors (within this zone) from the nearest existing one down.
// NSEC3-hashed owners have no sub-hierarchy: a hash is always a direct,
// single-level child of the zone.
func (di *denialIndex) materialize(owner string, isHashed bool) *denialNode {
	if n, ok := di.byName[owner]; ok {
		return n
	}

	var chain []string
	if isHashed {
		chain = []string{owner}
	} else {
		chain = denialAncestorChain(owner, di.zone.name)
	}

	nearestIdx := len(chain)
	var nearest *denialNode
	for i, suffix := range chain {
		if n, ok := di.byName[suffix]; ok {
			nearest = n
			nearestIdx = i
			break
		}
	}

	var built []*denialNode
	for i := nearestIdx - 1; i >= 0; i-- {
		built = append(built, newDenialNode(di.zone, chain[i], isHashed))
	}

	parent := nearest
	for i := len(built) - 1; i >= 0; i-- {
		node := built[i]
		node.parent = parent
		di.byName[node.owner] = node
		parent = node
	}

	return di.byName[owner]
}

// denialAncestorChain returns owner and its strict ancestors, longest first,
// down to (but excluding) zoneApex — unless owner is the zone apex itself, in
// which case the chain is just that one name.
func denialAncestorChain(owner, zoneApex string) []string {
	if owner == zoneApex {
		return []string{owner}
	}
	chain := make([]string, 0, 8)
	for _, suffix := range ancestorChain(owner) {
		if suffix == zoneApex {
			break
		}
		chain = append(chain, suffix)
	}
	return chain
}

// promote marks n in-use (if it wasn't already), propagating a +1 use-count
// up its whole parent chain, links it into the LRU and the ordered covering
// index, and tells the zone index this zone just became in-use if n is its
// first live denial. Already-in-use nodes are simply touched.
func (di *denialIndex) promote(cache *Cache, n *denialNode) {
	if n.inUse {
		cache.touchLRU(n)
		return
	}

	n.inUse = true
	for cur := n; cur != nil; cur = cur.parent {
		cur.useCount++
	}

	di.insertOrdered(n)
	di.leafInUse++
	if di.leafInUse == 1 {
		cache.zones.markInUse(di.zone, true)
	}

	cache.lruPushFront(n)
	cache.bytesUsed += uint64(n.sizeBytes)
	cache.enforceCap()
}

// remove decrements n's use-count, taking it (and, by cascade, any ancestor
// whose use-count reaches zero) out of the index, §4.3. No-op if n isn't
// currently in-use.
func (di *denialIndex) remove(cache *Cache, n *denialNode) {
	if !n.inUse {
		return
	}

	n.inUse = false
	di.removeOrdered(n)
	cache.lruUnlink(n)
	cache.bytesUsed -= uint64(n.sizeBytes)
	di.leafInUse--

	for cur := n; cur != nil; cur = cur.parent {
		cur.useCount--
		if cur.useCount <= 0 && !cur.inUse {
			delete(di.byName, cur.owner)
		}
	}

	if di.leafInUse == 0 {
		cache.zones.markInUse(di.zone, false)
	}
}

// purgeAll removes every in-use denial in this zone (used when NSEC3
// parameters change under harden_algo_downgrade, §7 kind 2).
func (di *denialIndex) purgeAll(cache *Cache) {
	nodes := append([]*denialNode(nil), di.order...)
	for _, n := range nodes {
		di.remove(cache, n)
	}
}

// coveringCandidate returns the in-use denial with the largest owner that is
// <= target in canonical order, wrapping to the largest owner overall if
// target sorts before everything tracked (the zone-apex wraparound all NSEC
// and NSEC3 chains close with).
func (di *denialIndex) coveringCandidate(target string) (*denialNode, bool) {
	if len(di.order) == 0 {
		return nil, false
	}
	i := sort.Search(len(di.order), func(i int) bool {
		return canonicalCompare(di.order[i].owner, target) > 0
	})
	if i == 0 {
		return di.order[len(di.order)-1], true
	}
	return di.order[i-1], true
}

func (di *denialIndex) insertOrdered(n *denialNode) {
	i := sort.Search(len(di.order), func(i int) bool {
		return !denialOrderLess(di.order[i], n)
	})
	di.order = append(di.order, nil)
	copy(di.order[i+1:], di.order[i:])
	di.order[i] = n
}

func (di *denialIndex) removeOrdered(n *denialNode) {
	i := sort.Search(len(di.order), func(i int) bool {
		return !denialOrderLess(di.order[i], n)
	})
	for i < len(di.order) && di.order[i] != n {
		i++
	}
	if i < len(di.order) {
		di.order = append(di.order[:i], di.order[i+1:]...)
	}
}

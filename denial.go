package negcache

// denialNode is an entry in a zone's denial index (§3, §4.3): either a real,
// in-use NSEC/NSEC3 owner name we can reconstruct proofs from, or an interior
// placeholder kept so every in-use node's strict ancestors are reachable.
type denialNode struct {
	owner    string // canonical owner name (NSEC3: the hashed owner, still under the zone)
	labels   int
	isHashed bool // true for an NSEC3 owner; false for a plain-NSEC owner

	zone   *zoneNode
	parent *denialNode // nearest ancestor denial strictly below the zone apex, or nil (an apex denial is never a parent)

	inUse    bool
	useCount int

	sizeBytes int

	// Intrusive doubly-linked LRU list pointers. Only ever non-nil for leaf
	// in-use nodes; zones and interior nodes never join the LRU (invariant 4).
	lruPrev, lruNext *denialNode
}

func (n *denialNode) inLRU() bool {
	return n.lruPrev != nil || n.lruNext != nil
}

func newDenialNode(zone *zoneNode, owner string, isHashed bool) *denialNode {
	return &denialNode{
		owner:     owner,
		labels:    labelCount(owner),
		isHashed:  isHashed,
		zone:      zone,
		sizeBytes: denialNodeOverheadBytes + len(owner),
	}
}

// denialOrderLess orders two denial nodes of the same zone canonically. For
// NSEC3 zones, owners are opaque hash labels; canonicalCompare still gives the
// correct byte-wise ordering for them since they're treated as plain names.
func denialOrderLess(a, b *denialNode) bool {
	return canonicalCompare(a.owner, b.owner) < 0
}

package negcache

// nsec3Params describes a zone's NSEC3 hashing parameters, or the plain-NSEC
// sentinel when Plain is true.
type nsec3Params struct {
	Plain      bool
	HashAlg    uint8
	Iterations uint16
	Salt       string // hex-encoded, as carried on the wire
}

func (p nsec3Params) equal(o nsec3Params) bool {
	if p.Plain != o.Plain {
		return false
	}
	if p.Plain {
		return true
	}
	return p.HashAlg == o.HashAlg && p.Iterations == o.Iterations && p.Salt == o.Salt
}

// zoneNode is an entry in the zone index: either a tracked zone (inUse, with
// its own denial index and NSEC3 parameters) or an interior placeholder kept
// around purely so descendant zones have an unbroken ancestor chain.
type zoneNode struct {
	class  uint16
	name   string // canonical
	labels int

	parent *zoneNode

	inUse    bool
	useCount int

	params  nsec3Params
	denials *denialIndex
}

func (z *zoneNode) key() zoneKey {
	return zoneKey{class: z.class, name: z.name}
}

type zoneKey struct {
	class uint16
	name  string
}

// zoneOrderLess defines the zone index's sort order: canonical name first,
// numeric class ascending as the tie-break for equal names.
func zoneOrderLess(a, b *zoneNode) bool {
	if c := canonicalCompare(a.name, b.name); c != 0 {
		return c < 0
	}
	return a.class < b.class
}

func newInteriorZone(class uint16, name string) *zoneNode {
	return &zoneNode{
		class:  class,
		name:   name,
		labels: labelCount(name),
	}
}

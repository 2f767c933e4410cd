package negcache

import (
	"sync"

	"github.com/jmhodges/clock"
)

// Question is the (name, type, class) GetMessage and DLVLookup are asked
// about, mirroring dns.Question without pulling in its RRSIG-era Qclass/Qtype
// naming.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// SynthesisStatus is GetMessage's tri-valued result, §7.
type SynthesisStatus int

const (
	// StatusReply means the returned message is a complete, ready-to-revalidate
	// synthesized negative answer.
	StatusReply SynthesisStatus = iota
	// StatusNoProof means no usable denial was found, or one was found but had
	// expired; the caller should fall back to iterative resolution.
	StatusNoProof
	// StatusError is reserved for resource exhaustion while assembling the reply.
	StatusError
)

func (s SynthesisStatus) String() string {
	switch s {
	case StatusReply:
		return "reply"
	case StatusNoProof:
		return "no_proof"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ProbeResult is DLVLookup's result, §4.7.
type ProbeResult int

const (
	// ProbeNoProof means the cache cannot currently prove name's absence.
	ProbeNoProof ProbeResult = iota
	// ProbeProvenAbsent means a fresh denial proves name does not exist.
	ProbeProvenAbsent
)

// Cache is the aggressive negative cache, §3-§6: a zone index of per-zone
// denial indices, a single global LRU over every in-use leaf denial, and a
// byte budget enforced across the whole tree. All public operations hold mu
// for their full critical section, except the RRset-cache lookups synthesis
// performs between dropping and re-acquiring it, §5.
type Cache struct {
	mu sync.Mutex

	zones *zoneIndex

	lruHead, lruTail *denialNode
	bytesUsed        uint64
	capBytes         uint64

	nsec3MaxIter        uint16
	hardenAlgoDowngrade bool

	clock Clock

	closed bool

	evictionsTotal uint64
	metrics        *metrics
}

// New creates a Cache with the given byte budget and NSEC3 iteration cap
// (§6's `create`). harden_algo_downgrade defaults to on; override with
// WithHardenAlgoDowngrade.
func New(capBytes uint64, nsec3MaxIter uint16, opts ...Option) *Cache {
	c := &Cache{
		zones:               newZoneIndex(),
		capBytes:            capBytes,
		nsec3MaxIter:        nsec3MaxIter,
		hardenAlgoDowngrade: DefaultHardenAlgoDowngrade,
		clock:               clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the cache's state (§6's `destroy`). The caller must ensure
// no other goroutine is still calling into c.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.zones = newZoneIndex()
	c.lruHead, c.lruTail = nil, nil
	c.bytesUsed = 0
}

// MemoryInUse reports the current byte count charged against capBytes.
func (c *Cache) MemoryInUse() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesUsed
}

func (c *Cache) recordEviction() {
	c.evictionsTotal++
	if c.metrics != nil {
		c.metrics.evictionsTotal.Inc()
	}
}

func (c *Cache) recordSynthesis(result SynthesisStatus) {
	if c.metrics != nil {
		c.metrics.synthesisTotal.WithLabelValues(result.String()).Inc()
	}
}

func (c *Cache) leafCountLocked() int {
	n := 0
	for cur := c.lruHead; cur != nil; cur = cur.lruNext {
		n++
	}
	return n
}

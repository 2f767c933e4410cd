package negcache

const (
	// DefaultNSEC3MaxIterations is a conventional value for New's nsec3MaxIter argument
	// (derived, in a full resolver, from val_nsec3_keysize_iterations). New always takes
	// the cap explicitly and does not fall back to this constant.
	DefaultNSEC3MaxIterations = uint16(150)

	// DefaultHardenAlgoDowngrade matches harden_algo_downgrade's recommended default: on.
	DefaultHardenAlgoDowngrade = true

	// denialNodeOverheadBytes is the fixed per-node bookkeeping cost (parent/LRU pointers,
	// flags, counters) charged against the byte cap in addition to the owner name's length.
	denialNodeOverheadBytes = 96
)

// Logger is the injectable logging seam, matching the teacher repo's pattern of
// package-level function variables rather than a logging interface. Default
// functions black-hole the input.
type Logger func(string)

var (
	Query Logger = func(s string) {}
	Debug Logger = func(s string) {}
	Info  Logger = func(s string) {}
	Warn  Logger = func(s string) {}
)

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithHardenAlgoDowngrade controls whether an NSEC3PARAM change for a zone purges
// that zone's denials (harden_algo_downgrade). Default: true.
func WithHardenAlgoDowngrade(enabled bool) Option {
	return func(c *Cache) {
		c.hardenAlgoDowngrade = enabled
	}
}

// WithClock overrides the injected Clock collaborator. Tests use clock.NewFake().
func WithClock(clk Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// WithMetrics registers the cache's Prometheus collectors against reg.
// If not supplied, no metrics are registered.
func WithMetrics(reg Registerer) Option {
	return func(c *Cache) {
		c.registerMetrics(reg)
	}
}

package negcache

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the cache's four Prometheus collectors (SPEC_FULL.md §4.8,
// an expansion with no counterpart in spec.md). Built lazily by WithMetrics;
// a Cache with no Registerer configured leaves this nil and every record*
// call is a no-op.
type metrics struct {
	bytesInUse     prometheus.GaugeFunc
	denialsTotal   prometheus.GaugeFunc
	evictionsTotal prometheus.Counter
	synthesisTotal *prometheus.CounterVec
}

func (c *Cache) newMetrics() *metrics {
	return &metrics{
		bytesInUse: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "negcache_bytes_in_use",
			Help: "Bytes currently charged against the negative cache's byte budget.",
		}, func() float64 {
			c.mu.Lock()
			defer c.mu.Unlock()
			return float64(c.bytesUsed)
		}),
		denialsTotal: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "negcache_denials_total",
			Help: "Number of in-use leaf NSEC/NSEC3 denials currently cached.",
		}, func() float64 {
			c.mu.Lock()
			defer c.mu.Unlock()
			return float64(c.leafCountLocked())
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "negcache_evictions_total",
			Help: "LRU evictions performed to stay within the byte budget.",
		}),
		synthesisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "negcache_synthesis_total",
			Help: "GetMessage outcomes, by result.",
		}, []string{"result"}),
	}
}

// registerMetrics builds and registers the cache's collectors against reg.
// Called from WithMetrics; a nil reg leaves metrics disabled.
func (c *Cache) registerMetrics(reg Registerer) {
	if reg == nil {
		return
	}
	m := c.newMetrics()
	reg.MustRegister(m.bytesInUse, m.denialsTotal, m.evictionsTotal, m.synthesisTotal)
	c.metrics = m
}

package indexer

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Ticker's operational counters/gauges. Instance-scoped
// rather than package-global so multiple Tickers (as in tests) never
// collide on Prometheus's default registry; callers register the
// returned collectors into their own *prometheus.Registry.
type Metrics struct {
	TickDuration  prometheus.Histogram
	ReorgDepth    prometheus.Gauge
	BlocksIndexed prometheus.Counter
	OutputsByType *prometheus.CounterVec
}

// NewMetrics builds a fresh, unregistered set of collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "klingindex",
			Subsystem: "indexer",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one Indexer tick, including any rollback and forward apply.",
			Buckets:   prometheus.DefBuckets,
		}),
		ReorgDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "klingindex",
			Subsystem: "indexer",
			Name:      "reorg_depth_blocks",
			Help:      "Depth of the most recently handled reorg, in blocks.",
		}),
		BlocksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "klingindex",
			Subsystem: "indexer",
			Name:      "blocks_indexed_total",
			Help:      "Total blocks successfully applied to the Store.",
		}),
		OutputsByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "klingindex",
			Subsystem: "indexer",
			Name:      "outputs_indexed_total",
			Help:      "Funding outputs indexed, broken down by locking script type.",
		}, []string{"script_type"}),
	}
}

// Collectors returns every metric for bulk registration, e.g.
// registry.MustRegister(m.Collectors()...).
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.TickDuration, m.ReorgDepth, m.BlocksIndexed, m.OutputsByType}
}

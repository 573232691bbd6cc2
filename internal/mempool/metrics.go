package mempool

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the mirror's operational counters/gauges. Instance-scoped,
// like internal/indexer.Metrics, so multiple Mempools (as in tests) never
// collide on Prometheus's default registry.
type Metrics struct {
	UpdateDuration prometheus.Histogram
	Size           prometheus.Gauge
}

// NewMetrics builds a fresh, unregistered set of collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		UpdateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "klingindex",
			Subsystem: "mempool",
			Name:      "update_duration_seconds",
			Help:      "Duration of one mempool sync cycle against the collaborator node.",
			Buckets:   prometheus.DefBuckets,
		}),
		Size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "klingindex",
			Subsystem: "mempool",
			Name:      "size_transactions",
			Help:      "Number of transactions currently mirrored from the node's mempool.",
		}),
	}
}

// Collectors returns every metric for bulk registration, e.g.
// registry.MustRegister(m.Collectors()...).
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.UpdateDuration, m.Size}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	PropertiesCreated *prometheus.CounterVec
	CreateDuration    prometheus.Histogram
	LookupDuration    prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		PropertiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deedledger_properties_created_total",
			Help: "Total number of properties registered, by artifact kind",
		}, []string{"kind"}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deedledger_registry_create_duration_seconds",
			Help:    "Duration of registry creation operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deedledger_registry_lookup_duration_seconds",
			Help:    "Duration of registry lookup operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_registry_cache_hits_total",
			Help: "Registry lookup cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_registry_cache_misses_total",
			Help: "Registry lookup cache misses",
		}),
	}
}

// IncPropertiesCreated records a successful registration for one kind.
func (m *Metrics) IncPropertiesCreated(kind string) {
	m.PropertiesCreated.WithLabelValues(kind).Inc()
}

// ObserveCreate records the duration of a creation operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveLookup records the duration of a lookup operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}

// RecordCacheHit counts a lookup served from the cache.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss counts a lookup that fell through to the store.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

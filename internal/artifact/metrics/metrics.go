package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for artifact operations.
type Metrics struct {
	UnitsMinted             prometheus.Counter
	CapacityRejections      prometheus.Counter
	AdministrationTransfers prometheus.Counter
	MintDuration            prometheus.Histogram
}

// New creates and registers all artifact metrics.
func New() *Metrics {
	return &Metrics{
		UnitsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_units_minted_total",
			Help: "Total number of unit identifiers minted across all artifacts",
		}),
		CapacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_mint_capacity_rejections_total",
			Help: "Total number of mint attempts rejected for exceeding max supply",
		}),
		AdministrationTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_administration_transfers_total",
			Help: "Total number of artifact administration hand-offs",
		}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deedledger_mint_duration_seconds",
			Help:    "Duration of mint operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// AddUnitsMinted records n successfully minted units.
func (m *Metrics) AddUnitsMinted(n uint64) {
	m.UnitsMinted.Add(float64(n))
}

// IncCapacityRejections records a mint rejected at the cap.
func (m *Metrics) IncCapacityRejections() {
	m.CapacityRejections.Inc()
}

// IncAdministrationTransfers records a completed administration hand-off.
func (m *Metrics) IncAdministrationTransfers() {
	m.AdministrationTransfers.Inc()
}

// ObserveMint records the duration of a mint operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveMint(start time.Time) {
	m.MintDuration.Observe(time.Since(start).Seconds())
}

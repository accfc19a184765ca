// Package metrics instruments the daemon: LSDB size, neighbor-state
// transitions and SPT recompute counters/latency, registered on a
// caller-supplied prometheus.Registerer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the daemon updates. Construct with New
// and pass the result to Register once a prometheus.Registerer is
// available (ordinarily prometheus.DefaultRegisterer, wired in
// cmd/ospfd).
type Metrics struct {
	LSDBEntries         *prometheus.GaugeVec
	NeighborStateTotal  *prometheus.CounterVec
	NeighborsByState    *prometheus.GaugeVec
	SPTRecomputeTotal   prometheus.Counter
	SPTRecomputeSeconds prometheus.Histogram
	RoutingTableEntries prometheus.Gauge
}

// New constructs an unregistered Metrics.
func New() *Metrics {
	return &Metrics{
		LSDBEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ospfd",
			Name:      "lsdb_entries",
			Help:      "Number of LSAs currently stored, by area and LSA type.",
		}, []string{"area", "ls_type"}),
		NeighborStateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ospfd",
			Name:      "neighbor_state_transitions_total",
			Help:      "Count of neighbor FSM transitions, by resulting state.",
		}, []string{"state"}),
		NeighborsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ospfd",
			Name:      "neighbors",
			Help:      "Current number of neighbors in each FSM state.",
		}, []string{"state"}),
		SPTRecomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ospfd",
			Name:      "spt_recompute_total",
			Help:      "Count of full routing table recomputations.",
		}),
		SPTRecomputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ospfd",
			Name:      "spt_recompute_seconds",
			Help:      "Latency of a full routing table recomputation.",
			Buckets:   prometheus.DefBuckets,
		}),
		RoutingTableEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ospfd",
			Name:      "routing_table_entries",
			Help:      "Number of entries in the most recently computed routing table.",
		}),
	}
}

// Register adds every collector to reg. Call once at startup.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.LSDBEntries,
		m.NeighborStateTotal,
		m.NeighborsByState,
		m.SPTRecomputeTotal,
		m.SPTRecomputeSeconds,
		m.RoutingTableEntries,
	)
}

// ObserveRecompute records one spt.Recompute call's duration and
// resulting table size.
func (m *Metrics) ObserveRecompute(d time.Duration, tableSize int) {
	m.SPTRecomputeTotal.Inc()
	m.SPTRecomputeSeconds.Observe(d.Seconds())
	m.RoutingTableEntries.Set(float64(tableSize))
}

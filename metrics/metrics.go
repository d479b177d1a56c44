// Package metrics provides Prometheus instrumentation for the projection engine.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one portfolio. A nil *Metrics records nothing.
type Metrics struct {
	// Projections counts ledger replays.
	Projections prometheus.Counter
	// Rejections counts transactions whose effect was rejected during a replay, by type.
	Rejections *prometheus.CounterVec
	// Duration is the replay duration in seconds.
	Duration prometheus.Histogram
	// Transactions is the number of transactions in the ledger after the last replay.
	Transactions prometheus.Gauge
	// Refused counts transaction requests refused at validation, by type.
	Refused *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Projections: f.NewCounter(prometheus.CounterOpts{
			Name: "vp_projections_total",
			Help: "Total number of ledger replays",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vp_rejections_total",
			Help: "Transactions rejected during a replay",
		}, []string{"type"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vp_projection_duration_seconds",
			Help:    "Ledger replay duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		Transactions: f.NewGauge(prometheus.GaugeOpts{
			Name: "vp_ledger_transactions",
			Help: "Number of transactions in the ledger",
		}),
		Refused: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vp_refused_requests_total",
			Help: "Transaction requests refused at validation",
		}, []string{"type"}),
	}
}

// NewRegistry creates Metrics on a private registry that can later be written with WriteFile.
func NewRegistry() *Metrics {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.registry = reg
	return m
}

// ObserveProjection records one replay of txs transactions. rejected lists
// the type of every rejected transaction.
func (m *Metrics) ObserveProjection(d time.Duration, txs int, rejected []string) {
	if m == nil {
		return
	}
	m.Projections.Inc()
	m.Duration.Observe(d.Seconds())
	m.Transactions.Set(float64(txs))
	for _, t := range rejected {
		m.Rejections.WithLabelValues(t).Inc()
	}
}

// ObserveRefused records a refused transaction request.
func (m *Metrics) ObserveRefused(txType string) {
	if m == nil {
		return
	}
	m.Refused.WithLabelValues(txType).Inc()
}

// WriteFile writes the metrics in the Prometheus text format, for the node exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || m.registry == nil {
		return fmt.Errorf("metrics have no private registry")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

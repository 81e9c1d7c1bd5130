package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decode outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors for the decode service.
type Metrics struct {
	Decodes        *prometheus.CounterVec // labels: outcome={ok,fallback,error}, kind
	DecodeDuration prometheus.Histogram
	ValidFraction  prometheus.Gauge
	Samples        prometheus.Histogram
	Defaulted      *prometheus.CounterVec // labels: stage
	Cache          *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		Decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mrms",
			Name:      "decodes_total",
			Help:      "GRIB2 decode attempts by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mrms",
			Name:      "decode_duration_seconds",
			Help:      "Duration of a full decode and sampling pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ValidFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mrms",
			Name:      "valid_fraction",
			Help:      "Share of non-missing grid points in the last accepted decode.",
		}),
		Samples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mrms",
			Name:      "samples_emitted",
			Help:      "Geo-samples emitted per product.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		Defaulted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mrms",
			Name:      "defaulted_stages_total",
			Help:      "Decoder stages that fell back to defaults.",
		}, []string{"stage"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mrms",
			Name:      "cache_total",
			Help:      "Product cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Decodes,
		m.DecodeDuration,
		m.ValidFraction,
		m.Samples,
		m.Defaulted,
		m.Cache,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere,
// so tests can build as many as they like.
func NewMetricsForTesting() *Metrics { return newMetrics() }

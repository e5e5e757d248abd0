package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup results recorded by LoaderMetrics.
const (
	ResultHit      = "hit"
	ResultLoaded   = "loaded"
	ResultMiss     = "miss"
	ResultExcluded = "excluded"
	ResultError    = "error"
)

// Reasons a unit is passed over during resolution.
const (
	ReasonBroken  = "broken"
	ReasonInvalid = "no_valid_member"
	ReasonListing = "listing_failed"
)

// LoaderMetrics holds the Prometheus metrics shared by all loaders. Every
// method is safe to call on a nil receiver, so loaders built without metrics
// need no special casing.
type LoaderMetrics struct {
	LookupsTotal      *prometheus.CounterVec
	LoadDuration      *prometheus.HistogramVec
	UnitsSkippedTotal *prometheus.CounterVec
}

// NewLoaderMetrics creates and registers the loader metrics
func NewLoaderMetrics(registry prometheus.Registerer) *LoaderMetrics {
	m := &LoaderMetrics{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugload_lookups_total",
				Help: "Total number of plugin lookups by result",
			},
			[]string{"loader", "result"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plugload_load_duration_seconds",
				Help:    "Time spent resolving a plugin that was not cached",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"loader"},
		),
		UnitsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugload_units_skipped_total",
				Help: "Total number of plugin units passed over during resolution",
			},
			[]string{"loader", "reason"},
		),
	}

	registry.MustRegister(
		m.LookupsTotal,
		m.LoadDuration,
		m.UnitsSkippedTotal,
	)

	return m
}

// ObserveLookup counts one lookup with the given result.
func (m *LoaderMetrics) ObserveLookup(loader, result string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(loader, result).Inc()
}

// ObserveLoad records the duration of an uncached resolution.
func (m *LoaderMetrics) ObserveLoad(loader string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(loader).Observe(d.Seconds())
}

// UnitSkipped counts a unit that could not supply the plugin.
func (m *LoaderMetrics) UnitSkipped(loader, reason string) {
	if m == nil {
		return
	}
	m.UnitsSkippedTotal.WithLabelValues(loader, reason).Inc()
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

// Package observability holds the Prometheus metrics of the map server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges of the map server.
type Metrics struct {
	ScaleChanges  prometheus.Counter
	StyleUpdates  *prometheus.CounterVec // labels: layer
	ViewerStreams prometheus.Gauge

	// Overlay panel metrics.
	OverlayEvents *prometheus.CounterVec // labels: event={info,legend,search}

	// Search metrics.
	Searches         *prometheus.CounterVec // labels: outcome={found,partial,empty,error}
	PopupsOpened     *prometheus.CounterVec // labels: source={primary,hex}
	SearchSuperseded prometheus.Counter
	HexQueryDuration prometheus.Histogram

	// Feature store metrics.
	FeaturesLoaded *prometheus.GaugeVec // labels: dataset={hex,places}
}

const namespace = "hazard_map"

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScaleChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scale_changes_total",
			Help:      "Map scale changes applied by the style controller.",
		}),
		StyleUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "style_updates_total",
			Help:      "Layer style writes by layer.",
		}, []string{"layer"}),
		ViewerStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewer_streams",
			Help:      "Open viewer event streams.",
		}),
		OverlayEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_events_total",
			Help:      "Overlay panel events by kind.",
		}, []string{"event"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches by outcome.",
		}, []string{"outcome"}),
		PopupsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "popups_opened_total",
			Help:      "Popups shown by the branch that opened them.",
		}, []string{"source"}),
		SearchSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_superseded_total",
			Help:      "Searches cancelled by a newer search before completing.",
		}),
		HexQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hex_query_duration_seconds",
			Help:      "Duration of the hexagon intersect query.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		FeaturesLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features_loaded",
			Help:      "Features in the local store by dataset.",
		}, []string{"dataset"}),
	}

	prometheus.MustRegister(
		m.ScaleChanges,
		m.StyleUpdates,
		m.ViewerStreams,
		m.OverlayEvents,
		m.Searches,
		m.PopupsOpened,
		m.SearchSuperseded,
		m.HexQueryDuration,
		m.FeaturesLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with no registration to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScaleChanges:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "scale_changes_total"}),
		StyleUpdates:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "style_updates_total"}, []string{"layer"}),
		ViewerStreams:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "viewer_streams"}),
		OverlayEvents:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "overlay_events_total"}, []string{"event"}),
		Searches:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "searches_total"}, []string{"outcome"}),
		PopupsOpened:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "popups_opened_total"}, []string{"source"}),
		SearchSuperseded: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "search_superseded_total"}),
		HexQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "hex_query_duration_seconds"}),
		FeaturesLoaded:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "features_loaded"}, []string{"dataset"}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// CatalogChanges counts registry mutations
	CatalogChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_catalog_changes_total",
			Help: "Total number of catalog mutations",
		},
		[]string{"entity", "kind"}, // kind: created, updated, deleted, reset
	)

	// CatalogMetrics tracks the number of metrics held by the registry
	CatalogMetrics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datasage_catalog_metrics",
			Help: "Number of metrics in the catalog",
		},
	)

	// Derivations counts derived metric synthesis attempts
	Derivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_derivations_total",
			Help: "Total number of derived metric synthesis attempts",
		},
		[]string{"mode", "result"}, // result: success, invalid, not_found, error
	)

	// MetricViews counts metric profile views. Slugs are user defined, so
	// views are split by metric status only.
	MetricViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_metric_views_total",
			Help: "Total number of metric profile views",
		},
		[]string{"status"}, // Draft, Active
	)

	// EventsEnqueued counts change events handed to the queue
	EventsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_events_enqueued_total",
			Help: "Total number of change events enqueued",
		},
		[]string{"entity", "status"}, // status: success, failed
	)

	// EventsProcessed counts change events consumed by the worker
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_events_processed_total",
			Help: "Total number of change events processed",
		},
		[]string{"entity", "kind"},
	)

	// EventLag measures the delay between a mutation and its processing
	EventLag = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datasage_event_lag_seconds",
			Help:    "Delay between a catalog change and its processing",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)

	// CatalogResets counts scheduled fixture reloads
	CatalogResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_catalog_resets_total",
			Help: "Total number of scheduled catalog resets",
		},
		[]string{"status"}, // status: success, failed
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasage_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordCatalogChange records a registry mutation
func RecordCatalogChange(entity, kind string) {
	CatalogChanges.WithLabelValues(entity, kind).Inc()
}

// SetCatalogMetrics records the current metric count
func SetCatalogMetrics(count int) {
	CatalogMetrics.Set(float64(count))
}

// RecordDerivation records the outcome of a synthesis attempt
func RecordDerivation(mode, result string) {
	Derivations.WithLabelValues(mode, result).Inc()
}

// RecordMetricView records a profile view
func RecordMetricView(status string) {
	MetricViews.WithLabelValues(status).Inc()
}

// RecordEventEnqueued records a change event publication
func RecordEventEnqueued(entity, status string) {
	EventsEnqueued.WithLabelValues(entity, status).Inc()
}

// RecordEventProcessed records a consumed change event and its lag
func RecordEventProcessed(entity, kind string, lagSeconds float64) {
	EventsProcessed.WithLabelValues(entity, kind).Inc()

	if lagSeconds >= 0 {
		EventLag.Observe(lagSeconds)
	}
}

// RecordCatalogReset records a scheduled reset
func RecordCatalogReset(status string) {
	CatalogResets.WithLabelValues(status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

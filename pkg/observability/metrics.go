package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	ItemsCreated        prometheus.Counter
	BranchFailures      *prometheus.CounterVec
	MaterializeRequests *prometheus.CounterVec
	MaterializeDuration prometheus.Histogram
	RootListings        *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry so several
// collectors can coexist in one process (tests, lambda warm starts).
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ItemsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "menu_items_created_total",
				Help:      "Total number of menu items created from categories",
			},
		),
		BranchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "branch_failures_total",
				Help:      "Category branches abandoned during materialization, by failure kind",
			},
			[]string{"kind"},
		),
		MaterializeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "materialize_requests_total",
				Help:      "Add-to-menu requests by outcome",
			},
			[]string{"outcome"},
		),
		MaterializeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "materialize_duration_seconds",
				Help:      "Time spent materializing a selection into a menu",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RootListings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "root_category_listings_total",
				Help:      "Root category listings by result",
			},
			[]string{"result"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Calls into taxonomy and menu stores",
			},
			[]string{"store", "operation", "status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ItemsCreated,
		c.BranchFailures,
		c.MaterializeRequests,
		c.MaterializeDuration,
		c.RootListings,
		c.StoreOperations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordItemCreated counts a created menu item
func (c *Collector) RecordItemCreated() {
	if c == nil {
		return
	}
	c.ItemsCreated.Inc()
}

// RecordBranchFailure counts an abandoned branch
func (c *Collector) RecordBranchFailure(kind string) {
	if c == nil {
		return
	}
	c.BranchFailures.WithLabelValues(kind).Inc()
}

// RecordMaterialization records the outcome of an add-to-menu request
func (c *Collector) RecordMaterialization(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.MaterializeRequests.WithLabelValues(outcome).Inc()
	if duration > 0 {
		c.MaterializeDuration.Observe(duration.Seconds())
	}
}

// RecordRootListing records whether a root listing produced selectable categories
func (c *Collector) RecordRootListing(result string) {
	if c == nil {
		return
	}
	c.RootListings.WithLabelValues(result).Inc()
}

// RecordStoreOperation records a call into a store
func (c *Collector) RecordStoreOperation(store, operation string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.StoreOperations.WithLabelValues(store, operation, status).Inc()
}

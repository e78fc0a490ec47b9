package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extraction outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeEmpty           = "empty"
	OutcomeParseFailed     = "parse_failed"
	OutcomeTransportFailed = "transport_failed"
)

// Collector holds the Prometheus metrics for extraction and ingest. All
// methods are safe to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	ModelAttempts      prometheus.Counter
	Extractions        *prometheus.CounterVec
	ItemsSkipped       *prometheus.CounterVec
	UnknownLabels      *prometheus.CounterVec
	NodesUpserted      prometheus.Counter
	LinksFailed        prometheus.Counter
	ExtractionDuration prometheus.Histogram
}

// NewCollector creates a collector backed by its own registry so tests can
// build as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ModelAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_attempts_total",
			Help:      "Total number of language-model calls made during extraction",
		}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of transcript extractions by outcome",
		}, []string{"outcome"}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "Total number of extracted items rejected by validation",
		}, []string{"kind"}),
		UnknownLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_labels_total",
			Help:      "Total number of accepted nodes whose label is outside the known vocabulary",
		}, []string{"field"}),
		NodesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_upserted_total",
			Help:      "Total number of energy nodes written to the vector store",
		}),
		LinksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_failed_total",
			Help:      "Total number of source links that failed to ingest",
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of a single transcript extraction",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	registry.MustRegister(
		c.ModelAttempts,
		c.Extractions,
		c.ItemsSkipped,
		c.UnknownLabels,
		c.NodesUpserted,
		c.LinksFailed,
		c.ExtractionDuration,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the exposition format for this collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ModelAttempt() {
	if c == nil {
		return
	}
	c.ModelAttempts.Inc()
}

func (c *Collector) Extraction(outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.Extractions.WithLabelValues(outcome).Inc()
	c.ExtractionDuration.Observe(took.Seconds())
}

func (c *Collector) ItemSkipped(kind string) {
	if c == nil {
		return
	}
	c.ItemsSkipped.WithLabelValues(kind).Inc()
}

// UnknownLabel counts a free-form category or energy_node value.
func (c *Collector) UnknownLabel(field string) {
	if c == nil {
		return
	}
	c.UnknownLabels.WithLabelValues(field).Inc()
}

func (c *Collector) Upserted(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.NodesUpserted.Add(float64(n))
}

func (c *Collector) LinkFailed() {
	if c == nil {
		return
	}
	c.LinksFailed.Inc()
}

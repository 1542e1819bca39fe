package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medscheduler"

// Generation outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeInvalidConfig = "invalid_config"
	OutcomeError         = "error"
)

// Collector owns the medscheduler collectors on a private registry
type Collector struct {
	registry *prometheus.Registry

	datasetsGenerated     *prometheus.CounterVec
	appointmentsGenerated *prometheus.CounterVec
	generationDuration    prometheus.Histogram
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
}

// NewCollector creates the collectors and registers them with the Go and process collectors
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		datasetsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datasets_generated_total",
				Help:      "Total number of dataset generation runs",
			},
			[]string{"outcome"},
		),
		appointmentsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "appointments_generated_total",
				Help:      "Total number of generated appointments",
			},
			[]string{"status"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of dataset generation in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.datasetsGenerated,
		c.appointmentsGenerated,
		c.generationDuration,
		c.httpRequestsTotal,
		c.httpRequestDuration,
	)

	return c
}

// RecordGeneration records one generation run and, on success, its appointments by status
func (c *Collector) RecordGeneration(outcome string, duration time.Duration, appointmentsByStatus map[string]int) {
	c.datasetsGenerated.WithLabelValues(outcome).Inc()
	c.generationDuration.Observe(duration.Seconds())
	for status, n := range appointmentsByStatus {
		c.appointmentsGenerated.WithLabelValues(status).Add(float64(n))
	}
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler for this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

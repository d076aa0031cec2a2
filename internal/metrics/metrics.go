// Package metrics exposes Prometheus collectors for the HTTP front ends and
// the image operations they run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "photo_editor"

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder receives request and operation observations.
type Recorder interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
	ObserveOperation(operation, result string)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, float64) {}
func (Noop) ObserveOperation(string, string)                {}

// Prom implements Recorder on a dedicated Prometheus registry, so several
// instances can coexist in one process.
type Prom struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

// NewProm builds the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_operations_total",
			Help:      "Image operations by operation/result",
		}, []string{"operation", "result"}),
	}
	p.registry.MustRegister(
		p.requests,
		p.latency,
		p.operations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

func (p *Prom) ObserveOperation(operation, result string) {
	p.operations.WithLabelValues(operation, result).Inc()
}

// Registry returns the registry the collectors live on.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Package metrics owns the Prometheus registry of a guardian server and the
// collectors fed by the record store and the HTTP layer.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/guardian/internal/common"
)

const namespace = "guardian"

const (
	MetricStoreOperations = "store_operations_total"
	MetricStoreDuration   = "store_operation_duration_seconds"
	MetricHTTPRequests    = "http_requests_total"
	MetricHTTPDuration    = "http_request_duration_seconds"
)

type Metrics struct {
	Registry *prometheus.Registry

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New builds a registry with the process and Go runtime collectors plus the
// guardian collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricStoreOperations,
				Help:      "Record store operations by collection, operation and outcome.",
			},
			[]string{"collection", "op", "result"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricStoreDuration,
				Help:      "Record store operation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricHTTPRequests,
				Help:      "HTTP requests by route pattern, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricHTTPDuration,
				Help:      "HTTP request latency by route pattern.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storeOps, m.storeDuration, m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Result classifies an operation outcome into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrAlreadyExists):
		return "exists"
	case errors.Is(err, common.ErrConflict):
		return "conflict"
	case errors.Is(err, common.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveStoreOp(collection, op string, err error, d time.Duration) {
	m.storeOps.WithLabelValues(collection, op, Result(err)).Inc()
	m.storeDuration.WithLabelValues(collection, op).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

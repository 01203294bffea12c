package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the back-office
// API: HTTP request metrics plus domain counters for the return lifecycle
// and recompute engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	returnTransitions     *prometheus.CounterVec
	recomputeBatches      *prometheus.CounterVec
	recomputeItemFailures prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	returnTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "return_transitions_total",
		Help: "Return case transitions by target status and outcome",
	}, []string{"target", "outcome"})

	recomputeBatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_batches_total",
		Help: "Completed recompute batches by kind",
	}, []string{"kind"})

	recomputeItemFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recompute_item_failures_total",
		Help: "Order items skipped during recompute batches",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, returnTransitions, recomputeBatches, recomputeItemFailures, goroutines)

	return &MetricsService{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		returnTransitions:     returnTransitions,
		recomputeBatches:      recomputeBatches,
		recomputeItemFailures: recomputeItemFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveReturnTransition counts a transition attempt by target and outcome
// (applied, rejected, conflict).
func (m *MetricsService) ObserveReturnTransition(target, outcome string) {
	if m == nil {
		return
	}
	m.returnTransitions.WithLabelValues(target, outcome).Inc()
}

// ObserveRecomputeBatch counts one completed recompute batch.
func (m *MetricsService) ObserveRecomputeBatch(kind string) {
	if m == nil {
		return
	}
	m.recomputeBatches.WithLabelValues(kind).Inc()
}

// ObserveRecomputeItemFailure counts one skipped item.
func (m *MetricsService) ObserveRecomputeItemFailure() {
	if m == nil {
		return
	}
	m.recomputeItemFailures.Inc()
}

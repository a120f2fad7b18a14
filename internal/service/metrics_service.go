package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API,
// the search engine and the Redis memoisation layer.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	searchTotal     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	exportTotal     *prometheus.CounterVec
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

	searchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "combination_search_duration_seconds",
		Help:    "Duration of combination searches",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})

	searchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "combination_searches_total",
		Help: "Total combination searches by final state",
	}, []string{"state"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Searches answered from the memoisation cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Searches that had to run the backtracking walk",
	})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Generated export files by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, searchDuration, searchTotal, cacheHits, cacheMisses, exportTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		searchDuration:  searchDuration,
		searchTotal:     searchTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		exportTotal:     exportTotal,
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

// RecordSearch records a finished (or memoised) combination search.
func (m *MetricsService) RecordSearch(state string, duration time.Duration, cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
	m.searchTotal.WithLabelValues(state).Inc()
	m.searchDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordExport counts a generated export file.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportTotal.WithLabelValues(format).Inc()
}

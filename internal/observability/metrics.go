// Package observability exposes Prometheus instrumentation for the HTTP server
// and the report pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportLoads     *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
}

// SEC companyfacts downloads take seconds, cache hits take milliseconds.
var reportBuckets = []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 20}

// NewMetrics builds the registry with the HTTP and report collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracemoney_http_requests_total",
			Help: "HTTP requests partitioned by route pattern and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracemoney_http_request_duration_seconds",
			Help:    "HTTP request latency per route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		reportLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracemoney_report_loads_total",
			Help: "Company report loads by source (cache or sec) and outcome.",
		}, []string{"source", "outcome"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracemoney_report_load_duration_seconds",
			Help:    "Time to produce a company report by source.",
			Buckets: reportBuckets,
		}, []string{"source"}),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.reportLoads, m.reportDuration)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry so other packages can add collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Middleware records one observation per request, labelled by chi route
// pattern so that /api/financials/AAPL and /api/financials/MSFT share a series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := routePattern(r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveReportLoad records how a company report was served.
func (m *Metrics) ObserveReportLoad(source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reportLoads.WithLabelValues(source, outcome).Inc()
	m.reportDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

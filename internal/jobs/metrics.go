package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs      *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	warmed    *prometheus.CounterVec
	directory prometheus.Gauge

	lastSuccess *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker times one job run. The zero value records nothing.
type Tracker struct {
	m     *Metrics
	job   string
	start time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) Tracker {
	return Tracker{m: m, job: job, start: time.Now()}
}

// End records the run outcome and hands err back to the caller.
func (t Tracker) End(err error) error {
	if t.m == nil || t.job == "" {
		return err
	}
	finished := time.Now()
	t.m.duration.WithLabelValues(t.job).Observe(finished.Sub(t.start).Seconds())
	if err != nil {
		t.m.failures.WithLabelValues(t.job).Inc()
		t.m.runs.WithLabelValues(t.job, "failure").Inc()
		return err
	}
	t.m.runs.WithLabelValues(t.job, "success").Inc()
	t.m.lastSuccess.WithLabelValues(t.job).Set(float64(finished.Unix()))
	return nil
}

// Warmup outcomes.
const (
	OutcomeLoaded  = "loaded"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// AddWarmed counts tickers handled by the report warmup, by outcome.
func (m *Metrics) AddWarmed(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.warmed.WithLabelValues(outcome).Add(float64(count))
}

// SetDirectorySize records how many companies the ticker directory holds.
func (m *Metrics) SetDirectorySize(n int) {
	if m == nil {
		return
	}
	m.directory.Set(float64(n))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracemoney_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracemoney_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracemoney_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	warmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracemoney_financials_warmup_total",
		Help: "Tickers processed by the report warmup grouped by outcome.",
	}, []string{"outcome"})
	directory := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracemoney_ticker_directory_size",
		Help: "Companies held by the ticker directory after the last refresh.",
	})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tracemoney_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per job.",
	}, []string{"job"})
	registerer.MustRegister(runs, failures, duration, warmed, directory, lastSuccess)
	return &Metrics{
		runs:        runs,
		failures:    failures,
		duration:    duration,
		warmed:      warmed,
		directory:   directory,
		lastSuccess: lastSuccess,
	}
}

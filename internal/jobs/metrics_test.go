package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	_ = m.Track("tickers_refresh").End(nil)
	err := m.Track("tickers_refresh").End(errors.New("boom"))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	if got := testutil.ToFloat64(m.runs.WithLabelValues("tickers_refresh", "success")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("tickers_refresh")); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("tickers_refresh")); got <= 0 {
		t.Fatalf("expected last success timestamp, got %v", got)
	}
}

func TestWarmupAndDirectoryCollectors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddWarmed(OutcomeLoaded, 3)
	m.AddWarmed(OutcomeSkipped, 0)
	m.SetDirectorySize(42)

	if got := testutil.ToFloat64(m.warmed.WithLabelValues(OutcomeLoaded)); got != 3 {
		t.Fatalf("expected 3 loaded, got %v", got)
	}
	if got := testutil.ToFloat64(m.directory); got != 42 {
		t.Fatalf("expected directory size 42, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AddWarmed(OutcomeFailed, 1)
	m.SetDirectorySize(1)
	if err := m.Track("noop").End(nil); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

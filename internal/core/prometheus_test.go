package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.Observe(context.Background(), "create_patient", true, 30*time.Millisecond)
	rec.Observe(context.Background(), "create_patient", false, 10*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("create_patient", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("create_patient", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.CollectAndCount(rec.durations); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestPrometheusMetricsRecorderDoubleRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(registry); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

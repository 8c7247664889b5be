package prommetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestMetrics_RecordDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordDecision("allow")
	metrics.RecordDecision("allow")
	metrics.RecordDecision("deny_cooldown")

	if got := testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("allow")); got != 2 {
		t.Errorf("Expected 2 allow decisions, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("deny_cooldown")); got != 1 {
		t.Errorf("Expected 1 cooldown denial, got %v", got)
	}
}

func TestMetrics_RecordNearCap(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordNearCap()

	if got := testutil.ToFloat64(metrics.nearCapTotal); got != 1 {
		t.Errorf("Expected 1 near-cap warning, got %v", got)
	}
}

func TestMetrics_RecordStoreOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordStoreOperation("get_usage", 5*time.Millisecond, nil)
	metrics.RecordStoreOperation("get_usage", 10*time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(metrics.storeOpsErrors.WithLabelValues("get_usage")); got != 1 {
		t.Errorf("Expected 1 store error, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected store operation metrics to be recorded")
	}
}

func TestMetrics_RecordStoreDegraded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordStoreDegraded("increment_daily")
	metrics.RecordStoreDegraded("increment_daily")

	if got := testutil.ToFloat64(metrics.storeDegradedTotal.WithLabelValues("increment_daily")); got != 2 {
		t.Errorf("Expected 2 degraded operations, got %v", got)
	}
}

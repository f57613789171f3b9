package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCheckoutMetricsWithRegisterer(registry)

	m.RecordOrderPlaced(20 * time.Millisecond)
	m.RecordOrderPlaced(30 * time.Millisecond)
	m.RecordCheckoutFailed("conflict", time.Millisecond)
	m.RecordCancelled("customer")
	m.RecordTransition("pending_confirmation", "confirmed")
	m.RecordUnitsReserved(5)
	m.RecordUnitsReleased(2)
	m.RecordUnitsReleased(0)
	m.RecordCartMutation("add")

	if got := testutil.ToFloat64(m.ordersPlaced); got != 2 {
		t.Fatalf("expected 2 orders placed, got %v", got)
	}
	if got := testutil.ToFloat64(m.checkoutFailed.WithLabelValues("conflict")); got != 1 {
		t.Fatalf("expected 1 conflict failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.cancellations.WithLabelValues("customer")); got != 1 {
		t.Fatalf("expected 1 customer cancellation, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("pending_confirmation", "confirmed")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.unitsReserved); got != 5 {
		t.Fatalf("expected 5 reserved units, got %v", got)
	}
	if got := testutil.ToFloat64(m.unitsReleased); got != 2 {
		t.Fatalf("expected 2 released units, got %v", got)
	}
	if got := testutil.ToFloat64(m.cartMutations.WithLabelValues("add")); got != 1 {
		t.Fatalf("expected 1 cart mutation, got %v", got)
	}
}

func TestCheckoutMetrics_DurationHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCheckoutMetricsWithRegisterer(registry)

	m.RecordOrderPlaced(100 * time.Millisecond)
	m.RecordCheckoutFailed("invalid_argument", 10*time.Millisecond)

	var metric dto.Metric
	if err := m.checkoutDuration.Write(&metric); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 samples, got %d", got)
	}
}

func TestCheckoutMetrics_ReRegistrationReturnsExisting(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewCheckoutMetricsWithRegisterer(registry)
	second := NewCheckoutMetricsWithRegisterer(registry)

	first.RecordOrderPlaced(time.Millisecond)
	if got := testutil.ToFloat64(second.ordersPlaced); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestCheckoutMetrics_NilReceiver(t *testing.T) {
	var m *CheckoutMetrics
	m.RecordOrderPlaced(time.Millisecond)
	m.RecordCheckoutFailed("internal", time.Millisecond)
	m.RecordCancelled("admin")
	m.RecordTransition("a", "b")
	m.RecordUnitsReserved(1)
	m.RecordUnitsReleased(1)
	m.RecordCartMutation("clear")
}

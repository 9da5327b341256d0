package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFulfillmentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.ObserveOrder(ResultProcessed)
	m.ObserveOrder(ResultProcessed)
	m.ObserveOrder(ResultInsufficientStock)
	m.IncMutation("usage")
	m.IncCompensation("refund", "full")
	m.SetLowStock(4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "backhouse_orders_processed_total", "result", ResultProcessed); err != nil || got != 2 {
		t.Fatalf("expected processed=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "backhouse_orders_processed_total", "result", ResultInsufficientStock); err != nil || got != 1 {
		t.Fatalf("expected insufficient_stock=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "backhouse_inventory_mutations_total", "type", "usage"); err != nil || got != 1 {
		t.Fatalf("expected usage mutation=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "backhouse_order_compensations_total", "kind", "refund"); err != nil || got != 1 {
		t.Fatalf("expected refund compensation=1, got %f (%v)", got, err)
	}

	mf := findMetricFamily(mfs, "backhouse_inventory_low_stock_ingredients")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("low stock gauge missing")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Fatalf("expected low stock gauge 4, got %f", got)
	}
}

func TestFulfillmentMetricsNilSafe(t *testing.T) {
	var m *FulfillmentMetrics
	m.ObserveOrder(ResultFailed)
	m.IncMutation("waste")
	m.IncCompensation("cancellation", "full")
	m.SetLowStock(1)

	unregistered := NewFulfillmentMetrics(nil)
	unregistered.ObserveOrder(ResultFailed)
}

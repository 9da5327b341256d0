package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Order processing outcomes used as the "result" label.
const (
	ResultProcessed         = "processed"
	ResultAlreadyProcessed  = "already_processed"
	ResultInsufficientStock = "insufficient_stock"
	ResultFailed            = "failed"
)

// FulfillmentMetrics counts ledger movements, order processing outcomes and
// compensations.
type FulfillmentMetrics struct {
	orders        *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	compensations *prometheus.CounterVec
	lowStock      prometheus.Gauge
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backhouse_orders_processed_total",
		Help: "Order fulfillment attempts by result.",
	}, []string{"result"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backhouse_inventory_mutations_total",
		Help: "Inventory ledger entries written, by transaction type.",
	}, []string{"type"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backhouse_order_compensations_total",
		Help: "Cancellations and refunds, by kind and type.",
	}, []string{"kind", "type"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backhouse_inventory_low_stock_ingredients",
		Help: "Trackable ingredients whose stock is below the configured minimum.",
	})
	reg.MustRegister(orders, mutations, compensations, lowStock)
	return &FulfillmentMetrics{
		orders:        orders,
		mutations:     mutations,
		compensations: compensations,
		lowStock:      lowStock,
	}
}

func (m *FulfillmentMetrics) ObserveOrder(result string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *FulfillmentMetrics) IncMutation(txType string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(txType)).Inc()
}

func (m *FulfillmentMetrics) IncCompensation(kind, refundType string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(kind), normalizeLabel(refundType)).Inc()
}

func (m *FulfillmentMetrics) SetLowStock(count int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(count))
}

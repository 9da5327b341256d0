package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const salesCounterName = "product_sales"

// CounterStore is the persistent side of the sales recorder (redis in production).
type CounterStore interface {
	IncrByWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

// SalesRecorder tallies units sold per product once an order's stock has been
// deducted. It feeds a prometheus counter and, when configured, a daily
// counter in the store.
type SalesRecorder struct {
	sold  *prometheus.CounterVec
	store CounterStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSalesRecorder registers the sales counter; store may be nil.
func NewSalesRecorder(reg prometheus.Registerer, store CounterStore, ttl time.Duration) *SalesRecorder {
	recorder := &SalesRecorder{store: store, ttl: ttl, now: time.Now}
	if reg == nil {
		return recorder
	}
	recorder.sold = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backhouse_product_units_sold_total",
		Help: "Units sold per product, counted when inventory is deducted.",
	}, []string{"product_id"})
	reg.MustRegister(recorder.sold)
	return recorder
}

// RecordProductSale adds qty units to the product's counters. Both sinks are
// attempted; their errors are combined.
func (s *SalesRecorder) RecordProductSale(ctx context.Context, productID uuid.UUID, qty int) error {
	if s == nil || qty <= 0 {
		return nil
	}
	if s.sold != nil {
		s.sold.WithLabelValues(productID.String()).Add(float64(qty))
	}
	if s.store == nil {
		return nil
	}

	var errs error
	day := s.now().UTC().Format("2006-01-02")
	key := s.store.CounterKey(salesCounterName, day, productID.String())
	if _, err := s.store.IncrByWithTTL(ctx, key, int64(qty), s.ttl); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("daily sales counter: %w", err))
	}
	totalKey := s.store.CounterKey(salesCounterName, "all", productID.String())
	if _, err := s.store.IncrByWithTTL(ctx, totalKey, int64(qty), 0); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("lifetime sales counter: %w", err))
	}
	return errs
}

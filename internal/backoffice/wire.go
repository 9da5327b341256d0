package backoffice

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/backhouse/internal/catalog"
	"github.com/angelmondragon/backhouse/internal/compensation"
	"github.com/angelmondragon/backhouse/internal/fulfillment"
	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/internal/orders"
	"github.com/angelmondragon/backhouse/internal/recipes"
	"github.com/angelmondragon/backhouse/internal/staff"
	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/logger"
	"github.com/angelmondragon/backhouse/pkg/metrics"
)

// BuildParams carries the infrastructure the back office runs on.
type BuildParams struct {
	DB       *db.Client
	Config   config.Config
	Logger   *logger.Logger
	Registry prometheus.Registerer
	// Counters persists sales tallies; nil keeps them in prometheus only.
	Counters metrics.CounterStore
	Clock    func() time.Time
}

// Build wires every domain service on one database client.
func Build(p BuildParams) (*Service, *metrics.FulfillmentMetrics, error) {
	if p.DB == nil {
		return nil, nil, fmt.Errorf("db client required")
	}
	if p.Logger == nil {
		return nil, nil, fmt.Errorf("logger required")
	}
	conn := p.DB.DB()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(p.Registry)

	stock, err := ledger.NewService(ledger.ServiceParams{
		Repo:    ledger.NewRepository(conn),
		DB:      p.DB,
		Logger:  p.Logger,
		Metrics: fulfillmentMetrics,
		Clock:   p.Clock,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: %w", err)
	}
	resolver, err := recipes.NewService(recipes.NewRepository(conn), stock)
	if err != nil {
		return nil, nil, fmt.Errorf("recipes: %w", err)
	}
	orderRepo := orders.NewRepository(conn)

	var recorder fulfillment.UsageRecorder
	if p.Registry != nil || p.Counters != nil {
		recorder = metrics.NewSalesRecorder(p.Registry, p.Counters, p.Config.Metrics.SalesCounterTTL)
	}
	engine, err := fulfillment.NewService(fulfillment.ServiceParams{
		Orders:   orderRepo,
		Ledger:   stock,
		Recipes:  resolver,
		DB:       p.DB,
		Recorder: recorder,
		Metrics:  fulfillmentMetrics,
		Logger:   p.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fulfillment: %w", err)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		DB:       p.DB,
		Catalog:  catalog.NewService(catalog.NewRepository(conn)),
		Recipes:  resolver,
		Settings: p.Config.Settings,
		Logger:   p.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("orders: %w", err)
	}

	staffService, err := staff.NewService(staff.NewRepository(conn), p.Config.PIN)
	if err != nil {
		return nil, nil, fmt.Errorf("staff: %w", err)
	}
	compensationService, err := compensation.NewService(compensation.ServiceParams{
		Orders:   orderRepo,
		Ledger:   stock,
		Recipes:  resolver,
		DB:       p.DB,
		Verifier: staffService,
		Settings: p.Config.Settings,
		Metrics:  fulfillmentMetrics,
		Logger:   p.Logger,
		Clock:    p.Clock,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("compensation: %w", err)
	}

	return NewService(Components{
		Ledger:       stock,
		Recipes:      resolver,
		Fulfillment:  engine,
		Orders:       orderService,
		Compensation: compensationService,
		Staff:        staffService,
	}), fulfillmentMetrics, nil
}

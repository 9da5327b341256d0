package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/pkg/logger"
)

const lowStockJobName = "low_stock_sweep"

type lowStockSource interface {
	BelowMinimum(ctx context.Context) ([]ledger.LowStockItem, error)
}

type lowStockGauge interface {
	SetLowStock(count int)
}

type LowStockJobParams struct {
	Ledger lowStockSource
	Gauge  lowStockGauge
	Logger *logger.Logger
}

// LowStockJob reports trackable ingredients that fell under their minimum
// stock and publishes the count as a gauge.
type LowStockJob struct {
	ledger lowStockSource
	gauge  lowStockGauge
	logg   *logger.Logger
}

func NewLowStockJob(params LowStockJobParams) (*LowStockJob, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LowStockJob{
		ledger: params.Ledger,
		gauge:  params.Gauge,
		logg:   params.Logger,
	}, nil
}

func (j *LowStockJob) Name() string { return lowStockJobName }

func (j *LowStockJob) Run(ctx context.Context) error {
	items, err := j.ledger.BelowMinimum(ctx)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	for _, item := range items {
		itemCtx := j.logg.WithIngredientID(ctx, item.IngredientID.String())
		itemCtx = j.logg.WithFields(itemCtx, map[string]any{
			"ingredient":    item.Name,
			"current_stock": item.Record.CurrentStock.String(),
			"min_stock":     item.Record.MinStock.String(),
		})
		j.logg.Warn(itemCtx, "ingredient below minimum stock")
	}
	if j.gauge != nil {
		j.gauge.SetLowStock(len(items))
	}
	j.logg.Info(j.logg.WithField(ctx, "low_stock_count", len(items)), "low stock sweep complete")
	return nil
}

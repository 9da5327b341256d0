package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

type gaugeRecorder struct {
	value int
	set   bool
}

func (g *gaugeRecorder) SetLowStock(count int) {
	g.value = count
	g.set = true
}

type failingSource struct{}

func (failingSource) BelowMinimum(context.Context) ([]ledger.LowStockItem, error) {
	return nil, errors.New("db down")
}

func TestLowStockJobCountsIngredientsBelowMinimum(t *testing.T) {
	conn := dbtest.Open(t)
	flour := dbtest.Ingredient(t, conn, "Flour", enums.UnitGram, true)
	dbtest.Stock(t, conn, flour.ID, "200", "500")
	salt := dbtest.Ingredient(t, conn, "Salt", enums.UnitGram, true)
	dbtest.Stock(t, conn, salt.ID, "900", "100")

	stock, err := ledger.NewService(ledger.ServiceParams{
		Repo:   ledger.NewRepository(conn),
		DB:     db.Wrap(conn),
		Logger: dbtest.Logger(),
	})
	require.NoError(t, err)

	gauge := &gaugeRecorder{}
	job, err := NewLowStockJob(LowStockJobParams{Ledger: stock, Gauge: gauge, Logger: dbtest.Logger()})
	require.NoError(t, err)
	require.Equal(t, "low_stock_sweep", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.True(t, gauge.set)
	require.Equal(t, 1, gauge.value)
}

func TestLowStockJobPropagatesErrors(t *testing.T) {
	gauge := &gaugeRecorder{}
	job, err := NewLowStockJob(LowStockJobParams{Ledger: failingSource{}, Gauge: gauge, Logger: dbtest.Logger()})
	require.NoError(t, err)

	require.Error(t, job.Run(context.Background()))
	require.False(t, gauge.set)
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

type countingMetrics struct {
	mutations map[string]int
}

func (c *countingMetrics) IncMutation(txType string) {
	if c.mutations == nil {
		c.mutations = map[string]int{}
	}
	c.mutations[txType]++
}

func newTestService(t *testing.T, conn *gorm.DB) (Service, *countingMetrics) {
	t.Helper()
	clock := dbtest.TickingClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)
	counter := &countingMetrics{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		DB:      db.Wrap(conn),
		Logger:  dbtest.Logger(),
		Metrics: counter,
		Clock:   clock,
	})
	require.NoError(t, err)
	return svc, counter
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dbtest.Dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	conn := dbtest.Open(t)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn)})
	require.Error(t, err)
}

func TestDeductWritesRecordAndLogEntry(t *testing.T) {
	conn := dbtest.Open(t)
	svc, counter := newTestService(t, conn)
	ctx := context.Background()

	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)
	dbtest.Stock(t, conn, flour.ID, "100", "10")
	ref := uuid.New()

	result, err := svc.Deduct(ctx, flour.ID, dbtest.Dec("40"), "order #1", &ref)
	require.NoError(t, err)
	assert.True(t, result.Tracked)
	requireDecimal(t, "100", result.PreviousStock)
	requireDecimal(t, "60", result.NewStock)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, enums.InventoryTransactionTypeUsage, result.Transaction.Type)
	requireDecimal(t, "-40", result.Transaction.QuantityChange)
	require.NotNil(t, result.Transaction.RefLineID)
	assert.Equal(t, ref, *result.Transaction.RefLineID)

	requireDecimal(t, "60", dbtest.CurrentStock(t, conn, flour.ID))
	assert.Equal(t, 1, counter.mutations["usage"])

	var record models.InventoryRecord
	require.NoError(t, conn.Where("ingredient_id = ?", flour.ID).First(&record).Error)
	assert.Equal(t, int64(1), record.Version)
}

func TestDeductBoundary(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)
	dbtest.Stock(t, conn, flour.ID, "25", "0")

	_, err := svc.Deduct(ctx, flour.ID, dbtest.Dec("25.001"), "too much", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	requireDecimal(t, "25", dbtest.CurrentStock(t, conn, flour.ID))

	history, err := svc.History(ctx, flour.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	result, err := svc.Deduct(ctx, flour.ID, dbtest.Dec("25"), "exact", nil)
	require.NoError(t, err)
	requireDecimal(t, "0", result.NewStock)
	requireDecimal(t, "0", dbtest.CurrentStock(t, conn, flour.ID))
}

func TestDeductUntrackedIsNoop(t *testing.T) {
	conn := dbtest.Open(t)
	svc, counter := newTestService(t, conn)
	ctx := context.Background()

	salt := dbtest.Ingredient(t, conn, "salt", enums.UnitGram, false)
	noRecord := dbtest.Ingredient(t, conn, "ice", enums.UnitPiece, true)

	for _, id := range []uuid.UUID{salt.ID, noRecord.ID} {
		result, err := svc.Deduct(ctx, id, dbtest.Dec("5"), "order #2", nil)
		require.NoError(t, err)
		assert.False(t, result.Tracked)
		assert.Nil(t, result.Transaction)

		waste, err := svc.RecordWaste(ctx, id, dbtest.Dec("1"), "spill")
		require.NoError(t, err)
		assert.False(t, waste.Tracked)
	}

	var count int64
	require.NoError(t, conn.Model(&models.InventoryTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, conn.Model(&models.InventoryRecord{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, counter.mutations)
}

func TestRestockCreatesRecordLazily(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	milk := dbtest.Ingredient(t, conn, "milk", enums.UnitMilliliter, true)

	result, err := svc.Restock(ctx, milk.ID, dbtest.Dec("500"), "delivery")
	require.NoError(t, err)
	assert.True(t, result.Tracked)
	requireDecimal(t, "0", result.PreviousStock)
	requireDecimal(t, "500", result.NewStock)

	var record models.InventoryRecord
	require.NoError(t, conn.Where("ingredient_id = ?", milk.ID).First(&record).Error)
	requireDecimal(t, "500", record.CurrentStock)
	require.NotNil(t, record.LastRestockedAt)
	assert.True(t, record.LastRestockedAt.Equal(result.Transaction.CreatedAt))

	level, err := svc.Level(ctx, milk.ID)
	require.NoError(t, err)
	tracked, ok := level.(Tracked)
	require.True(t, ok)
	requireDecimal(t, "500", tracked.Record.CurrentStock)
}

func TestRestockNonTrackableIsNoop(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)

	salt := dbtest.Ingredient(t, conn, "salt", enums.UnitGram, false)
	result, err := svc.Restock(context.Background(), salt.ID, dbtest.Dec("10"), "delivery")
	require.NoError(t, err)
	assert.False(t, result.Tracked)

	level, err := svc.Level(context.Background(), salt.ID)
	require.NoError(t, err)
	assert.IsType(t, Untracked{}, level)
}

func TestAdjustLogsZeroDelta(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	beans := dbtest.Ingredient(t, conn, "beans", enums.UnitGram, true)
	dbtest.Stock(t, conn, beans.ID, "300", "50")

	result, err := svc.Adjust(ctx, beans.ID, dbtest.Dec("300"), "count")
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, enums.InventoryTransactionTypeAdjustment, result.Transaction.Type)
	assert.True(t, result.Transaction.QuantityChange.IsZero())

	result, err = svc.Adjust(ctx, beans.ID, dbtest.Dec("120"), "count")
	require.NoError(t, err)
	requireDecimal(t, "-180", result.Transaction.QuantityChange)

	history, err := svc.History(ctx, beans.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAdjustValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	salt := dbtest.Ingredient(t, conn, "salt", enums.UnitGram, false)
	_, err := svc.Adjust(ctx, salt.ID, dbtest.Dec("10"), "count")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(ctx, salt.ID, dbtest.Dec("-1"), "count")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(ctx, uuid.New(), dbtest.Dec("1"), "count")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestQuantityMustBePositive(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()
	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)

	_, err := svc.Deduct(ctx, flour.ID, decimal.Zero, "zero", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Restock(ctx, flour.ID, dbtest.Dec("-3"), "negative")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.RecordWaste(ctx, uuid.Nil, dbtest.Dec("1"), "nil id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMixedSequenceConservesStock(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	sugar := dbtest.Ingredient(t, conn, "sugar", enums.UnitGram, true)
	dbtest.Stock(t, conn, sugar.ID, "50", "0")

	_, err := svc.Restock(ctx, sugar.ID, dbtest.Dec("100"), "delivery")
	require.NoError(t, err)
	_, err = svc.Deduct(ctx, sugar.ID, dbtest.Dec("30.5"), "order #3", nil)
	require.NoError(t, err)
	_, err = svc.RecordWaste(ctx, sugar.ID, dbtest.Dec("4.5"), "spill")
	require.NoError(t, err)
	_, err = svc.Deduct(ctx, sugar.ID, dbtest.Dec("500"), "rejected", nil)
	require.Error(t, err)
	_, err = svc.Adjust(ctx, sugar.ID, dbtest.Dec("90"), "count")
	require.NoError(t, err)

	history, err := svc.History(ctx, sugar.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	sum := decimal.Zero
	for i, entry := range history {
		assert.True(t, entry.NewStock.Equal(entry.PreviousStock.Add(entry.QuantityChange)))
		if i > 0 {
			assert.True(t, entry.PreviousStock.Equal(history[i-1].NewStock))
		}
		sum = sum.Add(entry.QuantityChange)
	}
	requireDecimal(t, "90", dbtest.Dec("50").Add(sum))
	requireDecimal(t, "90", dbtest.CurrentStock(t, conn, sugar.ID))
}

func TestDeductRestockRoundTrip(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	syrup := dbtest.Ingredient(t, conn, "syrup", enums.UnitMilliliter, true)
	dbtest.Stock(t, conn, syrup.ID, "750", "100")

	_, err := svc.Deduct(ctx, syrup.ID, dbtest.Dec("42.25"), "order #4", nil)
	require.NoError(t, err)
	_, err = svc.Restock(ctx, syrup.ID, dbtest.Dec("42.25"), "refund #4")
	require.NoError(t, err)

	requireDecimal(t, "750", dbtest.CurrentStock(t, conn, syrup.ID))
}

func TestBoundServiceRollsBackWithCaller(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)
	sugar := dbtest.Ingredient(t, conn, "sugar", enums.UnitGram, true)
	dbtest.Stock(t, conn, flour.ID, "100", "0")
	dbtest.Stock(t, conn, sugar.ID, "5", "0")

	err := db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		bound := svc.WithTx(tx)
		if _, err := bound.Deduct(ctx, flour.ID, dbtest.Dec("50"), "order #5", nil); err != nil {
			return err
		}
		_, err := bound.Deduct(ctx, sugar.ID, dbtest.Dec("10"), "order #5", nil)
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	requireDecimal(t, "100", dbtest.CurrentStock(t, conn, flour.ID))
	requireDecimal(t, "5", dbtest.CurrentStock(t, conn, sugar.ID))
}

func TestBelowMinimum(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _ := newTestService(t, conn)

	low := dbtest.Ingredient(t, conn, "cream", enums.UnitMilliliter, true)
	ok := dbtest.Ingredient(t, conn, "butter", enums.UnitGram, true)
	dbtest.Stock(t, conn, low.ID, "20", "100")
	dbtest.Stock(t, conn, ok.ID, "500", "100")

	items, err := svc.BelowMinimum(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].IngredientID)
	assert.Equal(t, "cream", items[0].Name)
}

type staleRepo struct {
	Repository
}

func (r staleRepo) WithTx(tx *gorm.DB) Repository {
	return staleRepo{Repository: r.Repository.WithTx(tx)}
}

func (staleRepo) UpdateRecord(context.Context, uuid.UUID, int64, map[string]any) (int64, error) {
	return 0, nil
}

func TestLostVersionRaceIsConflict(t *testing.T) {
	conn := dbtest.Open(t)
	clock, _ := dbtest.Clock(time.Now())
	svc, err := NewService(ServiceParams{
		Repo:   staleRepo{Repository: NewRepository(conn)},
		DB:     db.Wrap(conn),
		Logger: dbtest.Logger(),
		Clock:  clock,
	})
	require.NoError(t, err)

	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)
	dbtest.Stock(t, conn, flour.ID, "10", "0")

	_, err = svc.Deduct(context.Background(), flour.ID, dbtest.Dec("1"), "order #6", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var count int64
	require.NoError(t, conn.Model(&models.InventoryTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCovers(t *testing.T) {
	record := models.InventoryRecord{CurrentStock: dbtest.Dec("3")}
	assert.True(t, Covers(Tracked{Record: record}, dbtest.Dec("3")))
	assert.False(t, Covers(Tracked{Record: record}, dbtest.Dec("3.5")))
	assert.True(t, Covers(Untracked{}, dbtest.Dec("1000000")))
}

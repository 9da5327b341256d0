package recipes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

func newTestResolver(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	stock, err := ledger.NewService(ledger.ServiceParams{
		Repo:   ledger.NewRepository(conn),
		DB:     db.Wrap(conn),
		Logger: dbtest.Logger(),
	})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), stock)
	require.NoError(t, err)
	return svc
}

func TestRequiredIngredientsNormalizesAndSums(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)

	flour := dbtest.Ingredient(t, conn, "flour", enums.UnitGram, true)
	milk := dbtest.Ingredient(t, conn, "milk", enums.UnitMilliliter, true)
	cake := dbtest.Product(t, conn, "cake", "4.50")
	dbtest.Recipe(t, conn, cake.ID, nil, flour.ID, "0.2", enums.UnitKilogram)
	dbtest.Recipe(t, conn, cake.ID, nil, flour.ID, "50", enums.UnitGram)
	dbtest.Recipe(t, conn, cake.ID, nil, milk.ID, "0.1", enums.UnitLiter)

	reqs, err := svc.RequiredIngredients(context.Background(), cake.ID, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	byName := map[string]Requirement{}
	for _, req := range reqs {
		byName[req.Ingredient.Name] = req
	}
	assert.True(t, dbtest.Dec("250").Equal(byName["flour"].Quantity))
	assert.Equal(t, enums.UnitGram, byName["flour"].Unit)
	assert.True(t, dbtest.Dec("100").Equal(byName["milk"].Quantity))
	assert.Equal(t, enums.UnitMilliliter, byName["milk"].Unit)
}

func TestRequiredIngredientsVariantOverridesProduct(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)
	ctx := context.Background()

	beans := dbtest.Ingredient(t, conn, "beans", enums.UnitGram, true)
	coffee := dbtest.Product(t, conn, "coffee", "3.00")
	large := dbtest.Variant(t, conn, coffee.ID, "large", "4.00")
	small := dbtest.Variant(t, conn, coffee.ID, "small", "2.50")
	dbtest.Recipe(t, conn, coffee.ID, nil, beans.ID, "18", enums.UnitGram)
	dbtest.Recipe(t, conn, coffee.ID, &large.ID, beans.ID, "27", enums.UnitGram)

	reqs, err := svc.RequiredIngredients(ctx, coffee.ID, &large.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, dbtest.Dec("27").Equal(reqs[0].Quantity))

	reqs, err = svc.RequiredIngredients(ctx, coffee.ID, &small.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, dbtest.Dec("18").Equal(reqs[0].Quantity))

	reqs, err = svc.RequiredIngredients(ctx, coffee.ID, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, dbtest.Dec("18").Equal(reqs[0].Quantity))
}

func TestRequiredIngredientsIncompatibleUnits(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)

	milk := dbtest.Ingredient(t, conn, "milk", enums.UnitMilliliter, true)
	latte := dbtest.Product(t, conn, "latte", "4.00")
	dbtest.Recipe(t, conn, latte.ID, nil, milk.ID, "200", enums.UnitGram)

	_, err := svc.RequiredIngredients(context.Background(), latte.ID, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompatibleUnits))
}

func TestMaxProducibleQuantity(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)
	ctx := context.Background()

	bread := dbtest.Ingredient(t, conn, "bread", enums.UnitPiece, true)
	ham := dbtest.Ingredient(t, conn, "ham", enums.UnitGram, true)
	salt := dbtest.Ingredient(t, conn, "salt", enums.UnitGram, false)
	dbtest.Stock(t, conn, bread.ID, "10", "0")
	dbtest.Stock(t, conn, ham.ID, "350", "0")

	sandwich := dbtest.Product(t, conn, "sandwich", "6.00")
	dbtest.Recipe(t, conn, sandwich.ID, nil, bread.ID, "2", enums.UnitPiece)
	dbtest.Recipe(t, conn, sandwich.ID, nil, ham.ID, "0.1", enums.UnitKilogram)
	dbtest.Recipe(t, conn, sandwich.ID, nil, salt.ID, "1", enums.UnitGram)

	limit, err := svc.MaxProducibleQuantity(ctx, sandwich.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), limit)

	ok, err := svc.CanProduceProduct(ctx, sandwich.ID, nil, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.CanProduceProduct(ctx, sandwich.ID, nil, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaxProducibleQuantityUnlimited(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)
	ctx := context.Background()

	water := dbtest.Ingredient(t, conn, "water", enums.UnitMilliliter, false)
	lemon := dbtest.Ingredient(t, conn, "lemon", enums.UnitPiece, true)
	lemonade := dbtest.Product(t, conn, "lemonade", "2.00")
	dbtest.Recipe(t, conn, lemonade.ID, nil, water.ID, "300", enums.UnitMilliliter)
	dbtest.Recipe(t, conn, lemonade.ID, nil, lemon.ID, "1", enums.UnitPiece)

	limit, err := svc.MaxProducibleQuantity(ctx, lemonade.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, UnlimitedQuantity, limit)

	noRecipe := dbtest.Product(t, conn, "gift card", "25.00")
	limit, err = svc.MaxProducibleQuantity(ctx, noRecipe.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, UnlimitedQuantity, limit)
}

func TestMaxProducibleQuantityZeroStock(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestResolver(t, conn)

	eggs := dbtest.Ingredient(t, conn, "eggs", enums.UnitPiece, true)
	dbtest.Stock(t, conn, eggs.ID, "1", "0")
	omelette := dbtest.Product(t, conn, "omelette", "7.00")
	dbtest.Recipe(t, conn, omelette.ID, nil, eggs.ID, "3", enums.UnitPiece)

	limit, err := svc.MaxProducibleQuantity(context.Background(), omelette.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, limit)
}

package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

func discountPtr(d enums.DiscountType) *enums.DiscountType {
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dbtest.Dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestRecalculatePlainLines(t *testing.T) {
	order := &models.Order{}
	lines := []models.OrderLineItem{
		{Quantity: 2, UnitPrice: dbtest.Dec("3.50")},
		{Quantity: 1, UnitPrice: dbtest.Dec("12.00")},
	}

	Recalculate(order, lines, 2)

	assertMoney(t, "19", order.Subtotal)
	assertMoney(t, "0", order.DiscountAmount)
	assertMoney(t, "19", order.Total)
	assertMoney(t, "7", lines[0].Subtotal)
	assertMoney(t, "3.5", lines[0].DiscountedUnitPrice)
}

func TestRecalculateLineDiscounts(t *testing.T) {
	order := &models.Order{}
	lines := []models.OrderLineItem{
		{
			Quantity:           4,
			UnitPrice:          dbtest.Dec("2.50"),
			DiscountType:       discountPtr(enums.DiscountTypePercentage),
			DiscountPercentage: dbtest.Dec("10"),
		},
		{
			Quantity:       1,
			UnitPrice:      dbtest.Dec("5.00"),
			DiscountType:   discountPtr(enums.DiscountTypeFixed),
			DiscountAmount: dbtest.Dec("8.00"),
		},
	}

	Recalculate(order, lines, 2)

	assertMoney(t, "15", order.Subtotal)
	assertMoney(t, "6", order.DiscountAmount)
	assertMoney(t, "9", order.Total)
	assertMoney(t, "1", lines[0].DiscountAmount)
	assertMoney(t, "2.25", lines[0].DiscountedUnitPrice)
	assertMoney(t, "5", lines[1].DiscountAmount)
	assertMoney(t, "0", lines[1].DiscountedUnitPrice)
}

func TestRecalculateOrderPercentageWins(t *testing.T) {
	order := &models.Order{DiscountPercentage: dbtest.Dec("20")}
	lines := []models.OrderLineItem{
		{Quantity: 3, UnitPrice: dbtest.Dec("4.00")},
		{
			Quantity:       1,
			UnitPrice:      dbtest.Dec("8.00"),
			DiscountType:   discountPtr(enums.DiscountTypeFixed),
			DiscountAmount: dbtest.Dec("1.00"),
		},
	}

	Recalculate(order, lines, 2)

	assertMoney(t, "20", order.Subtotal)
	assertMoney(t, "4", order.DiscountAmount)
	assertMoney(t, "16", order.Total)
	assertMoney(t, "3.2", lines[0].DiscountedUnitPrice)
	assertMoney(t, "6.4", lines[1].DiscountedUnitPrice)
}

func TestRecalculateRoundsMoney(t *testing.T) {
	order := &models.Order{DiscountPercentage: dbtest.Dec("15")}
	lines := []models.OrderLineItem{
		{Quantity: 3, UnitPrice: dbtest.Dec("3.33")},
	}

	Recalculate(order, lines, 2)

	assertMoney(t, "9.99", order.Subtotal)
	assertMoney(t, "1.5", order.DiscountAmount)
	assertMoney(t, "8.49", order.Total)
	assertMoney(t, "2.83", lines[0].DiscountedUnitPrice)
}

func TestRecalculateIsStable(t *testing.T) {
	order := &models.Order{}
	lines := []models.OrderLineItem{
		{
			Quantity:           2,
			UnitPrice:          dbtest.Dec("6.00"),
			DiscountType:       discountPtr(enums.DiscountTypePercentage),
			DiscountPercentage: dbtest.Dec("25"),
		},
	}
	Recalculate(order, lines, 2)
	first := *order
	Recalculate(order, lines, 2)

	assertMoney(t, first.Total.String(), order.Total)
	assertMoney(t, first.DiscountAmount.String(), order.DiscountAmount)
}

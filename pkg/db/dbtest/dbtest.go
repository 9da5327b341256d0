// Package dbtest provides in-memory sqlite databases and seed helpers for
// repository and service tests.
package dbtest

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	"github.com/angelmondragon/backhouse/pkg/logger"
)

// Open returns a migrated, isolated in-memory sqlite database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+sanitize(t.Name())+"_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Logger discards everything below error.
func Logger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

// Clock returns a fixed clock and a function to advance it.
func Clock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// TickingClock returns start on the first call and moves forward by step on
// every call after that, so rows ordered by time keep their write order.
func TickingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func Ingredient(t testing.TB, conn *gorm.DB, name string, unit enums.Unit, trackable bool) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, Unit: unit, Trackable: trackable}
	if err := conn.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return ingredient
}

// Stock creates the inventory record of an ingredient.
func Stock(t testing.TB, conn *gorm.DB, ingredientID uuid.UUID, current, minimum string) *models.InventoryRecord {
	t.Helper()
	record := &models.InventoryRecord{
		IngredientID: ingredientID,
		CurrentStock: Dec(current),
		MinStock:     Dec(minimum),
		Location:     "back",
	}
	if err := conn.Create(record).Error; err != nil {
		t.Fatalf("create inventory record: %v", err)
	}
	return record
}

func Product(t testing.TB, conn *gorm.DB, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: Dec(price), Active: true}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func Variant(t testing.TB, conn *gorm.DB, productID uuid.UUID, name, price string) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{ProductID: productID, Name: name, Price: Dec(price), Active: true}
	if err := conn.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return variant
}

// Recipe adds a recipe line; variantID may be nil for product-level lines.
func Recipe(t testing.TB, conn *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, ingredientID uuid.UUID, qty string, unit enums.Unit) *models.RecipeLine {
	t.Helper()
	line := &models.RecipeLine{
		ProductID:    productID,
		VariantID:    variantID,
		IngredientID: ingredientID,
		Quantity:     Dec(qty),
		Unit:         unit,
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("create recipe line: %v", err)
	}
	return line
}

// Order creates an order with the given statuses and no lines.
func Order(t testing.TB, conn *gorm.DB, number int64, status enums.OrderStatus, payment enums.PaymentStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:   number,
		Status:        status,
		PaymentStatus: payment,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

// Line appends a line item priced from unitPrice and refreshes the order totals
// with a plain subtotal (no discounts).
func Line(t testing.TB, conn *gorm.DB, order *models.Order, productID uuid.UUID, variantID *uuid.UUID, qty int, unitPrice string) *models.OrderLineItem {
	t.Helper()
	price := Dec(unitPrice)
	subtotal := price.Mul(decimal.NewFromInt(int64(qty)))
	line := &models.OrderLineItem{
		OrderID:             order.ID,
		ProductID:           productID,
		VariantID:           variantID,
		Quantity:            qty,
		UnitPrice:           price,
		DiscountedUnitPrice: price,
		Subtotal:            subtotal,
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("create line item: %v", err)
	}
	order.Subtotal = order.Subtotal.Add(subtotal)
	order.Total = order.Subtotal.Sub(order.DiscountAmount)
	if err := conn.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"subtotal": order.Subtotal,
		"total":    order.Total,
	}).Error; err != nil {
		t.Fatalf("update order totals: %v", err)
	}
	return line
}

// Staff creates an active staff member with an already encoded PIN hash.
func Staff(t testing.TB, conn *gorm.DB, name, pinHash string) *models.StaffMember {
	t.Helper()
	member := &models.StaffMember{DisplayName: name, PinHash: pinHash, Active: true}
	if err := conn.Create(member).Error; err != nil {
		t.Fatalf("create staff member: %v", err)
	}
	return member
}

// CurrentStock reads the stored stock of an ingredient.
func CurrentStock(t testing.TB, conn *gorm.DB, ingredientID uuid.UUID) decimal.Decimal {
	t.Helper()
	var record models.InventoryRecord
	if err := conn.Where("ingredient_id = ?", ingredientID).First(&record).Error; err != nil {
		t.Fatalf("load inventory record: %v", err)
	}
	return record.CurrentStock
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
	"github.com/angelmondragon/backhouse/pkg/types"
)

// OrderLineItem captures one product (or variant) sold on an order.
// InventoryProcessed marks lines whose ingredients were already deducted.
type OrderLineItem struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID             uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	VariantID           *uuid.UUID          `gorm:"column:variant_id;type:uuid"`
	Quantity            int                 `gorm:"column:quantity;not null"`
	UnitPrice           decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountedUnitPrice decimal.Decimal     `gorm:"column:discounted_unit_price;type:numeric(12,2);not null"`
	Subtotal            decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountType        *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountPercentage  decimal.Decimal     `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	DiscountAmount      decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Notes               *string             `gorm:"column:notes"`
	Served              bool                `gorm:"column:served;not null"`
	InventoryProcessed  bool                `gorm:"column:inventory_processed;not null"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *OrderLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Key groups the line with other lines for the same product and variant.
func (l OrderLineItem) Key() types.LineKey {
	return types.NewLineKey(l.ProductID, l.VariantID)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// UsageRecord stores how much of an ingredient a fulfilled order line consumed.
// InventoryTransactionID is set when the ledger actually moved stock.
type UsageRecord struct {
	ID                     uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID                uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineItemID        uuid.UUID       `gorm:"column:order_line_item_id;type:uuid;not null"`
	ProductID              uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	IngredientID           uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null"`
	Quantity               decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit                   enums.Unit      `gorm:"column:unit;type:text;not null"`
	InventoryTransactionID *uuid.UUID      `gorm:"column:inventory_transaction_id;type:uuid"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (UsageRecord) TableName() string {
	return "inventory_usage_records"
}

func (u *UsageRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

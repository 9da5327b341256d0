package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// InventoryTransaction is an immutable stock movement. NewStock always equals
// PreviousStock + QuantityChange.
type InventoryTransaction struct {
	ID             uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey"`
	IngredientID   uuid.UUID                      `gorm:"column:ingredient_id;type:uuid;not null;index"`
	Type           enums.InventoryTransactionType `gorm:"column:type;type:text;not null"`
	QuantityChange decimal.Decimal                `gorm:"column:quantity_change;type:numeric(14,3);not null"`
	PreviousStock  decimal.Decimal                `gorm:"column:previous_stock;type:numeric(14,3);not null"`
	NewStock       decimal.Decimal                `gorm:"column:new_stock;type:numeric(14,3);not null"`
	Reason         string                         `gorm:"column:reason;not null"`
	RefLineID      *uuid.UUID                     `gorm:"column:ref_line_id;type:uuid"`
	CreatedAt      time.Time                      `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord holds the current stock of one trackable ingredient, expressed
// in the ingredient's unit. Version is bumped on every write and guards
// concurrent mutation.
type InventoryRecord struct {
	IngredientID    uuid.UUID        `gorm:"column:ingredient_id;type:uuid;primaryKey"`
	CurrentStock    decimal.Decimal  `gorm:"column:current_stock;type:numeric(14,3);not null"`
	MinStock        decimal.Decimal  `gorm:"column:min_stock;type:numeric(14,3);not null"`
	MaxStock        *decimal.Decimal `gorm:"column:max_stock;type:numeric(14,3)"`
	Location        string           `gorm:"column:location;not null"`
	LastRestockedAt *time.Time       `gorm:"column:last_restocked_at"`
	Version         int64            `gorm:"column:version;not null"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

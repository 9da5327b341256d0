package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// RecipeLine states how much of an ingredient one unit of a product (or of one
// of its variants, when VariantID is set) consumes, in the recipe's own unit.
type RecipeLine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID    *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	IngredientID uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit         enums.Unit      `gorm:"column:unit;type:text;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *RecipeLine) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// Ingredient is a raw material consumed by recipes. Non-trackable ingredients
// never carry stock and never constrain fulfillment.
type Ingredient struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Unit      enums.Unit `gorm:"column:unit;type:text;not null"`
	Trackable bool       `gorm:"column:trackable;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Ingredient) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

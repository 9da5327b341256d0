package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// Order is a point-of-sale ticket. InventoryProcessed is true once every line
// has been deducted from stock.
type Order struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        int64                `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	CustomerName       *string              `gorm:"column:customer_name"`
	TableLabel         *string              `gorm:"column:table_label"`
	Notes              *string              `gorm:"column:notes"`
	Subtotal           decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount     decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	DiscountPercentage decimal.Decimal      `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	Total              decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Status             enums.OrderStatus    `gorm:"column:status;type:text;not null"`
	PaymentStatus      enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null"`
	PaymentMethod      *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	InventoryProcessed bool                 `gorm:"column:inventory_processed;not null"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

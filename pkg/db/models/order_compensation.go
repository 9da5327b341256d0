package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/enums"
)

// OrderCompensation is the append-only audit trail of cancellations and refunds.
type OrderCompensation struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Kind          enums.CompensationKind `gorm:"column:kind;type:text;not null"`
	Type          enums.RefundType       `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod *enums.PaymentMethod   `gorm:"column:payment_method;type:text"`
	Reason        string                 `gorm:"column:reason;not null"`
	ActorID       uuid.UUID              `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (c *OrderCompensation) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

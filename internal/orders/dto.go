package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

// ItemSpec describes one product (or variant) to append to an order.
// DiscountValue is a percentage (0-100) or a fixed amount off the line,
// depending on DiscountType.
type ItemSpec struct {
	ProductID     uuid.UUID           `json:"product_id" validate:"required"`
	VariantID     *uuid.UUID          `json:"variant_id,omitempty"`
	Quantity      int                 `json:"quantity" validate:"gt=0,max=999"`
	Notes         *string             `json:"notes,omitempty" validate:"omitempty,max=500"`
	DiscountType  *enums.DiscountType `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
}

// AddItemsInput is the batch accepted by AddItems.
type AddItemsInput struct {
	Items []ItemSpec `json:"items" validate:"required,min=1,dive"`
}

// CreateInput opens a new pending, unpaid order.
type CreateInput struct {
	CustomerName       *string              `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	TableLabel         *string              `json:"table_label,omitempty" validate:"omitempty,max=40"`
	Notes              *string              `json:"notes,omitempty" validate:"omitempty,max=500"`
	PaymentMethod      *enums.PaymentMethod `json:"payment_method,omitempty"`
	DiscountPercentage decimal.Decimal      `json:"discount_percentage"`
}

// Detail is an order together with its current line items.
type Detail struct {
	Order models.Order
	Lines []models.OrderLineItem
}

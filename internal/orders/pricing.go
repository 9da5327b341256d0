package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Recalculate recomputes line and order money fields from the full line list.
// An order-level percentage wins over per-line discounts; otherwise the order
// discount is the sum of line discounts. Money is rounded to scale places and
// the total never goes negative.
func Recalculate(order *models.Order, lines []models.OrderLineItem, scale int32) {
	subtotal := decimal.Zero
	lineDiscounts := decimal.Zero
	pct := order.DiscountPercentage
	pooled := pct.IsPositive()

	for i := range lines {
		line := &lines[i]
		qty := decimal.NewFromInt(int64(line.Quantity))
		gross := line.UnitPrice.Mul(qty).Round(scale)
		line.Subtotal = gross
		subtotal = subtotal.Add(gross)

		discount := lineDiscount(line, gross).Round(scale)
		if line.DiscountType != nil {
			line.DiscountAmount = discount
		}
		lineDiscounts = lineDiscounts.Add(discount)

		share := discount
		if pooled {
			share = gross.Mul(pct).Div(hundred)
		}
		if line.Quantity > 0 {
			line.DiscountedUnitPrice = gross.Sub(share).Div(qty).Round(scale)
		} else {
			line.DiscountedUnitPrice = line.UnitPrice
		}
	}

	discount := lineDiscounts
	if pooled {
		discount = subtotal.Mul(pct).Div(hundred).Round(scale)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	order.Subtotal = subtotal
	order.DiscountAmount = discount
	order.Total = total.Round(scale)
}

func lineDiscount(line *models.OrderLineItem, gross decimal.Decimal) decimal.Decimal {
	if line.DiscountType == nil {
		return decimal.Zero
	}
	switch *line.DiscountType {
	case enums.DiscountTypePercentage:
		if !line.DiscountPercentage.IsPositive() {
			return decimal.Zero
		}
		return gross.Mul(line.DiscountPercentage).Div(hundred)
	case enums.DiscountTypeFixed:
		if !line.DiscountAmount.IsPositive() {
			return decimal.Zero
		}
		if line.DiscountAmount.GreaterThan(gross) {
			return gross
		}
		return line.DiscountAmount
	}
	return decimal.Zero
}

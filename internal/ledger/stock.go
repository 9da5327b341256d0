package ledger

import (
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/shopspring/decimal"
)

// StockLevel is either Tracked or Untracked. Untracked ingredients (not
// trackable, or without an inventory record) never constrain production.
type StockLevel interface {
	isStockLevel()
}

// Tracked carries the inventory record of a stock-managed ingredient.
type Tracked struct {
	Record models.InventoryRecord
}

// Untracked marks an ingredient whose stock is not managed.
type Untracked struct{}

func (Tracked) isStockLevel()   {}
func (Untracked) isStockLevel() {}

// Covers reports whether the level can supply qty.
func Covers(level StockLevel, qty decimal.Decimal) bool {
	switch l := level.(type) {
	case Tracked:
		return l.Record.CurrentStock.GreaterThanOrEqual(qty)
	default:
		return true
	}
}

package enums

import "fmt"

// InventoryTransactionType classifies an entry in the inventory transaction log.
type InventoryTransactionType string

const (
	InventoryTransactionTypeUsage      InventoryTransactionType = "usage"
	InventoryTransactionTypeRestock    InventoryTransactionType = "restock"
	InventoryTransactionTypeAdjustment InventoryTransactionType = "adjustment"
	InventoryTransactionTypeWaste      InventoryTransactionType = "waste"
)

var validInventoryTransactionTypes = []InventoryTransactionType{
	InventoryTransactionTypeUsage,
	InventoryTransactionTypeRestock,
	InventoryTransactionTypeAdjustment,
	InventoryTransactionTypeWaste,
}

// String implements fmt.Stringer.
func (i InventoryTransactionType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryTransactionType.
func (i InventoryTransactionType) IsValid() bool {
	for _, candidate := range validInventoryTransactionTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryTransactionType converts raw input into a InventoryTransactionType.
func ParseInventoryTransactionType(value string) (InventoryTransactionType, error) {
	for _, candidate := range validInventoryTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory transaction type %q", value)
}

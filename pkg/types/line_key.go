package types

import (
	"fmt"

	"github.com/google/uuid"
)

// LineKey identifies "the same thing" on an order: a product, optionally narrowed
// to one of its variants. It is comparable and safe to use as a map key.
type LineKey struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// NewLineKey builds a key from the nullable variant reference stored on line items.
func NewLineKey(productID uuid.UUID, variantID *uuid.UUID) LineKey {
	key := LineKey{ProductID: productID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	return key
}

// HasVariant reports whether the key is narrowed to a variant.
func (k LineKey) HasVariant() bool {
	return k.VariantID != uuid.Nil
}

// Variant returns the variant reference in its nullable form.
func (k LineKey) Variant() *uuid.UUID {
	if !k.HasVariant() {
		return nil
	}
	id := k.VariantID
	return &id
}

func (k LineKey) String() string {
	if !k.HasVariant() {
		return k.ProductID.String()
	}
	return fmt.Sprintf("%s/%s", k.ProductID, k.VariantID)
}

package models

// All lists every persisted model. Used by the sqlite bootstrap and tests;
// postgres schemas come from the goose migrations.
func All() []any {
	return []any{
		&Ingredient{},
		&InventoryRecord{},
		&InventoryTransaction{},
		&Product{},
		&ProductVariant{},
		&RecipeLine{},
		&Order{},
		&OrderLineItem{},
		&UsageRecord{},
		&OrderCompensation{},
		&StaffMember{},
	}
}

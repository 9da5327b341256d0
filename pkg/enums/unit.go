package enums

import "fmt"

// Unit is the unit of measure used by ingredients and recipe lines.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pc"
)

// UnitFamily groups units that can be converted into one another.
type UnitFamily string

const (
	UnitFamilyMass   UnitFamily = "mass"
	UnitFamilyVolume UnitFamily = "volume"
	UnitFamilyCount  UnitFamily = "count"
)

var validUnits = []Unit{
	UnitGram,
	UnitKilogram,
	UnitMilliliter,
	UnitLiter,
	UnitPiece,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// Family returns the measurement family of the unit, or "" when unknown.
func (u Unit) Family() UnitFamily {
	switch u {
	case UnitGram, UnitKilogram:
		return UnitFamilyMass
	case UnitMilliliter, UnitLiter:
		return UnitFamilyVolume
	case UnitPiece:
		return UnitFamilyCount
	}
	return ""
}

// ParseUnit converts raw input into a Unit. Long forms such as "gram" are accepted.
func ParseUnit(value string) (Unit, error) {
	switch value {
	case "gram", "grams":
		return UnitGram, nil
	case "kilogram", "kilograms":
		return UnitKilogram, nil
	case "milliliter", "milliliters":
		return UnitMilliliter, nil
	case "liter", "liters":
		return UnitLiter, nil
	case "piece", "pieces", "pcs":
		return UnitPiece, nil
	}
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}

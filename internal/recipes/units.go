package recipes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

var thousand = decimal.NewFromInt(1000)

// baseFactor converts one unit into the base unit of its family (g, ml, pc).
func baseFactor(u enums.Unit) decimal.Decimal {
	switch u {
	case enums.UnitKilogram, enums.UnitLiter:
		return thousand
	default:
		return decimal.NewFromInt(1)
	}
}

// Normalize converts qty from one unit into another of the same family.
func Normalize(qty decimal.Decimal, from, to enums.Unit) (decimal.Decimal, error) {
	if !from.IsValid() || !to.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown unit conversion %q -> %q", from, to))
	}
	if from == to {
		return qty, nil
	}
	if from.Family() != to.Family() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeIncompatibleUnits, fmt.Sprintf("cannot convert %s to %s", from, to)).
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}
	return qty.Mul(baseFactor(from)).Div(baseFactor(to)), nil
}

package recipes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		qty  string
		from enums.Unit
		to   enums.Unit
		want string
	}{
		{name: "same unit", qty: "12.5", from: enums.UnitGram, to: enums.UnitGram, want: "12.5"},
		{name: "kg to g", qty: "0.25", from: enums.UnitKilogram, to: enums.UnitGram, want: "250"},
		{name: "g to kg", qty: "250", from: enums.UnitGram, to: enums.UnitKilogram, want: "0.25"},
		{name: "l to ml", qty: "1.5", from: enums.UnitLiter, to: enums.UnitMilliliter, want: "1500"},
		{name: "ml to l", qty: "30", from: enums.UnitMilliliter, to: enums.UnitLiter, want: "0.03"},
		{name: "pieces", qty: "2", from: enums.UnitPiece, to: enums.UnitPiece, want: "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(dbtest.Dec(tc.qty), tc.from, tc.to)
			require.NoError(t, err)
			assert.Truef(t, dbtest.Dec(tc.want).Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestNormalizeRejectsCrossFamily(t *testing.T) {
	_, err := Normalize(dbtest.Dec("1"), enums.UnitGram, enums.UnitMilliliter)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompatibleUnits))

	_, err = Normalize(dbtest.Dec("1"), enums.UnitPiece, enums.UnitKilogram)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompatibleUnits))

	_, err = Normalize(dbtest.Dec("1"), enums.Unit("oz"), enums.UnitGram)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

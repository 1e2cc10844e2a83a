package measure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-service/internal/model"
)

func TestToBaseWeight(t *testing.T) {
	cases := []struct {
		unit  string
		grams string
	}{
		{UnitGram, "1"},
		{UnitKilogram, "1000"},
		{UnitOunce, "28.349523125"},
		{UnitPound, "453.59237"},
	}
	for _, tc := range cases {
		t.Run(tc.unit, func(t *testing.T) {
			v := model.MeasurementValue{Type: model.Weight, Value: decimal.NewFromInt(1), Unit: tc.unit}
			base, err := ToBase(v)
			require.NoError(t, err)
			assert.True(t, base.Equal(decimal.RequireFromString(tc.grams)),
				"1 %s should be %s g, got %s", tc.unit, tc.grams, base)
		})
	}
}

func TestToBaseVolume(t *testing.T) {
	cases := []struct {
		unit string
		ml   string
	}{
		{UnitMilliliter, "1"},
		{UnitLiter, "1000"},
		{UnitTeaspoon, "4.92892"},
		{UnitTablespoon, "14.7868"},
		{UnitFluidOunce, "29.5735"},
		{UnitCup, "236.588"},
		{UnitPint, "473.176"},
		{UnitQuart, "946.353"},
		{UnitGallon, "3785.41"},
	}
	for _, tc := range cases {
		t.Run(tc.unit, func(t *testing.T) {
			v := model.MeasurementValue{Type: model.Volume, Value: decimal.NewFromInt(1), Unit: tc.unit}
			base, err := ToBase(v)
			require.NoError(t, err)
			assert.True(t, base.Equal(decimal.RequireFromString(tc.ml)),
				"1 %s should be %s ml, got %s", tc.unit, tc.ml, base)
		})
	}
}

func TestToBaseCountPassesThrough(t *testing.T) {
	v := model.MeasurementValue{Type: model.Count, Value: decimal.RequireFromString("7.5"), Unit: UnitCount}
	base, err := ToBase(v)
	require.NoError(t, err)
	assert.True(t, base.Equal(decimal.RequireFromString("7.5")))
}

func TestToBaseRejectsUnknownUnit(t *testing.T) {
	cases := []model.MeasurementValue{
		{Type: model.Weight, Value: decimal.NewFromInt(1), Unit: "stone"},
		{Type: model.Volume, Value: decimal.NewFromInt(1), Unit: "drop"},
		{Type: model.Count, Value: decimal.NewFromInt(1), Unit: "dozen"},
		{Type: model.Weight, Value: decimal.NewFromInt(1), Unit: UnitMilliliter},
	}
	for _, v := range cases {
		t.Run(string(v.Type)+"/"+v.Unit, func(t *testing.T) {
			_, err := ToBase(v)
			require.Error(t, err)
			assert.True(t, model.IsValidationError(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestToBaseRejectsUnknownType(t *testing.T) {
	v := model.MeasurementValue{Type: "temperature", Value: decimal.NewFromInt(1), Unit: "c"}
	_, err := ToBase(v)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestFromBaseDividesByFactor(t *testing.T) {
	got, err := FromBase(model.Weight, decimal.RequireFromString("907.18474"), UnitPound)
	require.NoError(t, err)
	assert.Equal(t, UnitPound, got.Unit)
	assert.InDelta(t, 2.0, got.Value.InexactFloat64(), 1e-9)

	got, err = FromBase(model.Volume, decimal.RequireFromString("3785.41"), UnitGallon)
	require.NoError(t, err)
	assert.Equal(t, UnitGallon, got.Unit)
	assert.InDelta(t, 1.0, got.Value.InexactFloat64(), 1e-9)
}

func TestFromBaseCountIgnoresTargetUnit(t *testing.T) {
	got, err := FromBase(model.Count, decimal.NewFromInt(8), UnitPound)
	require.NoError(t, err)
	assert.Equal(t, UnitCount, got.Unit)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(8)))
}

func TestFromBaseRejectsUnknownUnit(t *testing.T) {
	_, err := FromBase(model.Volume, decimal.NewFromInt(100), "firkin")
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

// Converting to base and back in the same unit must reproduce the input
// within floating rounding tolerance, for every valid (type, unit) pair.
func TestRoundTrip(t *testing.T) {
	value := decimal.RequireFromString("3.5")
	for _, mt := range model.MeasurementTypes() {
		for _, unit := range UnitsFor(mt) {
			t.Run(string(mt)+"/"+unit, func(t *testing.T) {
				v := model.MeasurementValue{Type: mt, Value: value, Unit: unit}
				base, err := ToBase(v)
				require.NoError(t, err)
				back, err := FromBase(mt, base, unit)
				require.NoError(t, err)
				assert.InDelta(t, 3.5, back.Value.InexactFloat64(), 1e-9)
				if mt == model.Count {
					assert.Equal(t, UnitCount, back.Unit)
				} else {
					assert.Equal(t, unit, back.Unit)
				}
			})
		}
	}
}

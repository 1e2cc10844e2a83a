package aggregate

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-service/internal/measure"
	"github.com/pantrylab/pantry-service/internal/model"
)

func newEngine() *Engine {
	return New(zerolog.Nop())
}

func item(measurements ...model.MeasurementValue) *model.Item {
	return &model.Item{ItemID: "itm-test", OwnerID: "owner-1", Measurements: measurements}
}

func mval(t model.MeasurementType, value, unit string) model.MeasurementValue {
	return model.MeasurementValue{Type: t, Value: decimal.RequireFromString(value), Unit: unit}
}

func TestComputeSumsMixedWeightUnits(t *testing.T) {
	items := []*model.Item{
		item(mval(model.Weight, "1", measure.UnitPound)),
		item(mval(model.Weight, "16", measure.UnitOunce)),
	}
	sum, err := newEngine().Compute(items, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.TotalItemCount)
	got, ok := sum.Measurements[model.Weight]
	require.True(t, ok)
	assert.Equal(t, measure.UnitPound, got.Unit)
	assert.InDelta(t, 2.0, got.Value.InexactFloat64(), 1e-9)
}

func TestComputeSumsCounts(t *testing.T) {
	items := []*model.Item{
		item(mval(model.Count, "5", measure.UnitCount)),
		item(mval(model.Count, "3", measure.UnitCount)),
	}
	sum, err := newEngine().Compute(items, nil)
	require.NoError(t, err)

	got, ok := sum.Measurements[model.Count]
	require.True(t, ok)
	assert.Equal(t, measure.UnitCount, got.Unit)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(8)))
}

func TestComputeMixedTypes(t *testing.T) {
	items := []*model.Item{
		item(mval(model.Count, "5", measure.UnitCount), mval(model.Weight, "1", measure.UnitPound)),
		item(mval(model.Count, "3", measure.UnitCount), mval(model.Volume, "2", measure.UnitCup)),
	}
	sum, err := newEngine().Compute(items, nil)
	require.NoError(t, err)

	require.Len(t, sum.Measurements, 3)
	assert.True(t, sum.Measurements[model.Count].Value.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, measure.UnitPound, sum.Measurements[model.Weight].Unit)
	assert.InDelta(t, 1.0, sum.Measurements[model.Weight].Value.InexactFloat64(), 1e-9)
	// Two cups scale to cups, not fluid ounces.
	assert.Equal(t, measure.UnitCup, sum.Measurements[model.Volume].Unit)
	assert.InDelta(t, 2.0, sum.Measurements[model.Volume].Value.InexactFloat64(), 1e-9)
}

func TestComputeWeightScaleBoundary(t *testing.T) {
	// Exactly one pound of grams reports pounds.
	sum, err := newEngine().Compute([]*model.Item{
		item(mval(model.Weight, "453.59237", measure.UnitGram)),
	}, nil)
	require.NoError(t, err)
	got := sum.Measurements[model.Weight]
	assert.Equal(t, measure.UnitPound, got.Unit)
	assert.InDelta(t, 1.0, got.Value.InexactFloat64(), 1e-9)

	// Below one pound reports ounces.
	sum, err = newEngine().Compute([]*model.Item{
		item(mval(model.Weight, "6", measure.UnitOunce)),
	}, nil)
	require.NoError(t, err)
	got = sum.Measurements[model.Weight]
	assert.Equal(t, measure.UnitOunce, got.Unit)
	assert.InDelta(t, 6.0, got.Value.InexactFloat64(), 1e-9)
}

func TestComputeVolumeScaleLadder(t *testing.T) {
	// Exactly one gallon picks gallons over quarts, cups, fluid ounces.
	sum, err := newEngine().Compute([]*model.Item{
		item(mval(model.Volume, "2", measure.UnitGallon)),
	}, nil)
	require.NoError(t, err)
	got := sum.Measurements[model.Volume]
	assert.Equal(t, measure.UnitGallon, got.Unit)
	assert.InDelta(t, 2.0, got.Value.InexactFloat64(), 1e-9)

	// Just under a gallon falls to quarts.
	sum, err = newEngine().Compute([]*model.Item{
		item(mval(model.Volume, "3785.40", measure.UnitMilliliter)),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, measure.UnitQuart, sum.Measurements[model.Volume].Unit)

	// A small pour reports fluid ounces.
	sum, err = newEngine().Compute([]*model.Item{
		item(mval(model.Volume, "2", measure.UnitTablespoon)),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, measure.UnitFluidOunce, sum.Measurements[model.Volume].Unit)
}

func TestComputeNoMeasurementsYieldsEmptyMapping(t *testing.T) {
	now := time.Now().UTC()
	items := []*model.Item{
		{ItemID: "a", Quantity: decimal.NewFromInt(2), Unit: "cans"},
		{ItemID: "b", Quantity: decimal.NewFromInt(3), Unit: "cans", UseByDate: &now},
	}
	sum, err := newEngine().Compute(items, nil)
	require.NoError(t, err)

	assert.Empty(t, sum.Measurements)
	assert.Equal(t, 2, sum.TotalItemCount)
	assert.Equal(t, 1, sum.ItemsWithExpiryCount)
	assert.True(t, sum.TotalQuantity.Equal(decimal.NewFromInt(5)))
	require.Contains(t, sum.QuantityByUnit, "cans")
	assert.True(t, sum.QuantityByUnit["cans"].Equal(decimal.NewFromInt(5)))
}

func TestComputeSuppressesZeroTotals(t *testing.T) {
	sum, err := newEngine().Compute([]*model.Item{
		item(mval(model.Weight, "0", measure.UnitGram)),
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, sum.Measurements)
}

func TestComputeRequestedUnitOverride(t *testing.T) {
	items := []*model.Item{
		item(mval(model.Weight, "2", measure.UnitPound)),
		item(mval(model.Volume, "1", measure.UnitGallon)),
	}
	sum, err := newEngine().Compute(items, map[model.MeasurementType]string{
		model.Weight: measure.UnitOunce,
		model.Volume: measure.UnitLiter,
	})
	require.NoError(t, err)

	assert.Equal(t, measure.UnitOunce, sum.Measurements[model.Weight].Unit)
	assert.InDelta(t, 32.0, sum.Measurements[model.Weight].Value.InexactFloat64(), 1e-9)
	assert.Equal(t, measure.UnitLiter, sum.Measurements[model.Volume].Unit)
	assert.InDelta(t, 3.78541, sum.Measurements[model.Volume].Value.InexactFloat64(), 1e-9)
}

func TestComputeRejectsInvalidRequestedUnit(t *testing.T) {
	_, err := newEngine().Compute(nil, map[model.MeasurementType]string{model.Weight: "stone"})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestComputeSkipsMalformedEntriesWithWarning(t *testing.T) {
	bad := item(model.MeasurementValue{Type: model.Weight, Value: decimal.NewFromInt(3), Unit: "stone"})
	good := item(mval(model.Weight, "1", measure.UnitPound))
	sum, err := newEngine().Compute([]*model.Item{bad, good}, nil)
	require.NoError(t, err)

	require.Len(t, sum.Warnings, 1)
	assert.Contains(t, sum.Warnings[0], "skipped")
	got := sum.Measurements[model.Weight]
	assert.Equal(t, measure.UnitPound, got.Unit)
	assert.InDelta(t, 1.0, got.Value.InexactFloat64(), 1e-9)
}

func TestComputeEmptyInput(t *testing.T) {
	sum, err := newEngine().Compute(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TotalItemCount)
	assert.Empty(t, sum.Measurements)
	assert.Empty(t, sum.QuantityByUnit)
	assert.True(t, sum.TotalQuantity.IsZero())
}

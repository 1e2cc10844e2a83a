// Package aggregate folds a filtered item set into one summary: a normalized
// measurement total per type re-expressed in a human-scaled or caller-chosen
// unit, plus item-level statistics computed in the same pass.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pantrylab/pantry-service/internal/measure"
	"github.com/pantrylab/pantry-service/internal/model"
)

var one = decimal.NewFromInt(1)

// Engine computes aggregate summaries. It holds no state beyond its logger.
type Engine struct {
	log zerolog.Logger
}

// New constructs an Engine.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Compute folds items into an AggregateSummary. requestedUnits, when it names
// a unit for a type, overrides that type's human-scale output unit and must
// be valid for the type. Malformed measurement entries (written before
// validation existed) never abort the fold: each is skipped, reported in
// Warnings, and logged at warn level.
func (e *Engine) Compute(items []*model.Item, requestedUnits map[model.MeasurementType]string) (*model.AggregateSummary, error) {
	for t, unit := range requestedUnits {
		if !measure.ValidUnit(t, unit) {
			return nil, model.NewValidationError("requestedUnits",
				fmt.Sprintf("cannot report %s in %q; allowed: %s", t, unit, strings.Join(measure.UnitsFor(t), ", ")))
		}
	}

	sum := &model.AggregateSummary{}
	totals := make(map[model.MeasurementType]decimal.Decimal)

	for _, it := range items {
		sum.TotalItemCount++
		sum.TotalQuantity = sum.TotalQuantity.Add(it.Quantity)
		if it.UseByDate != nil {
			sum.ItemsWithExpiryCount++
		}
		if it.Unit != "" {
			if sum.QuantityByUnit == nil {
				sum.QuantityByUnit = make(map[string]decimal.Decimal)
			}
			sum.QuantityByUnit[it.Unit] = sum.QuantityByUnit[it.Unit].Add(it.Quantity)
		}

		for _, mval := range it.Measurements {
			base, err := measure.ToBase(mval)
			if err != nil {
				sum.Warnings = append(sum.Warnings,
					fmt.Sprintf("item %s: skipped %s measurement: %v", it.ItemID, mval.Type, err))
				e.log.Warn().
					Str("itemId", it.ItemID).
					Str("measurementType", string(mval.Type)).
					Str("unit", mval.Unit).
					Err(err).
					Msg("skipping malformed measurement during aggregation")
				continue
			}
			totals[mval.Type] = totals[mval.Type].Add(base)
		}
	}

	for t, total := range totals {
		if total.IsZero() {
			continue
		}
		var out model.MeasurementValue
		if unit, ok := requestedUnits[t]; ok {
			out, _ = measure.FromBase(t, total, unit)
		} else {
			out = humanScale(t, total)
		}
		if sum.Measurements == nil {
			sum.Measurements = make(map[model.MeasurementType]model.MeasurementValue)
		}
		sum.Measurements[t] = out
	}
	return sum, nil
}

// humanScale picks a readable output unit for a non-zero base total. Weight
// reports pounds at or above one pound, otherwise ounces. Volume reports the
// largest of gallon, quart, cup, fluid ounce whose value reaches one,
// otherwise fluid ounces. Count is always "units".
func humanScale(t model.MeasurementType, base decimal.Decimal) model.MeasurementValue {
	switch t {
	case model.Count:
		v, _ := measure.FromBase(model.Count, base, measure.UnitCount)
		return v
	case model.Weight:
		lbs, _ := measure.FromBase(model.Weight, base, measure.UnitPound)
		if lbs.Value.GreaterThanOrEqual(one) {
			return lbs
		}
		oz, _ := measure.FromBase(model.Weight, base, measure.UnitOunce)
		return oz
	case model.Volume:
		for _, unit := range []string{measure.UnitGallon, measure.UnitQuart, measure.UnitCup, measure.UnitFluidOunce} {
			v, _ := measure.FromBase(model.Volume, base, unit)
			if v.Value.GreaterThanOrEqual(one) {
				return v
			}
		}
		floz, _ := measure.FromBase(model.Volume, base, measure.UnitFluidOunce)
		return floz
	}
	// Totals never accumulate for a type ToBase rejected.
	return model.MeasurementValue{}
}

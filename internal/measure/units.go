// Package measure defines the unit system for pantry measurements: canonical
// conversion tables per measurement type and the validation rules that run
// before anything is persisted. Weight converts through grams, volume through
// milliliters; count is dimensionless. Unknown units never convert silently.
package measure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pantrylab/pantry-service/internal/model"
)

// Canonical unit tokens accepted on the wire.
const (
	UnitCount = "units"

	UnitGram     = "g"
	UnitKilogram = "kg"
	UnitOunce    = "oz"
	UnitPound    = "lb"

	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitTeaspoon   = "tsp"
	UnitTablespoon = "tbsp"
	UnitFluidOunce = "fl oz"
	UnitCup        = "cup"
	UnitPint       = "pint"
	UnitQuart      = "quart"
	UnitGallon     = "gallon"
)

var one = decimal.NewFromInt(1)

// weightToGrams holds exact grams-per-unit factors.
var weightToGrams = map[string]decimal.Decimal{
	UnitGram:     one,
	UnitKilogram: decimal.NewFromInt(1000),
	UnitOunce:    decimal.RequireFromString("28.349523125"),
	UnitPound:    decimal.RequireFromString("453.59237"),
}

// volumeToMilliliters holds milliliters-per-unit factors.
var volumeToMilliliters = map[string]decimal.Decimal{
	UnitMilliliter: one,
	UnitLiter:      decimal.NewFromInt(1000),
	UnitTeaspoon:   decimal.RequireFromString("4.92892"),
	UnitTablespoon: decimal.RequireFromString("14.7868"),
	UnitFluidOunce: decimal.RequireFromString("29.5735"),
	UnitCup:        decimal.RequireFromString("236.588"),
	UnitPint:       decimal.RequireFromString("473.176"),
	UnitQuart:      decimal.RequireFromString("946.353"),
	UnitGallon:     decimal.RequireFromString("3785.41"),
}

// factorFor resolves the base-unit factor for a (type, unit) pair.
func factorFor(t model.MeasurementType, unit string) (decimal.Decimal, bool) {
	switch t {
	case model.Count:
		if unit == UnitCount {
			return one, true
		}
	case model.Weight:
		if f, ok := weightToGrams[unit]; ok {
			return f, true
		}
	case model.Volume:
		if f, ok := volumeToMilliliters[unit]; ok {
			return f, true
		}
	}
	return decimal.Decimal{}, false
}

// ValidUnit reports whether unit belongs to the unit set of t. Count accepts
// exactly "units".
func ValidUnit(t model.MeasurementType, unit string) bool {
	_, ok := factorFor(t, unit)
	return ok
}

// UnitsFor returns the allowed units for t, sorted for stable messages.
func UnitsFor(t model.MeasurementType) []string {
	var units []string
	switch t {
	case model.Count:
		units = []string{UnitCount}
	case model.Weight:
		for u := range weightToGrams {
			units = append(units, u)
		}
	case model.Volume:
		for u := range volumeToMilliliters {
			units = append(units, u)
		}
	}
	sort.Strings(units)
	return units
}

func unknownUnitError(t model.MeasurementType, unit string) error {
	switch t {
	case model.Count, model.Weight, model.Volume:
		return model.NewValidationError("unit",
			fmt.Sprintf("unknown %s unit %q; allowed: %s", t, unit, strings.Join(UnitsFor(t), ", ")))
	default:
		return model.NewValidationError("type",
			fmt.Sprintf("unknown measurement type %q; allowed: count, weight, volume", string(t)))
	}
}

package measure

import (
	"github.com/shopspring/decimal"

	"github.com/pantrylab/pantry-service/internal/model"
)

// ToBase converts v to its type's base unit: grams for weight, milliliters
// for volume, the raw value for count. An unknown unit or type returns a
// ValidationError; there is no fallback to the unscaled value.
func ToBase(v model.MeasurementValue) (decimal.Decimal, error) {
	f, ok := factorFor(v.Type, v.Unit)
	if !ok {
		return decimal.Decimal{}, unknownUnitError(v.Type, v.Unit)
	}
	return v.Value.Mul(f), nil
}

// FromBase re-expresses a base-unit total in targetUnit. Count ignores
// targetUnit and always labels the result "units".
func FromBase(t model.MeasurementType, base decimal.Decimal, targetUnit string) (model.MeasurementValue, error) {
	if t == model.Count {
		return model.MeasurementValue{Type: model.Count, Value: base, Unit: UnitCount}, nil
	}
	f, ok := factorFor(t, targetUnit)
	if !ok {
		return model.MeasurementValue{}, unknownUnitError(t, targetUnit)
	}
	return model.MeasurementValue{Type: t, Value: base.Div(f), Unit: targetUnit}, nil
}

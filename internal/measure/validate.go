package measure

import (
	"fmt"

	"github.com/pantrylab/pantry-service/internal/model"
)

// ValidateSet checks a candidate measurement set before it is persisted:
// every entry's unit must belong to its type, and no two entries may share a
// type. Returns the first violation found; a nil error means the whole set is
// safe to write.
func ValidateSet(values []model.MeasurementValue) error {
	seen := make(map[model.MeasurementType]bool, len(values))
	for _, v := range values {
		switch v.Type {
		case model.Count, model.Weight, model.Volume:
		default:
			return model.NewValidationError("type",
				fmt.Sprintf("unknown measurement type %q; allowed: count, weight, volume", string(v.Type)))
		}
		if seen[v.Type] {
			return model.NewValidationError("measurements",
				fmt.Sprintf("duplicate %s measurement; at most one entry per type", v.Type))
		}
		seen[v.Type] = true
		if !ValidUnit(v.Type, v.Unit) {
			return unknownUnitError(v.Type, v.Unit)
		}
	}
	return nil
}
